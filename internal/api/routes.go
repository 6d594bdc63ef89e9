// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/catalog"
	"github.com/joeblew999/kartlag/internal/registry"
	"github.com/joeblew999/kartlag/internal/session"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Sessions *session.Store
	Catalog  *catalog.Store
}

// Types

type SessionInput struct {
	SID string `path:"sid" doc:"Session ID" format:"uuid"`
}

type DatasetInput struct {
	SessionInput
	ID string `path:"id" doc:"Dataset ID" example:"d1"`
}

type SessionBody struct {
	ID string `json:"id" doc:"Session ID" format:"uuid"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSessions registers session lifecycle routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Post(api, "/api/v1/sessions", h.CreateSession, huma.OperationTags("sessions"), created)
	huma.Delete(api, "/api/v1/sessions/{sid}", h.DeleteSession, huma.OperationTags("sessions"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) CreateSession(ctx context.Context, input *struct{}) (*struct{ Body SessionBody }, error) {
	s := h.svc.Sessions.Create()
	return &struct{ Body SessionBody }{Body: SessionBody{ID: s.ID}}, nil
}

func (h *APIHandler) DeleteSession(ctx context.Context, input *SessionInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Sessions.Delete(input.SID); err != nil {
		return nil, huma.Error404NotFound("session not found")
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

func (h *APIHandler) session(sid string) (*session.Session, error) {
	s, err := h.svc.Sessions.Get(sid)
	if err != nil {
		return nil, huma.Error404NotFound("session not found")
	}
	return s, nil
}

// dataset resolves the session and checks the dataset exists.
func (h *APIHandler) dataset(input *DatasetInput) (*session.Session, registry.Dataset, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, registry.Dataset{}, err
	}
	d, err := s.Dataset(registry.ID(input.ID))
	if err != nil {
		return nil, registry.Dataset{}, notFound(err)
	}
	return s, d, nil
}

// notFound maps lookup errors to 404 and everything else to 500.
func notFound(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return huma.Error404NotFound("session not found")
	case errors.Is(err, session.ErrUnknownDataset):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return huma.Error404NotFound("dataset not found in catalog")
	}
	return huma.Error500InternalServerError("internal error", err)
}
