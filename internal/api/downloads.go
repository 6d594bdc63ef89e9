package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/download"
	"github.com/joeblew999/kartlag/internal/logger"
	"github.com/joeblew999/kartlag/internal/registry"
)

type DownloadBody struct {
	Plan  download.Plan  `json:"plan"`
	State download.State `json:"state"`
}

type AreaInput struct {
	DatasetInput
	Area string `query:"area" doc:"Area code" example:"0000"`
}

type FormatsInput struct {
	AreaInput
	Projection string `query:"projection" doc:"Projection code" example:"25833"`
}

type SelectionInput struct {
	DatasetInput
	Body struct {
		Area       string `json:"area,omitempty" doc:"Area code; an unknown code clears the selection"`
		Projection string `json:"projection,omitempty" doc:"Projection code"`
		Format     string `json:"format,omitempty" doc:"Format name"`
	}
}

type StateOutput struct {
	Body download.State
}

type DescriptionBody struct {
	Description string `json:"description" doc:"Catalog description, empty when unknown"`
}

// RegisterDownloads registers the download wizard routes.
func (h *APIHandler) RegisterDownloads(api huma.API) {
	huma.Get(api, "/api/v1/sessions/{sid}/datasets/{id}/download", h.GetDownload, huma.OperationTags("download"))
	huma.Get(api, "/api/v1/sessions/{sid}/datasets/{id}/download/projections", h.GetProjections, huma.OperationTags("download"))
	huma.Get(api, "/api/v1/sessions/{sid}/datasets/{id}/download/formats", h.GetFormats, huma.OperationTags("download"))
	huma.Put(api, "/api/v1/sessions/{sid}/datasets/{id}/download/selection", h.PutSelection, huma.OperationTags("download"))
	huma.Get(api, "/api/v1/sessions/{sid}/datasets/{id}/description", h.GetDescription, huma.OperationTags("datasets"))
}

func (h *APIHandler) GetDownload(ctx context.Context, input *DatasetInput) (*struct{ Body DownloadBody }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	plan, state, err := s.Download(registry.ID(input.ID))
	if err != nil {
		return nil, notFound(err)
	}
	return &struct{ Body DownloadBody }{Body: DownloadBody{Plan: plan, State: state}}, nil
}

func (h *APIHandler) GetProjections(ctx context.Context, input *AreaInput) (*struct{ Body []download.Projection }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	projections, err := s.Projections(registry.ID(input.ID), input.Area)
	if err != nil {
		return nil, notFound(err)
	}
	return &struct{ Body []download.Projection }{Body: projections}, nil
}

func (h *APIHandler) GetFormats(ctx context.Context, input *FormatsInput) (*struct{ Body []download.Format }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	formats, err := s.Formats(registry.ID(input.ID), input.Area, input.Projection)
	if err != nil {
		return nil, notFound(err)
	}
	return &struct{ Body []download.Format }{Body: formats}, nil
}

func (h *APIHandler) PutSelection(ctx context.Context, input *SelectionInput) (*StateOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	b := input.Body
	state, err := s.SelectDownload(registry.ID(input.ID), download.Selection{Area: b.Area, Projection: b.Projection, Format: b.Format})
	if err != nil {
		return nil, notFound(err)
	}
	return &StateOutput{Body: state}, nil
}

// GetDescription serves the hover text of a dataset. A failed catalog
// lookup is reported as an empty description.
func (h *APIHandler) GetDescription(ctx context.Context, input *DatasetInput) (*struct{ Body DescriptionBody }, error) {
	s, _, err := h.dataset(input)
	if err != nil {
		return nil, err
	}
	text, err := s.Describe(ctx, registry.ID(input.ID))
	if err != nil {
		logger.Debug("describing %s: %v", input.ID, err)
		text = ""
	}
	return &struct{ Body DescriptionBody }{Body: DescriptionBody{Description: text}}, nil
}
