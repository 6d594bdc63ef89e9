package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/humastar"
	"github.com/joeblew999/kartlag/internal/registry"
)

// RegisterEvents registers the Datastar routes of the map UI.
func (h *APIHandler) RegisterEvents(api huma.API) {
	huma.Get(api, "/api/v1/sessions/{sid}/events", h.Events, huma.OperationTags("events"))
	huma.Post(api, "/api/v1/sessions/{sid}/actions/toggle", h.ToggleAction, huma.OperationTags("events"))
}

// Events streams the session's datasets and map scene as Datastar signals,
// once on connect and again after every change. The stream ends when the
// session is deleted.
func (h *APIHandler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	bus := h.svc.Sessions.Bus()

	return humastar.Stream(func(sse humastar.SSE) {
		ch := bus.Subscribe(s.ID)
		defer bus.Unsubscribe(ch)

		sse.Signals(map[string]any{"datasets": s.Datasets(), "map": s.Map()})
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Resource == "session" && ev.Action == "deleted" {
					sse.DispatchCustomEvent("session-deleted", map[string]any{"id": ev.Session})
					return
				}
				switch ev.Resource {
				case "datasets":
					sse.Signals(map[string]any{"datasets": s.Datasets()})
				case "map":
					sse.Signals(map[string]any{"map": s.Map()})
				}
				sse.DispatchCustomEvent("session-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}

// ToggleAction toggles a layer from Datastar signals
// {"dataset": "d1", "layer": "grense", "selected": true} and answers with
// a success or error signal.
func (h *APIHandler) ToggleAction(ctx context.Context, input *struct {
	SessionInput
	humastar.SignalsInput
}) (*huma.StreamResponse, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}

	id := registry.ID(signals.String("dataset"))
	layer := signals.String("layer")
	selected := !signals.Has("selected") || signals.Bool("selected")

	return humastar.Stream(func(sse humastar.SSE) {
		if layer == "" {
			sse.Error("layer is required")
			return
		}
		v := s.Toggle(id, layer, selected)
		if !v.Accepted {
			sse.Error(v.Message)
			return
		}
		sse.Success(v.Message)
	}), nil
}
