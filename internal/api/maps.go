package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/kartlag/internal/mapsurface"
)

type MapOutput struct {
	Body mapsurface.View
}

type BaseInput struct {
	SessionInput
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Base layer name" example:"aerial"`
	}
}

type TileInput struct {
	SessionInput
	Handle string `path:"handle" doc:"Overlay handle (<dataset>:<layer>)" example:"d1:grense"`
	Z      uint32 `path:"z" maximum:"22" doc:"Zoom"`
	X      uint32 `path:"x" doc:"Column"`
	Y      uint32 `path:"y" doc:"Row"`
}

type TileOutput struct {
	Status   int
	Location string `header:"Location" doc:"WMS GetMap request for the tile"`
}

// RegisterMap registers map scene routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/sessions/{sid}/map", h.GetMap, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/sessions/{sid}/map/base", h.SwapBase, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/sessions/{sid}/map/overlays/{handle}/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("map"))
}

func (h *APIHandler) GetMap(ctx context.Context, input *SessionInput) (*MapOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	return &MapOutput{Body: s.Map()}, nil
}

func (h *APIHandler) SwapBase(ctx context.Context, input *BaseInput) (*MapOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	return &MapOutput{Body: s.SwapBase(input.Body.Name)}, nil
}

// GetTile redirects an XYZ tile request to the overlay's WMS GetMap URL.
func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	if n := uint32(1) << input.Z; input.X >= n || input.Y >= n {
		return nil, huma.Error400BadRequest("tile out of range")
	}
	u, ok := s.TileURL(input.Handle, maptile.New(input.X, input.Y, maptile.Zoom(input.Z)))
	if !ok {
		return nil, huma.Error404NotFound("overlay not found")
	}
	return &TileOutput{Status: http.StatusFound, Location: u}, nil
}
