// Package mapsurface is the server-side map surface: an in-memory scene of
// the base layer and WMS overlays that clients mirror onto their map
// widget.
package mapsurface

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joeblew999/kartlag/internal/reconciler"
)

// DefaultBase is the base layer of a new scene.
const DefaultBase = "standard"

// Scene implements reconciler.Surface.
type Scene struct {
	mu       sync.RWMutex
	base     string
	overlays map[string]reconciler.Overlay
	version  uint64
}

var _ reconciler.Surface = (*Scene)(nil)

// NewScene creates an empty scene with the given base layer.
func NewScene(base string) *Scene {
	if base == "" {
		base = DefaultBase
	}
	return &Scene{base: base, overlays: make(map[string]reconciler.Overlay)}
}

// CreateOverlay adds an overlay. Creating an id that already exists is an
// error: the reconciler must destroy before re-creating.
func (s *Scene) CreateOverlay(o reconciler.Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.overlays[o.ID]; exists {
		return fmt.Errorf("overlay %q already exists", o.ID)
	}
	s.overlays[o.ID] = o
	s.version++
	return nil
}

// DestroyOverlay removes an overlay; unknown ids are ignored.
func (s *Scene) DestroyOverlay(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.overlays[id]; exists {
		delete(s.overlays, id)
		s.version++
	}
}

// SetBaseLayer switches the base layer.
func (s *Scene) SetBaseLayer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.base = name
	s.version++
}

// Overlay returns one overlay by id.
func (s *Scene) Overlay(id string) (reconciler.Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overlays[id]
	return o, ok
}

// OverlayView is an overlay plus a tile URL template a client map widget
// can use directly.
type OverlayView struct {
	reconciler.Overlay
	TileTemplate string `json:"tileTemplate" doc:"GetMap URL with a {bbox-epsg-3857} placeholder"`
}

// View is a snapshot of the scene.
type View struct {
	Base     string        `json:"base" doc:"Base layer name" example:"standard"`
	Overlays []OverlayView `json:"overlays" doc:"Overlays from bottom to top"`
	Version  uint64        `json:"version" doc:"Incremented on every scene change"`
}

// View returns the scene with overlays ordered bottom to top.
func (s *Scene) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overlays := make([]OverlayView, 0, len(s.overlays))
	for _, o := range s.overlays {
		overlays = append(overlays, OverlayView{Overlay: o, TileTemplate: TileTemplate(o)})
	}
	sort.Slice(overlays, func(i, j int) bool { return overlays[i].ZIndex < overlays[j].ZIndex })
	return View{Base: s.base, Overlays: overlays, Version: s.version}
}
