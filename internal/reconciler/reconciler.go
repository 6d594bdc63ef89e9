package reconciler

import (
	"sort"

	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/logger"
	"github.com/joeblew999/kartlag/internal/registry"
)

type handle struct {
	key        registry.LayerKey
	serviceURL string
	z          int
}

// Handle is a read-only view of a rendered overlay.
type Handle struct {
	Key        registry.LayerKey
	ServiceURL string
	ZIndex     int
}

// Reconciler diffs registry snapshots against its own handle map and
// issues the surface calls needed to match them.
type Reconciler struct {
	surface Surface
	params  TileParams
	handles map[registry.LayerKey]*handle
	nextZ   int
	base    string
}

// New creates a reconciler driving surface.
func New(surface Surface) *Reconciler {
	return &Reconciler{
		surface: surface,
		params:  DefaultTileParams,
		handles: make(map[registry.LayerKey]*handle),
		nextZ:   OverlayZIndex,
	}
}

// Reconcile makes the rendered overlays equal to selections. Overlays that
// are no longer selected are destroyed, new selections are created on top
// in snapshot order, and unchanged ones are left alone.
func (r *Reconciler) Reconcile(selections []registry.Selection) {
	want := make(map[registry.LayerKey]registry.Selection, len(selections))
	for _, s := range selections {
		want[s.Key] = s
	}

	for _, h := range r.sorted() {
		s, ok := want[h.key]
		if ok && capability.BaseURL(s.ServiceURL) == h.serviceURL {
			continue
		}
		r.surface.DestroyOverlay(h.key.String())
		delete(r.handles, h.key)
	}

	for _, s := range selections {
		if _, ok := r.handles[s.Key]; ok {
			continue
		}
		r.create(s.Key, capability.BaseURL(s.ServiceURL))
	}
}

func (r *Reconciler) create(key registry.LayerKey, serviceURL string) {
	z := r.nextZ
	err := r.surface.CreateOverlay(Overlay{
		ID:         key.String(),
		ServiceURL: serviceURL,
		Layer:      key.Layer,
		ZIndex:     z,
		Params:     r.params,
	})
	if err != nil {
		// Left absent; the next reconcile retries.
		logger.Error("creating overlay %s: %v", key, err)
		return
	}
	r.nextZ++
	r.handles[key] = &handle{key: key, serviceURL: serviceURL, z: z}
}

// SwapBase changes the base layer and re-adds every overlay above it in
// its previous relative order.
func (r *Reconciler) SwapBase(name string) {
	current := r.sorted()
	for _, h := range current {
		r.surface.DestroyOverlay(h.key.String())
		delete(r.handles, h.key)
	}

	r.base = name
	r.surface.SetBaseLayer(name)

	for _, h := range current {
		r.create(h.key, h.serviceURL)
	}
}

// Base returns the current base layer name.
func (r *Reconciler) Base() string {
	return r.base
}

// Handles returns the rendered overlays from bottom to top.
func (r *Reconciler) Handles() []Handle {
	sorted := r.sorted()
	out := make([]Handle, len(sorted))
	for i, h := range sorted {
		out[i] = Handle{Key: h.key, ServiceURL: h.serviceURL, ZIndex: h.z}
	}
	return out
}

func (r *Reconciler) sorted() []*handle {
	out := make([]*handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}
