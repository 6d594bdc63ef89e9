// Package session binds one user's dataset registry to its map scene, the
// capability fetcher and the download wizards. All actions on a session are
// serialized; capability fetches run in the background and re-enter through
// the same lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/catalog"
	"github.com/joeblew999/kartlag/internal/describe"
	"github.com/joeblew999/kartlag/internal/download"
	"github.com/joeblew999/kartlag/internal/logger"
	"github.com/joeblew999/kartlag/internal/mapsurface"
	"github.com/joeblew999/kartlag/internal/messages"
	"github.com/joeblew999/kartlag/internal/reconciler"
	"github.com/joeblew999/kartlag/internal/registry"
)

// ErrUnknownDataset is returned by lookups of datasets the session does not
// track.
var ErrUnknownDataset = errors.New("unknown dataset")

// Catalog resolves catalog UUIDs to datasets.
type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Record, error)
}

// Config holds what sessions share. NewFetcher, when set, gives every
// session its own fetcher and takes precedence over Fetcher.
type Config struct {
	Printer    messages.Printer
	Fetcher    capability.Fetcher
	NewFetcher func() capability.Fetcher
	Describer  describe.Source
	Catalog    Catalog
	Bus        *EventBus
	Base       string
}

// Session is one user's map state.
type Session struct {
	ID string

	mu       sync.Mutex
	printer  messages.Printer
	reg      *registry.Registry
	rec      *reconciler.Reconciler
	scene    *mapsurface.Scene
	fetcher  capability.Fetcher
	catalog  Catalog
	describe *describe.Cache
	bus      *EventBus
	wizards  map[registry.ID]*download.Wizard
	pending  map[registry.ID]string
	fetching map[registry.ID]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session with an empty registry and a scene showing
// cfg.Base.
func New(id string, cfg Config) *Session {
	base := cfg.Base
	if base == "" {
		base = mapsurface.DefaultBase
	}
	scene := mapsurface.NewScene(base)
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := cfg.Fetcher
	if cfg.NewFetcher != nil {
		fetcher = cfg.NewFetcher()
	}

	s := &Session{
		ID:       id,
		printer:  cfg.Printer,
		reg:      registry.New(cfg.Printer),
		rec:      reconciler.New(scene),
		scene:    scene,
		fetcher:  fetcher,
		catalog:  cfg.Catalog,
		describe: describe.NewCache(cfg.Describer),
		bus:      cfg.Bus,
		wizards:  make(map[registry.ID]*download.Wizard),
		pending:  make(map[registry.ID]string),
		fetching: make(map[registry.ID]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.reg.OnChange(func(snap []registry.Selection) {
		s.rec.Reconcile(snap)
		s.publish("map", "updated", "")
	})
	return s
}

func (s *Session) publish(resource, action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Session: s.ID, Resource: resource, Action: action, ID: id})
	}
}

// AddDataset starts tracking a dataset. When its descriptor carries no
// layers they are fetched in the background; a requested SelectLayer is
// then applied once they arrive.
func (s *Session) AddDataset(req registry.AddRequest) (registry.ID, registry.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, v := s.reg.Add(req)
	if !v.Accepted {
		return "", v
	}
	d, _ := s.reg.Get(id)
	if len(d.Layers) == 0 && s.fetcher != nil {
		if req.SelectLayer != "" {
			s.pending[id] = req.SelectLayer
		}
		s.startFetch(id, d.RawServiceURL)
	}
	s.publish("datasets", "created", string(id))
	return id, v
}

// AddFromCatalog adds the catalog dataset with UUID catalogID.
func (s *Session) AddFromCatalog(ctx context.Context, catalogID, selectLayer string) (registry.ID, registry.Verdict, error) {
	if s.catalog == nil {
		return "", registry.Verdict{}, catalog.ErrNotFound
	}
	e, err := s.catalog.Get(ctx, catalogID)
	if err != nil {
		return "", registry.Verdict{}, err
	}
	id, v := s.AddDataset(registry.AddRequest{
		Service:         e.Service,
		Title:           e.Title,
		CatalogID:       e.UUID,
		SelectLayer:     selectLayer,
		DownloadFormats: e.DownloadFormats,
		DownloadURL:     e.DownloadURL,
	})
	return id, v, nil
}

// startFetch launches a background capability fetch. Callers hold s.mu.
func (s *Session) startFetch(id registry.ID, serviceURL string) {
	s.fetching[id] = true
	s.wg.Add(1)
	go s.fetchLayers(id, serviceURL)
}

func (s *Session) fetchLayers(id registry.ID, serviceURL string) {
	defer s.wg.Done()

	layers, err := s.fetcher.Layers(s.ctx, serviceURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fetching, id)
	if err != nil {
		// The pending selection is kept for a retry.
		logger.Warn("fetching layers for %s: %v", id, err)
		return
	}
	layer := s.pending[id]
	delete(s.pending, id)
	if !s.reg.SetLayers(id, layers) {
		return
	}
	if layer != "" {
		if v := s.reg.Toggle(id, layer, true); !v.Accepted {
			logger.Info("not selecting %s:%s: %s", id, layer, v.Message)
		}
	}
	s.publish("datasets", "updated", string(id))
}

// RefreshLayers retries the capability fetch of a dataset whose layer list
// is empty, typically after a failed fetch. It reports whether a fetch was
// started; nothing happens while one is in flight or once layers are known.
func (s *Session) RefreshLayers(id registry.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.reg.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	if len(d.Layers) > 0 || s.fetching[id] || s.fetcher == nil || s.ctx.Err() != nil {
		return false, nil
	}
	s.startFetch(id, d.RawServiceURL)
	return true, nil
}

// Toggle selects or deselects a layer.
func (s *Session) Toggle(id registry.ID, layer string, selected bool) registry.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.reg.Toggle(id, layer, selected)
	if v.Accepted {
		s.publish("datasets", "updated", string(id))
	}
	return v
}

// Remove stops tracking a dataset and forgets its download wizard.
func (s *Session) Remove(id registry.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reg.Remove(id) {
		return false
	}
	delete(s.wizards, id)
	delete(s.pending, id)
	delete(s.fetching, id)
	s.publish("datasets", "deleted", string(id))
	return true
}

// Datasets lists tracked datasets in the order they were added.
func (s *Session) Datasets() []registry.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.List()
}

// Dataset returns one tracked dataset.
func (s *Session) Dataset(id registry.ID) (registry.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.reg.Get(id)
	if !ok {
		return registry.Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	return d, nil
}

// CheckDuplicate runs the layer duplicate check without changing anything.
// A nil ids checks against the session's own selections.
func (s *Session) CheckDuplicate(candidate registry.Identity, owner registry.ID, ids []string) registry.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate.ServiceURL = capability.BaseURL(candidate.ServiceURL)
	return s.reg.CheckDuplicate(candidate, owner, ids)
}

// Map returns the rendered scene.
func (s *Session) Map() mapsurface.View {
	return s.scene.View()
}

// Handles returns the reconciler's overlay handles from bottom to top.
func (s *Session) Handles() []reconciler.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Handles()
}

// SwapBase changes the base layer, keeping overlays above it.
func (s *Session) SwapBase(name string) mapsurface.View {
	s.mu.Lock()
	s.rec.SwapBase(name)
	s.mu.Unlock()

	s.publish("map", "updated", "")
	return s.scene.View()
}

// TileURL returns the GetMap request for tile t of overlay handle.
func (s *Session) TileURL(handle string, t maptile.Tile) (string, bool) {
	o, ok := s.scene.Overlay(handle)
	if !ok {
		return "", false
	}
	return mapsurface.GetMapURL(o, t), true
}

// wizard returns the download wizard of a dataset, creating it on first
// use. Callers hold s.mu.
func (s *Session) wizard(id registry.ID) (*download.Wizard, registry.Dataset, error) {
	d, ok := s.reg.Get(id)
	if !ok {
		return nil, registry.Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	w, ok := s.wizards[id]
	if !ok {
		w = download.NewWizard(d.DownloadFormats)
		s.wizards[id] = w
	}
	return w, d, nil
}

// Download returns the download plan of a dataset and, for the wizard
// path, the wizard's current state.
func (s *Session) Download(id registry.ID) (download.Plan, download.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, d, err := s.wizard(id)
	if err != nil {
		return download.Plan{}, download.State{}, err
	}
	return download.PlanFor(d.DownloadFormats, d.DownloadURL, s.printer), w.State(), nil
}

// Projections lists the projections offered for area.
func (s *Session) Projections(id registry.ID, area string) ([]download.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	return download.Projections(d.DownloadFormats, area), nil
}

// Formats lists the formats offered for area and projection.
func (s *Session) Formats(id registry.ID, area, projection string) ([]download.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	return download.Formats(d.DownloadFormats, area, projection), nil
}

// SelectDownload applies a wizard selection. Area is applied first so that
// choices no longer valid for it are cleared; empty projection or format
// fields leave the wizard's current choice in place.
func (s *Session) SelectDownload(id registry.ID, sel download.Selection) (download.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, _, err := s.wizard(id)
	if err != nil {
		return download.State{}, err
	}
	state := w.SelectArea(sel.Area)
	if sel.Projection != "" {
		state = w.SelectProjection(sel.Projection)
	}
	if sel.Format != "" {
		state = w.SelectFormat(sel.Format)
	}
	s.publish("download", "updated", string(id))
	return state, nil
}

// Describe returns the catalog description of a dataset. Datasets added
// without a catalog UUID have none.
func (s *Session) Describe(ctx context.Context, id registry.ID) (string, error) {
	d, err := s.Dataset(id)
	if err != nil {
		return "", err
	}
	if d.CatalogID == "" {
		return "", nil
	}
	return s.describe.Get(ctx, d.CatalogID)
}

// Wait blocks until background capability fetches have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels background fetches and waits for them.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}
