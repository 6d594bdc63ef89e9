package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/download"
	"github.com/joeblew999/kartlag/internal/logger"
	"github.com/joeblew999/kartlag/internal/messages"
)

// Selection is one selected layer in a registry snapshot.
type Selection struct {
	Key        LayerKey
	ServiceURL string
	Seq        uint64
}

// Verdict is the outcome of a registry action. A rejection is a normal
// result carrying a user-facing message, not an error.
type Verdict struct {
	Accepted bool      `json:"accepted" doc:"Whether the action was applied"`
	Message  string    `json:"message,omitempty" doc:"User-facing explanation"`
	Conflict *Conflict `json:"conflict,omitempty" doc:"Dataset already covering the layer"`
}

// AddRequest describes a dataset to track.
type AddRequest struct {
	// Service is any capability descriptor accepted by capability.Normalize.
	Service         any
	Title           string
	CatalogID       string
	SelectLayer     string
	DownloadFormats []download.Entry
	DownloadURL     string
}

// Registry is an ordered collection of tracked datasets. It is not safe for
// concurrent use; callers serialize actions.
type Registry struct {
	datasets []*dataset
	nextID   int
	seq      uint64
	printer  messages.Printer
	onChange func([]Selection)
}

// New creates an empty registry producing messages with p.
func New(p messages.Printer) *Registry {
	return &Registry{printer: p}
}

// OnChange registers fn to receive the selection snapshot after every
// accepted mutation. It replaces any earlier observer.
func (r *Registry) OnChange(fn func([]Selection)) {
	r.onChange = fn
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange(r.Snapshot())
	}
}

func (r *Registry) find(id ID) (*dataset, int) {
	for i, d := range r.datasets {
		if d.id == id {
			return d, i
		}
	}
	return nil, -1
}

func (r *Registry) reject(key string, args ...any) Verdict {
	return Verdict{Message: r.printer.Sprintf(key, args...)}
}

func (r *Registry) duplicateVerdict(c Conflict, layer string) Verdict {
	v := r.reject(messages.DuplicateLayer, layer, c.Title)
	v.Conflict = &c
	return v
}

// Add starts tracking a dataset. When req.SelectLayer is set that layer is
// checked for duplicates first and selected on success (immediately if the
// layer list is known, otherwise by the caller once it arrives).
func (r *Registry) Add(req AddRequest) (ID, Verdict) {
	c := capability.Normalize(req.Service)
	if c.ServiceURL == "" {
		return "", r.reject(messages.MissingService)
	}

	var catalogID uuid.UUID
	if req.CatalogID != "" {
		parsed, err := uuid.Parse(req.CatalogID)
		if err != nil {
			logger.Debug("ignoring malformed catalog id %q: %v", req.CatalogID, err)
		} else {
			catalogID = parsed
		}
	}
	if catalogID != uuid.Nil {
		for _, d := range r.datasets {
			if d.catalogID == catalogID {
				v := r.reject(messages.DatasetAdded, d.title)
				v.Conflict = &Conflict{Dataset: d.id, Title: d.title}
				return "", v
			}
		}
	}

	base := capability.BaseURL(c.ServiceURL)
	if req.SelectLayer != "" {
		if conflict, dup := FindDuplicate(Identity{ServiceURL: base, Layer: req.SelectLayer}, "", r.Active()); dup {
			return "", r.duplicateVerdict(conflict, req.SelectLayer)
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = r.printer.Sprintf(messages.Untitled)
	}

	r.nextID++
	d := &dataset{
		id:            ID(fmt.Sprintf("d%d", r.nextID)),
		title:         title,
		serviceURL:    base,
		rawServiceURL: c.ServiceURL,
		catalogID:     catalogID,
		layers:        c.Layers,
		selected:      make(map[string]uint64),
		downloads:     req.DownloadFormats,
		downloadURL:   req.DownloadURL,
	}
	r.datasets = append(r.datasets, d)

	verdict := Verdict{Accepted: true}
	if req.SelectLayer != "" && len(d.layers) > 0 {
		if d.hasLayer(req.SelectLayer) {
			r.seq++
			d.selected[req.SelectLayer] = r.seq
		} else {
			verdict.Message = r.printer.Sprintf(messages.LayerUnavailable, req.SelectLayer)
		}
	}
	r.notify()
	return d.id, verdict
}

// Toggle selects or deselects one layer of a dataset. Deselecting is always
// accepted; selecting is refused when the layer is unknown to the dataset
// or already shown by another dataset.
func (r *Registry) Toggle(id ID, layer string, selected bool) Verdict {
	d, _ := r.find(id)
	if d == nil {
		logger.Warn("toggle %q on unknown dataset %q", layer, id)
		return r.reject(messages.UnknownDataset, string(id))
	}

	if !selected {
		if _, ok := d.selected[layer]; ok {
			delete(d.selected, layer)
			r.notify()
		}
		return Verdict{Accepted: true}
	}

	if _, ok := d.selected[layer]; ok {
		return Verdict{Accepted: true}
	}
	if !d.hasLayer(layer) {
		return r.reject(messages.LayerUnavailable, layer)
	}
	if conflict, dup := FindDuplicate(Identity{ServiceURL: d.serviceURL, Layer: layer}, id, r.Active()); dup {
		return r.duplicateVerdict(conflict, layer)
	}

	r.seq++
	d.selected[layer] = r.seq
	r.notify()
	return Verdict{Accepted: true}
}

// Remove stops tracking a dataset. Observers get one snapshot without its
// selections.
func (r *Registry) Remove(id ID) bool {
	d, i := r.find(id)
	if d == nil {
		logger.Warn("remove of unknown dataset %q", id)
		return false
	}

	r.datasets = append(r.datasets[:i], r.datasets[i+1:]...)
	r.notify()
	return true
}

// SetLayers replaces the layer list of a dataset, typically when a
// capability fetch completes. Selections no longer offered are dropped. It
// returns false when the dataset is no longer tracked.
func (r *Registry) SetLayers(id ID, layers []capability.Layer) bool {
	d, _ := r.find(id)
	if d == nil {
		logger.Debug("dropping layers for removed dataset %q", id)
		return false
	}

	d.layers = capability.Normalize(capability.Capability{ServiceURL: d.rawServiceURL, Layers: layers}).Layers
	pruned := false
	for name := range d.selected {
		if !d.hasLayer(name) {
			delete(d.selected, name)
			pruned = true
		}
	}
	if pruned {
		r.notify()
	}
	return true
}

// Get returns a view of one dataset.
func (r *Registry) Get(id ID) (Dataset, bool) {
	d, _ := r.find(id)
	if d == nil {
		return Dataset{}, false
	}
	return d.view(), true
}

// List returns views of all datasets in the order they were added.
func (r *Registry) List() []Dataset {
	out := make([]Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		out = append(out, d.view())
	}
	return out
}

// Lookup resolves a dataset id for ParseActive.
func (r *Registry) Lookup(id ID) (serviceURL, title string, ok bool) {
	d, _ := r.find(id)
	if d == nil {
		return "", "", false
	}
	return d.serviceURL, d.title, true
}

// Active returns every selected layer, oldest selection first.
func (r *Registry) Active() []ActiveLayer {
	snap := r.Snapshot()
	active := make([]ActiveLayer, 0, len(snap))
	for _, s := range snap {
		_, title, _ := r.Lookup(s.Key.Dataset)
		active = append(active, ActiveLayer{Key: s.Key, ServiceURL: s.ServiceURL, Title: title})
	}
	return active
}

// Snapshot returns every selected layer, oldest selection first.
func (r *Registry) Snapshot() []Selection {
	var snap []Selection
	for _, d := range r.datasets {
		for name, seq := range d.selected {
			snap = append(snap, Selection{
				Key:        LayerKey{Dataset: d.id, Layer: name},
				ServiceURL: d.serviceURL,
				Seq:        seq,
			})
		}
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].Seq < snap[j].Seq })
	return snap
}

// CheckDuplicate runs the duplicate check for candidate on behalf of owner.
// With ids == nil the registry's own selections are used; otherwise ids are
// parsed as "<dataset>:<layer>" identifiers.
func (r *Registry) CheckDuplicate(candidate Identity, owner ID, ids []string) Verdict {
	var (
		conflict Conflict
		dup      bool
	)
	if ids == nil {
		conflict, dup = FindDuplicate(candidate, owner, r.Active())
	} else {
		conflict, dup = DetectInIdentifiers(candidate, owner, ids, r.Lookup)
	}
	if dup {
		return r.duplicateVerdict(conflict, candidate.Layer)
	}
	return Verdict{Accepted: true}
}

func sortBySeq(names []string, seqs map[string]uint64) {
	sort.Slice(names, func(i, j int) bool { return seqs[names[i]] < seqs[names[j]] })
}
