// Package registry tracks the datasets shown on the map and which of their
// layers are selected, refusing selections that would render the same
// service layer twice.
package registry

import (
	"github.com/google/uuid"

	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/download"
)

// Dataset is a read-only view of a tracked dataset.
type Dataset struct {
	ID              ID                 `json:"id" doc:"Session-local dataset id" example:"d1"`
	Title           string             `json:"title" doc:"Display title" example:"Kommuner"`
	ServiceURL      string             `json:"serviceUrl" doc:"Service endpoint without query string"`
	RawServiceURL   string             `json:"rawServiceUrl" doc:"Service endpoint as supplied"`
	CatalogID       string             `json:"catalogId,omitempty" doc:"Catalog UUID when known"`
	Layers          []capability.Layer `json:"availableLayers" doc:"Layers the service exposes"`
	Selected        []string           `json:"selectedLayers" doc:"Selected layer names, oldest first"`
	DownloadFormats []download.Entry   `json:"downloadFormats,omitempty" doc:"Raw download options"`
	DownloadURL     string             `json:"downloadUrl,omitempty" doc:"Direct download URL"`
}

// IsSelected reports whether layer is selected.
func (d Dataset) IsSelected(layer string) bool {
	for _, s := range d.Selected {
		if s == layer {
			return true
		}
	}
	return false
}

// dataset is the mutable record behind a Dataset view. selected maps layer
// names to the registry-wide sequence number of their selection.
type dataset struct {
	id            ID
	title         string
	serviceURL    string
	rawServiceURL string
	catalogID     uuid.UUID
	layers        []capability.Layer
	selected      map[string]uint64
	downloads     []download.Entry
	downloadURL   string
}

func (d *dataset) hasLayer(name string) bool {
	for _, l := range d.layers {
		if l.Name == name {
			return true
		}
	}
	return false
}

func (d *dataset) view() Dataset {
	v := Dataset{
		ID:              d.id,
		Title:           d.title,
		ServiceURL:      d.serviceURL,
		RawServiceURL:   d.rawServiceURL,
		Layers:          append([]capability.Layer{}, d.layers...),
		Selected:        d.selectedOrder(),
		DownloadFormats: append([]download.Entry(nil), d.downloads...),
		DownloadURL:     d.downloadURL,
	}
	if d.catalogID != uuid.Nil {
		v.CatalogID = d.catalogID.String()
	}
	return v
}

func (d *dataset) selectedOrder() []string {
	names := make([]string, 0, len(d.selected))
	for name := range d.selected {
		names = append(names, name)
	}
	sortBySeq(names, d.selected)
	return names
}
