package registry

import (
	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/logger"
)

// Identity is what makes two rendered layers the same picture: the service
// endpoint (compared without query string) and the exact layer name.
type Identity struct {
	ServiceURL string
	Layer      string
}

// ActiveLayer is a currently selected layer together with its owner's
// service URL and title.
type ActiveLayer struct {
	Key        LayerKey
	ServiceURL string
	Title      string
}

// Identity returns the rendering identity of the active layer.
func (a ActiveLayer) Identity() Identity {
	return Identity{ServiceURL: a.ServiceURL, Layer: a.Key.Layer}
}

// Conflict names the dataset that already shows a layer.
type Conflict struct {
	Dataset ID       `json:"dataset" doc:"Dataset already showing the layer"`
	Title   string   `json:"title" doc:"Title of that dataset"`
	Key     LayerKey `json:"-"`
}

// FindDuplicate reports whether candidate is already active under a dataset
// other than owner. Layers the owner itself has selected never conflict.
func FindDuplicate(candidate Identity, owner ID, active []ActiveLayer) (Conflict, bool) {
	base := capability.BaseURL(candidate.ServiceURL)
	for _, a := range active {
		if a.Key.Dataset == owner {
			continue
		}
		if a.Key.Layer != candidate.Layer {
			continue
		}
		if capability.BaseURL(a.ServiceURL) == base {
			return Conflict{Dataset: a.Key.Dataset, Title: a.Title, Key: a.Key}, true
		}
	}
	return Conflict{}, false
}

// LookupFunc resolves a dataset id to its service URL and title.
type LookupFunc func(ID) (serviceURL, title string, ok bool)

// ParseActive turns raw "<dataset>:<layer>" identifiers into active layers.
// Identifiers that do not parse, or whose dataset is unknown, are skipped.
func ParseActive(ids []string, lookup LookupFunc) []ActiveLayer {
	active := make([]ActiveLayer, 0, len(ids))
	for _, raw := range ids {
		key, ok := ParseLayerKey(raw)
		if !ok {
			logger.Debug("skipping malformed layer identifier %q", raw)
			continue
		}
		serviceURL, title, ok := lookup(key.Dataset)
		if !ok {
			logger.Debug("skipping layer identifier %q: unknown dataset", raw)
			continue
		}
		active = append(active, ActiveLayer{Key: key, ServiceURL: serviceURL, Title: title})
	}
	return active
}

// DetectInIdentifiers is FindDuplicate over raw identifiers.
func DetectInIdentifiers(candidate Identity, owner ID, ids []string, lookup LookupFunc) (Conflict, bool) {
	return FindDuplicate(candidate, owner, ParseActive(ids, lookup))
}
