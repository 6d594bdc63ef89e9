// Package capability turns the different shapes in which a WMS endpoint is
// described (bare URL, JSON-encoded string, decoded object) into one
// canonical record, and fetches layer lists for endpoints that arrive
// without one.
package capability

import (
	"encoding/json"
	"strings"
)

// Layer is a named layer exposed by a WMS service.
type Layer struct {
	Name  string `json:"name" doc:"WMS layer name" example:"grense"`
	Title string `json:"title" doc:"Human-readable layer title" example:"Grense"`
}

// UnmarshalJSON accepts either {"name","title"} or a bare layer name.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*l = Layer{Name: name}
		return nil
	}
	var raw struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Layer{Name: raw.Name, Title: raw.Title}
	return nil
}

// Capability is the canonical description of a map service.
type Capability struct {
	ServiceURL string  `json:"serviceUrl" doc:"Service endpoint as supplied" example:"https://wms.example/kommuner"`
	Layers     []Layer `json:"layers" doc:"Known layers; empty until fetched"`
}

// Kind tags which input shape a descriptor was given in.
type Kind int

const (
	KindURL Kind = iota
	KindJSON
	KindObject
)

// descriptor is the union of fields producers use for the same concept.
type descriptor struct {
	ServiceURL string            `json:"serviceUrl"`
	URL        string            `json:"url"`
	WMSURL     string            `json:"wmsUrl"`
	WMSURLAlt  string            `json:"wms_url"`
	Layers     []json.RawMessage `json:"layers"`
}

func (d descriptor) capability() Capability {
	u := d.ServiceURL
	for _, alt := range []string{d.URL, d.WMSURL, d.WMSURLAlt} {
		if u == "" {
			u = alt
		}
	}
	layers := make([]Layer, 0, len(d.Layers))
	for _, raw := range d.Layers {
		var l Layer
		if err := json.Unmarshal(raw, &l); err != nil {
			continue
		}
		layers = append(layers, l)
	}
	return Capability{ServiceURL: strings.TrimSpace(u), Layers: cleanLayers(layers)}
}

// Classify reports the shape of v.
func Classify(v any) Kind {
	switch x := v.(type) {
	case string:
		if strings.HasPrefix(strings.TrimSpace(x), "{") {
			return KindJSON
		}
		return KindURL
	case []byte:
		return Classify(string(x))
	case json.RawMessage:
		var s string
		if json.Unmarshal(x, &s) == nil {
			return Classify(s)
		}
		return KindJSON
	default:
		return KindObject
	}
}

// Normalize converts any supported descriptor into a Capability. It never
// fails: input that cannot be decoded is treated as a bare URL, and
// unsupported values yield an empty Capability.
func Normalize(v any) Capability {
	switch x := v.(type) {
	case nil:
		return Capability{Layers: []Layer{}}
	case Capability:
		return Capability{ServiceURL: strings.TrimSpace(x.ServiceURL), Layers: cleanLayers(x.Layers)}
	case *Capability:
		if x == nil {
			return Capability{Layers: []Layer{}}
		}
		return Normalize(*x)
	case string:
		return fromString(x)
	case []byte:
		return fromString(string(x))
	case json.RawMessage:
		var s string
		if json.Unmarshal(x, &s) == nil {
			return fromString(s)
		}
		return fromString(string(x))
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Capability{Layers: []Layer{}}
	}
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Capability{Layers: []Layer{}}
	}
	return d.capability()
}

func fromString(s string) Capability {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var d descriptor
		if err := json.Unmarshal([]byte(s), &d); err == nil {
			return d.capability()
		}
	}
	return Capability{ServiceURL: s, Layers: []Layer{}}
}

// cleanLayers drops unnamed and repeated layers and defaults titles to names.
func cleanLayers(in []Layer) []Layer {
	out := make([]Layer, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, l := range in {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		if _, ok := seen[l.Name]; ok {
			continue
		}
		seen[l.Name] = struct{}{}
		if strings.TrimSpace(l.Title) == "" {
			l.Title = l.Name
		}
		out = append(out, l)
	}
	return out
}
