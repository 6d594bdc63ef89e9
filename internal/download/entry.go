// Package download resolves the cascading area → projection → format choice
// for dataset downloads out of the raw option lists catalog services return.
package download

import (
	"encoding/json"
	"strings"
)

// Projection is a coordinate system a download is offered in.
type Projection struct {
	Code string `json:"code" doc:"EPSG code" example:"25833"`
	Name string `json:"name" doc:"Display name" example:"EUREF89 UTM sone 33"`
}

// Format is a file format a download is offered in.
type Format struct {
	Name string `json:"name" doc:"Format name" example:"GML"`
}

// Entry is one raw download option: an area with the projections and formats
// offered for it.
type Entry struct {
	AreaCode    string       `json:"areaCode"`
	AreaName    string       `json:"areaName"`
	AreaType    string       `json:"areaType"`
	Projections []Projection `json:"projections"`
	Formats     []Format     `json:"formats"`
}

type rawArea struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawEntry struct {
	Area        *rawArea          `json:"area"`
	AreaCode    string            `json:"areaCode"`
	AreaName    string            `json:"areaName"`
	AreaType    string            `json:"areaType"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Projections []json.RawMessage `json:"projections"`
	Formats     []json.RawMessage `json:"formats"`
}

// UnmarshalJSON accepts the flat shape as well as a nested "area" object,
// and projections/formats given either as objects or as bare strings.
// Elements that match neither are dropped.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Entry{
		AreaCode: first(raw.AreaCode, raw.Code),
		AreaName: first(raw.AreaName, raw.Name),
		AreaType: first(raw.AreaType, raw.Type),
	}
	if raw.Area != nil {
		out.AreaCode = first(raw.Area.Code, out.AreaCode)
		out.AreaName = first(raw.Area.Name, out.AreaName)
		out.AreaType = first(raw.Area.Type, out.AreaType)
	}

	for _, p := range raw.Projections {
		var code string
		if json.Unmarshal(p, &code) == nil {
			out.Projections = append(out.Projections, Projection{Code: code, Name: code})
			continue
		}
		var proj struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if json.Unmarshal(p, &proj) == nil && proj.Code != "" {
			out.Projections = append(out.Projections, Projection{Code: proj.Code, Name: first(proj.Name, proj.Code)})
		}
	}

	for _, f := range raw.Formats {
		var name string
		if json.Unmarshal(f, &name) == nil {
			out.Formats = append(out.Formats, Format{Name: name})
			continue
		}
		var format struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(f, &format) == nil && format.Name != "" {
			out.Formats = append(out.Formats, Format{Name: format.Name})
		}
	}

	*e = out
	return nil
}

// DecodeEntries decodes a raw option list, skipping entries that are not
// objects. A nil or malformed list yields no entries.
func DecodeEntries(data []byte) []Entry {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// FromAny decodes entries from an already-decoded value such as a YAML or
// JSON document fragment.
func FromAny(v any) []Entry {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return DecodeEntries(data)
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
