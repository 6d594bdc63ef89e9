// Package catalog is the local dataset catalog: datasets known up front
// with their service descriptor, description and download options, kept in
// DuckDB and searchable by title.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/kartlag/internal/download"
)

// Record is one catalog dataset.
type Record struct {
	UUID            string           `json:"uuid" doc:"Catalog UUID" format:"uuid"`
	Title           string           `json:"title" doc:"Dataset title" example:"Kommuner"`
	Description     string           `json:"description,omitempty" doc:"Dataset description"`
	Service         any              `json:"service,omitempty" doc:"WMS descriptor: URL, JSON string or object"`
	DownloadURL     string           `json:"downloadUrl,omitempty" doc:"Direct download URL"`
	DownloadFormats []download.Entry `json:"downloadFormats,omitempty" doc:"Download options"`
}

type fileDoc struct {
	Datasets []map[string]any `yaml:"datasets"`
}

// ParseFile parses a YAML catalog document:
//
//	datasets:
//	  - uuid: 041f1e6e-bdbc-4091-b48f-8a5990f3cc5b
//	    title: Kommuner
//	    service: https://wms.example/kommuner
//	    downloadFormats: [...]
func ParseFile(data []byte) ([]Record, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	entries := make([]Record, 0, len(doc.Datasets))
	for i, m := range doc.Datasets {
		id, err := uuid.Parse(str(m["uuid"]))
		if err != nil {
			return nil, fmt.Errorf("catalog dataset %d: invalid uuid %q: %w", i, str(m["uuid"]), err)
		}
		entries = append(entries, Record{
			UUID:            id.String(),
			Title:           str(m["title"]),
			Description:     strings.TrimSpace(str(m["description"])),
			Service:         m["service"],
			DownloadURL:     str(m["downloadUrl"]),
			DownloadFormats: download.FromAny(m["downloadFormats"]),
		})
	}
	return entries, nil
}

// LoadFile reads and parses a YAML catalog file.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseFile(data)
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
