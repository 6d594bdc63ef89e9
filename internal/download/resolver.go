package download

import (
	"sort"
	"strings"
)

// Names and types that mark the nationwide area.
const (
	NationwideName = "Hele landet"
	NationwideType = "landsdekkende"
)

// Area is a deduplicated geographic area option.
type Area struct {
	Code string `json:"code" doc:"Area code" example:"0301"`
	Name string `json:"name" doc:"Area name" example:"Oslo"`
	Type string `json:"type" doc:"Area type" example:"kommune"`
}

// Nationwide reports whether the area covers the whole country.
func (a Area) Nationwide() bool {
	return strings.EqualFold(a.Type, NationwideType) || strings.EqualFold(a.Name, NationwideName)
}

// UniqueAreas returns the areas of entries deduplicated by code. Nationwide
// areas come first; otherwise the order of first appearance is kept.
func UniqueAreas(entries []Entry) []Area {
	areas := make([]Area, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.AreaCode == "" {
			continue
		}
		if _, ok := seen[e.AreaCode]; ok {
			continue
		}
		seen[e.AreaCode] = struct{}{}
		areas = append(areas, Area{Code: e.AreaCode, Name: first(e.AreaName, e.AreaCode), Type: e.AreaType})
	}
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Nationwide() && !areas[j].Nationwide()
	})
	return areas
}

// ProjectionsAndFormatsForArea flattens the projections (deduplicated by
// code) and formats (deduplicated by name) of every entry for areaCode.
// An unknown area yields empty sets.
func ProjectionsAndFormatsForArea(entries []Entry, areaCode string) ([]Projection, []Format) {
	projections := []Projection{}
	formats := []Format{}
	seenProj := map[string]struct{}{}
	seenFmt := map[string]struct{}{}

	for _, e := range entries {
		if e.AreaCode != areaCode || areaCode == "" {
			continue
		}
		for _, p := range e.Projections {
			if _, ok := seenProj[p.Code]; ok || p.Code == "" {
				continue
			}
			seenProj[p.Code] = struct{}{}
			projections = append(projections, p)
		}
		for _, f := range e.Formats {
			if _, ok := seenFmt[f.Name]; ok || f.Name == "" {
				continue
			}
			seenFmt[f.Name] = struct{}{}
			formats = append(formats, f)
		}
	}
	return projections, formats
}

// Projections returns the projections offered for areaCode.
func Projections(entries []Entry, areaCode string) []Projection {
	projections, _ := ProjectionsAndFormatsForArea(entries, areaCode)
	return projections
}

// Formats returns the formats offered for areaCode in projectionCode. With an
// empty projectionCode every format for the area is returned.
func Formats(entries []Entry, areaCode, projectionCode string) []Format {
	if projectionCode == "" {
		_, formats := ProjectionsAndFormatsForArea(entries, areaCode)
		return formats
	}

	var matching []Entry
	for _, e := range entries {
		if e.AreaCode != areaCode {
			continue
		}
		for _, p := range e.Projections {
			if p.Code == projectionCode {
				matching = append(matching, e)
				break
			}
		}
	}
	_, formats := ProjectionsAndFormatsForArea(matching, areaCode)
	return formats
}
