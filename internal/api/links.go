package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/humastar"
	"github.com/joeblew999/kartlag/internal/registry"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/catalog>; rel="catalog"`,
		`</api/v1/sessions>; rel="sessions"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/catalog>; rel="catalog"`,
	},
	"/api/v1/catalog/{uuid}": {
		`</api/v1/catalog>; rel="collection"`,
	},
}

// sessionLinks are relative to a session resource.
var sessionLinks = map[string][]string{
	"/api/v1/sessions/{sid}/datasets": {
		`<%s/map>; rel="map"`,
		`<%s/events>; rel="events"`,
	},
	"/api/v1/sessions/{sid}/datasets/{id}": {
		`<%s/datasets>; rel="collection"`,
	},
	"/api/v1/sessions/{sid}/map": {
		`<%s/datasets>; rel="datasets"`,
		`<%s/events>; rel="events"`,
	},
}

// datasetActions are relative to a session resource; %%s is the dataset ID.
var datasetActions = []humastar.ActionDef{
	{Rel: "remove", Pattern: "%s/datasets/%%s", Method: "DELETE", Title: "Remove dataset"},
	{Rel: "download", Pattern: "%s/datasets/%%s/download", Method: "GET", Title: "Download options"},
	{Rel: "describedby", Pattern: "%s/datasets/%%s/description", Method: "GET", Title: "Description"},
}

// actionsFor returns the Link header values of the actions available on d.
// Each layer gets a toggle action for its opposite state.
func actionsFor(base string, d registry.Dataset) []string {
	defs := make([]humastar.ActionDef, 0, len(datasetActions)+len(d.Layers))
	for _, def := range datasetActions {
		def.Pattern = fmt.Sprintf(def.Pattern, base)
		defs = append(defs, def)
	}
	for _, l := range d.Layers {
		title := "Show " + l.Title
		if d.IsSelected(l.Name) {
			title = "Hide " + l.Title
		}
		defs = append(defs, humastar.ActionDef{
			Rel:     "toggle",
			Pattern: base + "/datasets/%s/layers/" + strings.ReplaceAll(url.PathEscape(l.Name), "%", "%%"),
			Method:  "PUT",
			Title:   title,
		})
	}

	out := make([]string, 0, len(defs))
	for _, a := range humastar.ActionsFor(string(d.ID), defs) {
		out = append(out, a.LinkHeader())
	}
	return out
}

// pageQuery returns the query of u without paging parameters, ready to
// prefix offset and limit.
func pageQuery(u url.URL) string {
	q := u.Query()
	q.Del("offset")
	q.Del("limit")
	if len(q) == 0 {
		return ""
	}
	return q.Encode() + "&"
}

// sessionBase returns the "/api/v1/sessions/<sid>" prefix of path.
func sessionBase(path string) string {
	const prefix = "/api/v1/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	sid, _, _ := strings.Cut(strings.TrimPrefix(path, prefix), "/")
	return prefix + sid
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		if base := sessionBase(ctx.URL().Path); base != "" {
			for _, link := range sessionLinks[op.Path] {
				ctx.AppendHeader("Link", fmt.Sprintf(link, base))
			}
			if d, ok := v.(registry.Dataset); ok {
				for _, link := range actionsFor(base, d) {
					ctx.AppendHeader("Link", link)
				}
			}
		}
		if p, ok := v.(humastar.Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path, pageQuery(ctx.URL())) {
				ctx.AppendHeader("Link", link)
			}
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
