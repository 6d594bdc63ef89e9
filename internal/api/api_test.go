package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/kartlag/internal/download"
	"github.com/joeblew999/kartlag/internal/mapsurface"
	"github.com/joeblew999/kartlag/internal/messages"
	"github.com/joeblew999/kartlag/internal/registry"
	"github.com/joeblew999/kartlag/internal/session"
)

func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	cfg := huma.DefaultConfig("kartlag API", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)
	store := session.NewStore(session.Config{Printer: messages.For("en")})
	t.Cleanup(store.Close)
	huma.AutoRegister(api, NewAPIHandler(&Services{Sessions: store}))
	return api
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
}

func newSession(t *testing.T, api humatest.TestAPI) string {
	t.Helper()
	resp := api.Post("/api/v1/sessions")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", resp.Code, resp.Body.String())
	}
	var body SessionBody
	decode(t, resp.Body.Bytes(), &body)
	return "/api/v1/sessions/" + body.ID
}

var kommuner = map[string]any{
	"url":    "https://wms.example/kommuner?language=nor",
	"layers": []string{"grense"},
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", resp.Code, resp.Body.String())
	}
}

func TestUnknownSession(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/api/v1/sessions/8a4f3d2e-1111-4222-8333-944455556666/datasets")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestDuplicateLayerFlow(t *testing.T) {
	api := newTestAPI(t)
	base := newSession(t, api)

	var added AddDatasetResult
	resp := api.Post(base+"/datasets", map[string]any{"service": kommuner, "title": "Kommuner"})
	decode(t, resp.Body.Bytes(), &added)
	if !added.Verdict.Accepted || added.ID != "d1" {
		t.Fatalf("add: %s", resp.Body.String())
	}

	var v registry.Verdict
	resp = api.Put(base+"/datasets/d1/layers/grense", map[string]any{"selected": true})
	decode(t, resp.Body.Bytes(), &v)
	if !v.Accepted {
		t.Fatalf("toggle: %s", resp.Body.String())
	}

	resp = api.Post(base+"/datasets", map[string]any{"service": kommuner, "title": "Kommuner2"})
	decode(t, resp.Body.Bytes(), &added)
	if !added.Verdict.Accepted || added.ID != "d2" {
		t.Fatalf("second add: %s", resp.Body.String())
	}

	resp = api.Put(base+"/datasets/d2/layers/grense", map[string]any{"selected": true})
	v = registry.Verdict{}
	decode(t, resp.Body.Bytes(), &v)
	if v.Accepted || v.Conflict == nil || v.Conflict.Dataset != "d1" || !strings.Contains(v.Message, "Kommuner") {
		t.Fatalf("duplicate toggle: %s", resp.Body.String())
	}

	var view mapsurface.View
	resp = api.Get(base + "/map")
	decode(t, resp.Body.Bytes(), &view)
	if len(view.Overlays) != 1 || view.Overlays[0].ID != "d1:grense" {
		t.Fatalf("map: %s", resp.Body.String())
	}

	resp = api.Get(base + "/map/overlays/d1:grense/tiles/1/0/1")
	if resp.Code != http.StatusFound {
		t.Fatalf("tile: %d %s", resp.Code, resp.Body.String())
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil || loc.Query().Get("LAYERS") != "grense" || loc.Query().Get("BBOX") == "" {
		t.Fatalf("location = %q", resp.Header().Get("Location"))
	}

	if resp := api.Get(base + "/map/overlays/d1:grense/tiles/1/2/0"); resp.Code != http.StatusBadRequest {
		t.Fatalf("out of range tile: %d", resp.Code)
	}
	if resp := api.Get(base + "/map/overlays/d2:grense/tiles/0/0/0"); resp.Code != http.StatusNotFound {
		t.Fatalf("unrendered overlay: %d", resp.Code)
	}

	if resp := api.Delete(base + "/datasets/d1"); resp.Code != http.StatusOK {
		t.Fatalf("remove: %d", resp.Code)
	}
	view = mapsurface.View{}
	decode(t, api.Get(base+"/map").Body.Bytes(), &view)
	if len(view.Overlays) != 0 {
		t.Fatalf("overlays after remove: %+v", view.Overlays)
	}

	resp = api.Put(base+"/datasets/d2/layers/grense", map[string]any{"selected": true})
	v = registry.Verdict{}
	decode(t, resp.Body.Bytes(), &v)
	if !v.Accepted {
		t.Fatalf("toggle after owner removed: %s", resp.Body.String())
	}
}

func TestCheckDuplicate(t *testing.T) {
	api := newTestAPI(t)
	base := newSession(t, api)

	api.Post(base+"/datasets", map[string]any{"service": kommuner, "title": "Kommuner"})

	var v registry.Verdict
	resp := api.Post(base+"/duplicates", map[string]any{
		"serviceUrl": "https://wms.example/kommuner",
		"layer":      "grense",
		"active":     []string{"d1:grense", "garbage", "d9:grense"},
	})
	decode(t, resp.Body.Bytes(), &v)
	if v.Accepted || v.Conflict == nil || v.Conflict.Dataset != "d1" {
		t.Fatalf("check: %s", resp.Body.String())
	}

	v = registry.Verdict{}
	resp = api.Post(base+"/duplicates", map[string]any{
		"serviceUrl": "https://wms.example/kommuner",
		"layer":      "grense",
		"owner":      "d1",
		"active":     []string{"d1:grense"},
	})
	decode(t, resp.Body.Bytes(), &v)
	if !v.Accepted {
		t.Fatalf("owner's own layer flagged: %s", resp.Body.String())
	}
}

func TestDownloadRoutes(t *testing.T) {
	api := newTestAPI(t)
	base := newSession(t, api)

	api.Post(base+"/datasets", map[string]any{
		"service":     "https://wms.example/plain",
		"downloadUrl": "https://example.org/plain.zip",
	})
	var dl DownloadBody
	decode(t, api.Get(base+"/datasets/d1/download").Body.Bytes(), &dl)
	if dl.Plan.Mode != download.ModeDirect || dl.Plan.URL != "https://example.org/plain.zip" {
		t.Fatalf("plan = %+v", dl.Plan)
	}

	api.Post(base+"/datasets", map[string]any{
		"service": "https://wms.example/arealdekke",
		"downloadFormats": []any{
			map[string]any{
				"area":        map[string]any{"code": "0000", "name": "Hele landet", "type": "landsdekkende"},
				"projections": []any{"25833", "4258"},
				"formats":     []any{"GML"},
			},
		},
	})
	dl = DownloadBody{}
	decode(t, api.Get(base+"/datasets/d2/download").Body.Bytes(), &dl)
	if dl.Plan.Mode != download.ModeWizard || dl.State.Selection.Area != "0000" {
		t.Fatalf("download = %+v", dl)
	}

	var projections []download.Projection
	decode(t, api.Get(base+"/datasets/d2/download/projections?area=0000").Body.Bytes(), &projections)
	if len(projections) != 2 {
		t.Fatalf("projections = %+v", projections)
	}

	var state download.State
	resp := api.Put(base+"/datasets/d2/download/selection", map[string]any{"area": "0000", "projection": "4258"})
	decode(t, resp.Body.Bytes(), &state)
	if !state.Complete || state.Selection.Format != "GML" {
		t.Fatalf("state = %s", resp.Body.String())
	}

	if resp := api.Get(base + "/datasets/d9/download"); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown dataset: %d", resp.Code)
	}
}

func TestCatalogWithoutStore(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/api/v1/catalog?q=kommune")
	var page CatalogPage
	decode(t, resp.Body.Bytes(), &page)
	if resp.Code != http.StatusOK || page.Total != 0 || page.Data == nil || page.Limit != 20 {
		t.Fatalf("search: %d %s", resp.Code, resp.Body.String())
	}
	if resp := api.Get("/api/v1/catalog/041f1e6e-bdbc-4091-b48f-8a5990f3cc5b"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("get: %d", resp.Code)
	}
}

func TestSessionBase(t *testing.T) {
	if got := sessionBase("/api/v1/sessions/abc/map"); got != "/api/v1/sessions/abc" {
		t.Errorf("sessionBase = %q", got)
	}
	if got := sessionBase("/health"); got != "" {
		t.Errorf("sessionBase = %q", got)
	}
}

func TestDatasetLinks(t *testing.T) {
	api := newTestAPI(t)
	base := newSession(t, api)
	api.Post(base+"/datasets", map[string]any{"service": kommuner, "title": "Kommuner", "selectLayer": "grense"})

	resp := api.Get(base + "/datasets/d1")
	links := strings.Join(resp.Header().Values("Link"), "\n")
	for _, want := range []string{
		`<` + base + `/datasets/d1/layers/grense>; rel="toggle"; method="PUT"; title="Hide grense"`,
		`<` + base + `/datasets/d1>; rel="remove"; method="DELETE"`,
		`<` + base + `/datasets>; rel="collection"`,
	} {
		if !strings.Contains(links, want) {
			t.Errorf("missing link %s in\n%s", want, links)
		}
	}
}

func TestRefreshLayers(t *testing.T) {
	api := newTestAPI(t)
	base := newSession(t, api)
	api.Post(base+"/datasets", map[string]any{"service": kommuner, "title": "Kommuner"})

	resp := api.Post(base + "/datasets/d1/layers:refresh")
	if resp.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", resp.Code, resp.Body.String())
	}
	var body RefreshBody
	decode(t, resp.Body.Bytes(), &body)
	if body.Started {
		t.Error("refresh started with layers already known")
	}

	if resp := api.Post(base + "/datasets/d9/layers:refresh"); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown dataset: %d", resp.Code)
	}
}
