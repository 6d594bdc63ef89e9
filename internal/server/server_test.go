package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const catalogYAML = `
datasets:
  - uuid: 041f1e6e-bdbc-4091-b48f-8a5990f3cc5b
    title: Kommuner
    description: Kommunegrenser for hele landet.
    service:
      url: https://wms.example/kommuner
      layers: [grense]
`

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{Host: "localhost", Port: "8087", Catalog: path, Lang: "en"})
	t.Cleanup(func() { s.Close() })

	if s.OpenAPI().Paths["/api/v1/sessions/{sid}/datasets"] == nil {
		t.Fatal("dataset routes not registered")
	}

	do := func(method, target string, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec := do(http.MethodGet, "/api/v1/catalog?q=kommune", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Kommuner") {
		t.Fatalf("catalog search: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(http.MethodPost, "/api/v1/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	var sess struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}

	rec = do(http.MethodPost, "/api/v1/sessions/"+sess.ID+"/datasets",
		`{"catalogId": "041f1e6e-bdbc-4091-b48f-8a5990f3cc5b", "selectLayer": "grense"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"accepted":true`) {
		t.Fatalf("add from catalog: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/map", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "d1:grense") {
		t.Fatalf("map: %d %s", rec.Code, rec.Body.String())
	}
}
