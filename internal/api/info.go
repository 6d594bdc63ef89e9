package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir  string
	dbOK     bool
	lang     string
	datasets int
}

func NewInfoHandler(dataDir string, dbOK bool, lang string, datasets int) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK, lang: lang, datasets: datasets}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path, empty for in-memory"`
	DB       bool     `json:"db" doc:"Whether database is available"`
	Lang     string   `json:"lang" doc:"Language of user-facing messages" example:"nb"`
	Catalog  int      `json:"catalog" doc:"Number of datasets in the local catalog"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "kartlag",
		Version:  "0.1.0",
		DataDir:  h.dataDir,
		DB:       h.dbOK,
		Lang:     h.lang,
		Catalog:  h.datasets,
		Features: []string{"wms", "catalog", "download", "duckdb"},
	}}, nil
}
