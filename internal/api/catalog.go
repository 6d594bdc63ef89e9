package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/catalog"
	"github.com/joeblew999/kartlag/internal/humastar"
)

type CatalogSearchInput struct {
	Q      string `query:"q" doc:"Text to match in title or description" example:"kommune"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Number of results to skip"`
	Limit  int    `query:"limit" minimum:"1" maximum:"200" default:"20" doc:"Maximum number of results"`
}

type CatalogEntryInput struct {
	UUID string `path:"uuid" doc:"Catalog UUID" format:"uuid"`
}

type CatalogPage = humastar.PageBody[catalog.Record]

// RegisterCatalog registers local catalog routes.
func (h *APIHandler) RegisterCatalog(api huma.API) {
	huma.Get(api, "/api/v1/catalog", h.SearchCatalog, huma.OperationTags("catalog"))
	huma.Get(api, "/api/v1/catalog/{uuid}", h.GetCatalogEntry, huma.OperationTags("catalog"))
}

func (h *APIHandler) SearchCatalog(ctx context.Context, input *CatalogSearchInput) (*struct{ Body CatalogPage }, error) {
	page := CatalogPage{Offset: input.Offset, Limit: input.Limit, Data: []catalog.Record{}}
	if h.svc == nil || h.svc.Catalog == nil {
		return &struct{ Body CatalogPage }{Body: page}, nil
	}
	entries, total, err := h.svc.Catalog.Search(ctx, input.Q, input.Offset, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to search catalog", err)
	}
	page.Data, page.Total = entries, total
	return &struct{ Body CatalogPage }{Body: page}, nil
}

func (h *APIHandler) GetCatalogEntry(ctx context.Context, input *CatalogEntryInput) (*struct{ Body catalog.Record }, error) {
	if h.svc == nil || h.svc.Catalog == nil {
		return nil, huma.Error503ServiceUnavailable("Catalog not available")
	}
	e, err := h.svc.Catalog.Get(ctx, input.UUID)
	if err != nil {
		return nil, notFound(err)
	}
	return &struct{ Body catalog.Record }{Body: e}, nil
}
