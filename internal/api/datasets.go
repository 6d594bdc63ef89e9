package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/kartlag/internal/download"
	"github.com/joeblew999/kartlag/internal/registry"
)

type AddDatasetBody struct {
	CatalogID       string `json:"catalogId,omitempty" doc:"Catalog UUID to add from the local catalog"`
	Service         any    `json:"service,omitempty" doc:"WMS descriptor: URL, JSON string or object with url and layers"`
	Title           string `json:"title,omitempty" doc:"Display title" example:"Kommuner"`
	SelectLayer     string `json:"selectLayer,omitempty" doc:"Layer to select once known" example:"grense"`
	DownloadURL     string `json:"downloadUrl,omitempty" doc:"Direct download URL"`
	DownloadFormats any    `json:"downloadFormats,omitempty" doc:"Raw download option list"`
}

type AddDatasetResult struct {
	ID      registry.ID      `json:"id,omitempty" doc:"Dataset ID when accepted" example:"d1"`
	Verdict registry.Verdict `json:"verdict"`
}

type DatasetsOutput struct {
	Body []registry.Dataset
}

type DatasetOutput struct {
	Body registry.Dataset
}

type ToggleInput struct {
	DatasetInput
	Layer string `path:"layer" doc:"Layer name" example:"grense"`
	Body  struct {
		Selected bool `json:"selected" doc:"Whether the layer should be shown"`
	}
}

type VerdictOutput struct {
	Body registry.Verdict
}

type RefreshBody struct {
	Started bool `json:"started" doc:"Whether a layer fetch was started"`
}

type DuplicateCheckBody struct {
	ServiceURL string   `json:"serviceUrl" doc:"Candidate service URL"`
	Layer      string   `json:"layer" doc:"Candidate layer name"`
	Owner      string   `json:"owner,omitempty" doc:"Dataset the candidate belongs to"`
	Active     []string `json:"active,omitempty" doc:"Active layer identifiers (<dataset>:<layer>); defaults to the session's selections"`
}

// RegisterDatasets registers dataset tracking routes.
func (h *APIHandler) RegisterDatasets(api huma.API) {
	huma.Get(api, "/api/v1/sessions/{sid}/datasets", h.ListDatasets, huma.OperationTags("datasets"))
	huma.Post(api, "/api/v1/sessions/{sid}/datasets", h.AddDataset, huma.OperationTags("datasets"))
	huma.Get(api, "/api/v1/sessions/{sid}/datasets/{id}", h.GetDataset, huma.OperationTags("datasets"))
	huma.Delete(api, "/api/v1/sessions/{sid}/datasets/{id}", h.RemoveDataset, huma.OperationTags("datasets"))
	huma.Put(api, "/api/v1/sessions/{sid}/datasets/{id}/layers/{layer}", h.ToggleLayer, huma.OperationTags("datasets"))
	huma.Post(api, "/api/v1/sessions/{sid}/datasets/{id}/layers:refresh", h.RefreshLayers, huma.OperationTags("datasets"))
	huma.Post(api, "/api/v1/sessions/{sid}/duplicates", h.CheckDuplicate, huma.OperationTags("datasets"))
}

func (h *APIHandler) ListDatasets(ctx context.Context, input *SessionInput) (*DatasetsOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	return &DatasetsOutput{Body: s.Datasets()}, nil
}

// AddDataset answers 200 for refusals too; the verdict carries the reason.
func (h *APIHandler) AddDataset(ctx context.Context, input *struct {
	SessionInput
	Body AddDatasetBody
}) (*struct{ Body AddDatasetResult }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}

	b := input.Body
	var (
		id registry.ID
		v  registry.Verdict
	)
	if b.CatalogID != "" && b.Service == nil {
		id, v, err = s.AddFromCatalog(ctx, b.CatalogID, b.SelectLayer)
		if err != nil {
			return nil, notFound(err)
		}
	} else {
		id, v = s.AddDataset(registry.AddRequest{
			Service:         b.Service,
			Title:           b.Title,
			CatalogID:       b.CatalogID,
			SelectLayer:     b.SelectLayer,
			DownloadFormats: download.FromAny(b.DownloadFormats),
			DownloadURL:     b.DownloadURL,
		})
	}
	return &struct{ Body AddDatasetResult }{Body: AddDatasetResult{ID: id, Verdict: v}}, nil
}

func (h *APIHandler) GetDataset(ctx context.Context, input *DatasetInput) (*DatasetOutput, error) {
	_, d, err := h.dataset(input)
	if err != nil {
		return nil, err
	}
	return &DatasetOutput{Body: d}, nil
}

func (h *APIHandler) RemoveDataset(ctx context.Context, input *DatasetInput) (*struct{ Body MessageBody }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	if !s.Remove(registry.ID(input.ID)) {
		return nil, huma.Error404NotFound("dataset not found")
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Dataset removed"}}, nil
}

// RefreshLayers retries the layer lookup of a dataset with no known layers.
func (h *APIHandler) RefreshLayers(ctx context.Context, input *DatasetInput) (*struct{ Body RefreshBody }, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	started, err := s.RefreshLayers(registry.ID(input.ID))
	if err != nil {
		return nil, notFound(err)
	}
	return &struct{ Body RefreshBody }{Body: RefreshBody{Started: started}}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *ToggleInput) (*VerdictOutput, error) {
	s, _, err := h.dataset(&input.DatasetInput)
	if err != nil {
		return nil, err
	}
	return &VerdictOutput{Body: s.Toggle(registry.ID(input.ID), input.Layer, input.Body.Selected)}, nil
}

func (h *APIHandler) CheckDuplicate(ctx context.Context, input *struct {
	SessionInput
	Body DuplicateCheckBody
}) (*VerdictOutput, error) {
	s, err := h.session(input.SID)
	if err != nil {
		return nil, err
	}
	b := input.Body
	candidate := registry.Identity{ServiceURL: b.ServiceURL, Layer: b.Layer}
	return &VerdictOutput{Body: s.CheckDuplicate(candidate, registry.ID(b.Owner), b.Active)}, nil
}
