// Package reconciler keeps a map rendering surface in step with the
// registry's selected layers. It is the only component that creates or
// destroys overlays on the surface.
package reconciler

// OverlayZIndex is the z-index of the first overlay. Base layers render
// below it; each new overlay gets the next index.
const OverlayZIndex = 400

// TileParams are the fixed WMS tile request parameters of an overlay.
type TileParams struct {
	Format      string `json:"format" example:"image/png"`
	Transparent bool   `json:"transparent"`
	Version     string `json:"version" example:"1.3.0"`
}

// DefaultTileParams are used for every overlay.
var DefaultTileParams = TileParams{
	Format:      "image/png",
	Transparent: true,
	Version:     "1.3.0",
}

// Overlay is what the reconciler asks the surface to draw.
type Overlay struct {
	ID         string     `json:"id" doc:"Handle id, <dataset>:<layer>" example:"d1:grense"`
	ServiceURL string     `json:"serviceUrl" doc:"Service endpoint without query string"`
	Layer      string     `json:"layer" doc:"WMS layer name"`
	ZIndex     int        `json:"zIndex" doc:"Stacking order; higher draws on top"`
	Params     TileParams `json:"params"`
}

// Surface is an imperative map rendering surface. The reconciler never
// reads state back from it.
type Surface interface {
	CreateOverlay(o Overlay) error
	DestroyOverlay(id string)
	SetBaseLayer(name string)
}
