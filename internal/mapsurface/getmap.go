package mapsurface

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"

	"github.com/joeblew999/kartlag/internal/reconciler"
)

// TileSize is the pixel size of a requested tile.
const TileSize = 256

const bboxPlaceholder = "{bbox-epsg-3857}"

func getMapParams(o reconciler.Overlay) url.Values {
	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("REQUEST", "GetMap")
	q.Set("VERSION", o.Params.Version)
	q.Set("LAYERS", o.Layer)
	q.Set("STYLES", "")
	q.Set("FORMAT", o.Params.Format)
	q.Set("TRANSPARENT", strings.ToUpper(strconv.FormatBool(o.Params.Transparent)))
	q.Set("CRS", "EPSG:3857")
	q.Set("WIDTH", strconv.Itoa(TileSize))
	q.Set("HEIGHT", strconv.Itoa(TileSize))
	return q
}

// TileTemplate returns a GetMap URL whose BBOX is left as a placeholder for
// the client to fill per tile.
func TileTemplate(o reconciler.Overlay) string {
	return o.ServiceURL + "?" + getMapParams(o).Encode() + "&BBOX=" + bboxPlaceholder
}

// MercatorBound returns the EPSG:3857 extent of an XYZ tile.
func MercatorBound(t maptile.Tile) orb.Bound {
	b := t.Bound()
	return orb.Bound{
		Min: project.WGS84.ToMercator(b.Min),
		Max: project.WGS84.ToMercator(b.Max),
	}
}

// GetMapURL returns the WMS GetMap request for one XYZ tile of an overlay.
func GetMapURL(o reconciler.Overlay, t maptile.Tile) string {
	b := MercatorBound(t)
	coords := []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', 2, 64)
	}

	q := getMapParams(o)
	q.Set("BBOX", strings.Join(parts, ","))
	return o.ServiceURL + "?" + q.Encode()
}
