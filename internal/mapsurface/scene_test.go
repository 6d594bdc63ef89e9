package mapsurface

import (
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/kartlag/internal/reconciler"
)

func overlay(id string, z int) reconciler.Overlay {
	return reconciler.Overlay{
		ID:         id,
		ServiceURL: "https://wms.example/kommuner",
		Layer:      strings.SplitN(id, ":", 2)[1],
		ZIndex:     z,
		Params:     reconciler.DefaultTileParams,
	}
}

func TestSceneLifecycle(t *testing.T) {
	s := NewScene("")
	if s.View().Base != DefaultBase {
		t.Fatalf("base = %q", s.View().Base)
	}

	if err := s.CreateOverlay(overlay("d2:veg", 401)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateOverlay(overlay("d1:grense", 400)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateOverlay(overlay("d1:grense", 402)); err == nil {
		t.Fatal("duplicate overlay accepted")
	}

	v := s.View()
	if len(v.Overlays) != 2 || v.Overlays[0].ID != "d1:grense" || v.Overlays[1].ID != "d2:veg" {
		t.Fatalf("view = %+v", v.Overlays)
	}
	if !strings.HasSuffix(v.Overlays[0].TileTemplate, "&BBOX={bbox-epsg-3857}") {
		t.Fatalf("template = %q", v.Overlays[0].TileTemplate)
	}

	before := v.Version
	s.DestroyOverlay("d2:veg")
	s.DestroyOverlay("missing")
	s.SetBaseLayer("topo")
	v = s.View()
	if len(v.Overlays) != 1 || v.Base != "topo" || v.Version != before+2 {
		t.Fatalf("view = %+v", v)
	}
	if _, ok := s.Overlay("d2:veg"); ok {
		t.Fatal("destroyed overlay still present")
	}
}

func TestGetMapURL(t *testing.T) {
	raw := GetMapURL(overlay("d1:grense", 400), maptile.New(0, 0, 0))
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("REQUEST") != "GetMap" || q.Get("LAYERS") != "grense" || q.Get("TRANSPARENT") != "TRUE" || q.Get("CRS") != "EPSG:3857" {
		t.Fatalf("query = %v", q)
	}

	parts := strings.Split(q.Get("BBOX"), ",")
	if len(parts) != 4 {
		t.Fatalf("bbox = %q", q.Get("BBOX"))
	}
	b := MercatorBound(maptile.New(0, 0, 0))
	const world = 20037508.34
	if math.Abs(b.Max[0]-world) > 1 || math.Abs(b.Min[0]+world) > 1 {
		t.Fatalf("world tile bound = %v", b)
	}
}
