package registry

import "testing"

func TestParseLayerKey(t *testing.T) {
	tests := []struct {
		in   string
		want LayerKey
		ok   bool
	}{
		{"d1:grense", LayerKey{"d1", "grense"}, true},
		{"d2:ns:layer", LayerKey{"d2", "ns:layer"}, true},
		{"nocolon", LayerKey{}, false},
		{":layer", LayerKey{}, false},
		{"d1:", LayerKey{}, false},
		{"", LayerKey{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseLayerKey(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseLayerKey(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
		if ok && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestFindDuplicate(t *testing.T) {
	active := []ActiveLayer{
		{Key: LayerKey{"d1", "grense"}, ServiceURL: "https://wms.example/k?a=1", Title: "Kommuner"},
		{Key: LayerKey{"d2", "veg"}, ServiceURL: "https://wms.example/v", Title: "Veger"},
	}

	c, dup := FindDuplicate(Identity{ServiceURL: "https://wms.example/k", Layer: "grense"}, "d3", active)
	if !dup || c.Dataset != "d1" || c.Title != "Kommuner" {
		t.Fatalf("got %+v %v", c, dup)
	}
	if _, dup := FindDuplicate(Identity{ServiceURL: "https://wms.example/k", Layer: "grense"}, "d1", active); dup {
		t.Error("owner flagged")
	}
	if _, dup := FindDuplicate(Identity{ServiceURL: "https://wms.example/k", Layer: "Grense"}, "d3", active); dup {
		t.Error("layer names compare exactly")
	}
	if _, dup := FindDuplicate(Identity{ServiceURL: "https://other/k", Layer: "grense"}, "d3", active); dup {
		t.Error("different service flagged")
	}
}

func TestDetectInIdentifiersSkipsMalformed(t *testing.T) {
	lookup := func(id ID) (string, string, bool) {
		switch id {
		case "d1":
			return "https://wms.example/k", "Kommuner", true
		case "d2":
			return "https://wms.example/v", "Veger", true
		}
		return "", "", false
	}
	ids := []string{"garbage", ":", "d9:grense", "d2:veg", "d1:grense"}

	c, dup := DetectInIdentifiers(Identity{ServiceURL: "https://wms.example/k?x", Layer: "grense"}, "d3", ids, lookup)
	if !dup || c.Dataset != "d1" {
		t.Fatalf("malformed identifiers hid a duplicate: %+v %v", c, dup)
	}
	if got := ParseActive(ids, lookup); len(got) != 2 {
		t.Fatalf("ParseActive kept %d, want 2", len(got))
	}
}
