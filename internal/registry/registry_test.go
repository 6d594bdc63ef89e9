package registry

import (
	"reflect"
	"strings"
	"testing"

	"github.com/joeblew999/kartlag/internal/capability"
	"github.com/joeblew999/kartlag/internal/messages"
)

var grense = []capability.Layer{{Name: "grense", Title: "Grense"}}

func newTestRegistry() *Registry {
	return New(messages.For("en"))
}

func kommuner(title string) AddRequest {
	return AddRequest{
		Service: capability.Capability{ServiceURL: "https://wms.example/kommuner", Layers: grense},
		Title:   title,
	}
}

func TestKommunerScenario(t *testing.T) {
	r := newTestRegistry()

	id1, v := r.Add(kommuner("Kommuner"))
	if !v.Accepted || id1 != "d1" {
		t.Fatalf("add = %q %+v", id1, v)
	}
	if len(r.List()) != 1 || len(r.Snapshot()) != 0 {
		t.Fatalf("want one dataset and no selections, got %d / %d", len(r.List()), len(r.Snapshot()))
	}

	if v := r.Toggle(id1, "grense", true); !v.Accepted {
		t.Fatalf("toggle on: %+v", v)
	}
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].Key.String() != "d1:grense" {
		t.Fatalf("snapshot = %+v", snap)
	}

	id2, v := r.Add(kommuner("Kommuner2"))
	if !v.Accepted {
		t.Fatalf("second add refused: %+v", v)
	}
	v = r.Toggle(id2, "grense", true)
	if v.Accepted {
		t.Fatal("duplicate layer admitted")
	}
	if !strings.Contains(v.Message, "Kommuner") || v.Conflict == nil || v.Conflict.Dataset != id1 {
		t.Fatalf("verdict = %+v", v)
	}
	if len(r.Snapshot()) != 1 {
		t.Fatalf("refused toggle changed the snapshot")
	}
}

func TestDuplicateSymmetry(t *testing.T) {
	r := newTestRegistry()
	layers := []capability.Layer{{Name: "layerX"}, {Name: "layerY"}}
	a, _ := r.Add(AddRequest{Service: capability.Capability{ServiceURL: "https://wms.example/s", Layers: layers}, Title: "A"})
	b, _ := r.Add(AddRequest{Service: capability.Capability{ServiceURL: "https://wms.example/s?cache=1", Layers: layers}, Title: "B"})

	r.Toggle(a, "layerX", true)
	if v := r.Toggle(b, "layerX", true); v.Accepted {
		t.Error("B activating layerX should be rejected")
	}
	if v := r.Toggle(b, "layerY", true); !v.Accepted {
		t.Errorf("B activating layerY should be accepted: %+v", v)
	}
	// Once A lets go, B may take it.
	r.Toggle(a, "layerX", false)
	if v := r.Toggle(b, "layerX", true); !v.Accepted {
		t.Errorf("layerX should be free again: %+v", v)
	}
}

func TestReselectOwnLayerNeverFlagged(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Add(kommuner("Kommuner"))
	r.Toggle(id, "grense", true)
	if v := r.Toggle(id, "grense", true); !v.Accepted {
		t.Fatalf("re-selection flagged: %+v", v)
	}
	if v := r.CheckDuplicate(Identity{ServiceURL: "https://wms.example/kommuner", Layer: "grense"}, id, nil); !v.Accepted {
		t.Fatalf("owner check flagged: %+v", v)
	}
}

func TestAddWithSelectLayerPrecheck(t *testing.T) {
	r := newTestRegistry()
	req := kommuner("Kommuner")
	req.SelectLayer = "grense"
	id, v := r.Add(req)
	if !v.Accepted || !reflect.DeepEqual(r.List()[0].Selected, []string{"grense"}) {
		t.Fatalf("add with select: %q %+v %+v", id, v, r.List())
	}

	dup := kommuner("Kommuner copy")
	dup.Service = `{"serviceUrl":"https://wms.example/kommuner?x=1","layers":["grense"]}`
	dup.SelectLayer = "grense"
	if _, v := r.Add(dup); v.Accepted || !strings.Contains(v.Message, "Kommuner") {
		t.Fatalf("duplicate add admitted: %+v", v)
	}
	if len(r.List()) != 1 {
		t.Fatalf("rejected add was stored")
	}
}

func TestAddSameCatalogID(t *testing.T) {
	r := newTestRegistry()
	req := kommuner("Kommuner")
	req.CatalogID = "041f1e6e-bdbc-4091-b48f-8a5990f3cc5b"
	if _, v := r.Add(req); !v.Accepted {
		t.Fatal(v.Message)
	}
	if _, v := r.Add(req); v.Accepted || v.Message != `The dataset "Kommuner" has already been added.` {
		t.Fatalf("verdict = %+v", v)
	}

	req.CatalogID = "not-a-uuid"
	if _, v := r.Add(req); !v.Accepted {
		t.Fatalf("malformed catalog id should be ignored: %+v", v)
	}
}

func TestAddDefaults(t *testing.T) {
	r := newTestRegistry()
	id, v := r.Add(AddRequest{Service: "https://wms.example/a?map=x"})
	if !v.Accepted {
		t.Fatal(v.Message)
	}
	d, _ := r.Get(id)
	if d.Title != "Untitled dataset" || d.ServiceURL != "https://wms.example/a" || d.RawServiceURL != "https://wms.example/a?map=x" {
		t.Fatalf("dataset = %+v", d)
	}

	if _, v := r.Add(AddRequest{Service: "  "}); v.Accepted {
		t.Fatal("empty service admitted")
	}
}

func TestToggleUnknownAndUnavailable(t *testing.T) {
	r := newTestRegistry()
	if v := r.Toggle("d42", "x", true); v.Accepted {
		t.Error("unknown dataset accepted")
	}
	id, _ := r.Add(AddRequest{Service: "https://wms.example/pending", Title: "Pending"})
	if v := r.Toggle(id, "grense", true); v.Accepted {
		t.Error("layer from an unfetched list accepted")
	}
	if v := r.Toggle(id, "grense", false); !v.Accepted {
		t.Error("deselect must always be accepted")
	}
}

func TestRemoveCascades(t *testing.T) {
	r := newTestRegistry()
	var snapshots [][]Selection
	r.OnChange(func(s []Selection) { snapshots = append(snapshots, s) })

	id, _ := r.Add(kommuner("Kommuner"))
	r.Toggle(id, "grense", true)
	snapshots = nil

	if !r.Remove(id) {
		t.Fatal("remove failed")
	}
	if len(snapshots) != 1 || len(snapshots[0]) != 0 {
		t.Fatalf("want one empty snapshot, got %+v", snapshots)
	}
	if _, ok := r.Get(id); ok {
		t.Fatal("dataset still present")
	}
	if r.Remove(id) {
		t.Fatal("second remove reported success")
	}
}

func TestSetLayers(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Add(AddRequest{Service: "https://wms.example/k", Title: "K"})
	if !r.SetLayers(id, []capability.Layer{{Name: "a"}, {Name: "b"}}) {
		t.Fatal("SetLayers on live dataset failed")
	}
	r.Toggle(id, "a", true)
	r.Toggle(id, "b", true)

	r.SetLayers(id, []capability.Layer{{Name: "b"}})
	d, _ := r.Get(id)
	if !reflect.DeepEqual(d.Selected, []string{"b"}) {
		t.Fatalf("selected = %v", d.Selected)
	}

	r.Remove(id)
	if r.SetLayers(id, []capability.Layer{{Name: "a"}}) {
		t.Fatal("SetLayers on removed dataset reported success")
	}
}

func TestSnapshotOrderFollowsSelection(t *testing.T) {
	r := newTestRegistry()
	a, _ := r.Add(AddRequest{Service: capability.Capability{ServiceURL: "https://a", Layers: []capability.Layer{{Name: "x"}, {Name: "y"}}}})
	b, _ := r.Add(AddRequest{Service: capability.Capability{ServiceURL: "https://b", Layers: []capability.Layer{{Name: "z"}}}})
	r.Toggle(a, "y", true)
	r.Toggle(b, "z", true)
	r.Toggle(a, "x", true)

	var got []string
	for _, s := range r.Snapshot() {
		got = append(got, s.Key.String())
	}
	want := []string{"d1:y", "d2:z", "d1:x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestSelectedSubsetOfAvailable(t *testing.T) {
	r := newTestRegistry()
	id, _ := r.Add(kommuner("Kommuner"))
	r.Toggle(id, "grense", true)
	r.Toggle(id, "nope", true)
	for _, d := range r.List() {
		for _, s := range d.Selected {
			found := false
			for _, l := range d.Layers {
				found = found || l.Name == s
			}
			if !found {
				t.Fatalf("selected %q not in available layers", s)
			}
		}
	}
}
