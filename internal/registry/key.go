package registry

import "strings"

// ID identifies a tracked dataset within one registry.
type ID string

// LayerKey identifies one layer of one tracked dataset. Its string form,
// "<dataset>:<layer>", is only used at the boundary.
type LayerKey struct {
	Dataset ID
	Layer   string
}

func (k LayerKey) String() string {
	return string(k.Dataset) + ":" + k.Layer
}

// ParseLayerKey parses "<dataset>:<layer>". Layer names may themselves
// contain colons (namespaced WMS layers), so only the first one separates.
func ParseLayerKey(s string) (LayerKey, bool) {
	dataset, layer, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || dataset == "" || layer == "" {
		return LayerKey{}, false
	}
	return LayerKey{Dataset: ID(dataset), Layer: layer}, true
}
