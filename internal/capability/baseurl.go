package capability

import "strings"

// BaseURL returns the endpoint of a service URL with any query string or
// fragment removed. Layer identity compares services by this value.
func BaseURL(serviceURL string) string {
	u := strings.TrimSpace(serviceURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}

// SameService reports whether two service URLs point at the same endpoint.
func SameService(a, b string) bool {
	return BaseURL(a) == BaseURL(b)
}
