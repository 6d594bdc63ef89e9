package capability

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// WMSVersion is the protocol version requested from services.
const WMSVersion = "1.3.0"

const fetchTimeout = 15 * time.Second

var defaultHTTPClient = &http.Client{
	Timeout: fetchTimeout,
}

// Fetcher looks up the layers a service exposes.
type Fetcher interface {
	Layers(ctx context.Context, serviceURL string) ([]Layer, error)
}

// Client fetches WMS GetCapabilities documents. Results are kept for the
// lifetime of the client. A shared request is not tied to any one caller:
// a caller whose context ends gets its context error while the request
// carries on for the others.
type Client struct {
	http  *http.Client
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]Layer
}

// NewClient creates a capability client. A nil httpClient uses a default
// client with a 15 second timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	return &Client{
		http:  httpClient,
		cache: make(map[string][]Layer),
	}
}

// Layers returns the named layers of the service at serviceURL. Concurrent
// calls for the same URL share one request.
func (c *Client) Layers(ctx context.Context, serviceURL string) ([]Layer, error) {
	reqURL, err := CapabilitiesURL(serviceURL)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	layers, ok := c.cache[reqURL]
	c.mu.RUnlock()
	if ok {
		return layers, nil
	}

	ch := c.group.DoChan(reqURL, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		layers, err := c.fetch(fctx, reqURL)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[reqURL] = layers
		c.mu.Unlock()
		return layers, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Layer), nil
	}
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]Layer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "kartlag/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching capabilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching capabilities: status %d", resp.StatusCode)
	}

	return ParseCapabilities(io.LimitReader(resp.Body, 8<<20))
}

// CapabilitiesURL builds the GetCapabilities request for a service URL,
// keeping any vendor parameters already present in its query string.
func CapabilitiesURL(serviceURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(serviceURL))
	if err != nil {
		return "", fmt.Errorf("parsing service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported service url %q", serviceURL)
	}

	q := u.Query()
	for k := range q {
		switch strings.ToUpper(k) {
		case "SERVICE", "REQUEST", "VERSION":
			q.Del(k)
		}
	}
	q.Set("SERVICE", "WMS")
	q.Set("REQUEST", "GetCapabilities")
	q.Set("VERSION", WMSVersion)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

type wmsLayer struct {
	Name   string     `xml:"Name"`
	Title  string     `xml:"Title"`
	Layers []wmsLayer `xml:"Layer"`
}

type wmsCapabilities struct {
	Capability struct {
		Layer *wmsLayer `xml:"Layer"`
	} `xml:"Capability"`
}

// ErrNoLayers is returned when a capabilities document has no layer tree.
var ErrNoLayers = errors.New("capabilities document has no layers")

// ParseCapabilities extracts every named layer from a WMS capabilities
// document, depth first in document order. Unnamed group layers are skipped
// but their children are kept.
func ParseCapabilities(r io.Reader) ([]Layer, error) {
	var doc wmsCapabilities
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding capabilities: %w", err)
	}
	if doc.Capability.Layer == nil {
		return nil, ErrNoLayers
	}

	var layers []Layer
	var walk func(l wmsLayer)
	walk = func(l wmsLayer) {
		if name := strings.TrimSpace(l.Name); name != "" {
			layers = append(layers, Layer{Name: name, Title: strings.TrimSpace(l.Title)})
		}
		for _, child := range l.Layers {
			walk(child)
		}
	}
	walk(*doc.Capability.Layer)
	return cleanLayers(layers), nil
}
