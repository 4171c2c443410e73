package health

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultURL is the backend health endpoint.
	DefaultURL = "http://127.0.0.1:8000/health"
	// ProbeTimeout bounds connect plus response for one probe.
	ProbeTimeout = 2 * time.Second
)

// Prober reports whether the backend answered a health check right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// HTTPDoer abstracts the HTTP client so tests can substitute transports.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProber issues GET requests against a health URL.
type HTTPProber struct {
	URL     string
	Timeout time.Duration
	// Client overrides the per-probe client. When nil every probe builds a
	// fresh client with Timeout.
	Client HTTPDoer
}

// NewHTTPProber returns a prober for url with the default timeout.
func NewHTTPProber(url string) *HTTPProber {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &HTTPProber{URL: url, Timeout: ProbeTimeout}
}

// Probe returns true iff a 2xx response arrives within the timeout.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
