package telemetry

import (
	"log/slog"
	"net/http"
	"time"
)

// MonitorHTTP wraps an HTTP client so every backend call is logged with its
// method, path, status and duration.
func MonitorHTTP(c *http.Client) {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c.Transport = roundTripper{base: base}
}

type roundTripper struct {
	base http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := rt.base.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration", time.Since(start),
	}

	if err != nil {
		slog.ErrorContext(req.Context(), "api: request failed", append(attrs, "error", err)...)
		return resp, err
	}

	slog.DebugContext(req.Context(), "api: request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
