package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"quizdesk/internal/errors"
	"quizdesk/internal/telemetry"
)

const (
	headerAPIKey   = "x-api-key"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	// BaseURL is the backend root, e.g. "https://cbt.example.com/api".
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client is a typed client over the backend REST surface. Once an API key
// is set it is attached to every request until cleared.
type Client struct {
	base string
	hc   *http.Client

	mu     sync.RWMutex
	apiKey string
}

func NewClient(c Config) *Client {
	hc := c.HTTPClient
	if hc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
		telemetry.MonitorHTTP(hc)
	}

	return &Client{
		base: strings.TrimRight(c.BaseURL, "/"),
		hc:   hc,
	}
}

func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) ClearAPIKey() {
	c.SetAPIKey("")
}

func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// do issues a JSON request and decodes the response into out (if non-nil).
// Backend error payloads ({"error": "..."}) become *errors.Error with a code
// derived from the HTTP status; transport failures are returned unwrapped so
// callers can classify them per operation.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// upload issues a multipart request with the file under the "file" field.
func (c *Client) upload(ctx context.Context, path, fileName string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if key := c.APIKey(); key != "" {
		req.Header.Set(headerAPIKey, key)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(errors.FromStatus(resp.StatusCode),
			errors.WithMessagef("%s", errorMessage(b, resp.StatusCode)))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}

	return nil
}

// errorMessage extracts the backend's message; it uses "error" with a
// "message" fallback, which is what the backend actually sends.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	return http.StatusText(status)
}
