package papersources

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent identifies the service to paper source APIs.
const DefaultUserAgent = "Helixir-ResearchReportService/1.0"

// maxErrorExcerpt bounds the body excerpt kept from a failed response.
const maxErrorExcerpt = 1 << 10

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-API-Key").
	APIKeyHeader string
}

// HTTPClient wraps http.Client with default headers and a hard timeout.
// It performs exactly one attempt per call. It is safe for concurrent use.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
	}
}

// Timeout returns the configured per-request timeout.
func (c *HTTPClient) Timeout() time.Duration {
	return c.config.Timeout
}

// Do executes an HTTP request after setting the User-Agent and optional API key headers.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}
	return c.client.Do(req)
}

// ErrorExcerpt reads a bounded, trimmed excerpt of a failed response body.
func ErrorExcerpt(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
	excerpt := strings.TrimSpace(string(body))
	if excerpt == "" {
		return http.StatusText(resp.StatusCode)
	}
	return excerpt
}
