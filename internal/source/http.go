package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSource fetches bodies from a docs mirror over HTTP, for example a raw
// file endpoint of the docs repository.
type HTTPSource struct {
	baseURL    string
	token      string
	maxBytes   int64
	httpClient *http.Client
}

// NewHTTPSource returns a source that GETs baseURL + "/" + identifier. A
// non-empty token is sent as a bearer token.
func NewHTTPSource(baseURL, token string, timeout time.Duration, maxBytes int64) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		maxBytes: maxBytes,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Body retrieves one body. 404 maps to ErrNotFound; 429 and 5xx responses
// are returned as *UpstreamError.
func (c *HTTPSource) Body(ctx context.Context, identifier string) ([]byte, error) {
	name, err := cleanIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.Join(segments, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get body %s: %w", identifier, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Snippet: string(respBody),
		}
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get body %s: status %d: %s", identifier, resp.StatusCode, string(respBody))
	}

	return readLimited(resp.Body, c.maxBytes, identifier)
}

// Close releases idle connections.
func (c *HTTPSource) Close() {
	c.httpClient.CloseIdleConnections()
}
