package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPSource fetches the dataset with a GET request.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for rawURL. A zero timeout means the request
// is never cut short.
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	return NewHTTPSourceWithClient(rawURL, &http.Client{Timeout: timeout})
}

// NewHTTPSourceWithClient creates a source that uses client, for example one
// trusting a private CA.
func NewHTTPSourceWithClient(rawURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{url: rawURL, client: client}
}

func (s *HTTPSource) Name() string { return "http" }

// Fetch implements Source. Non-2xx responses are returned as *HTTPError.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			URL:        s.url,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetSize))
	if err != nil {
		return nil, fmt.Errorf("read dataset body: %w", err)
	}
	return body, nil
}

// statusText returns the reason phrase the server sent, falling back to the
// standard one.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
