package scrape

import (
	"context"
	"io"
	"net/http"
	"time"

	"districtguide/rag"
)

const (
	// browserUserAgent is sent on every request; the district site serves an
	// interstitial to clients without a browser-like identity.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxReadSize caps the response body (5MB).
	maxReadSize = int64(5 * 1024 * 1024)
)

// Fetcher retrieves raw HTML for single URLs. A failed fetch is terminal for
// that URL within a pipeline run; there is no retry.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch issues a GET for the URL and returns the raw HTML body. Transport
// errors and non-2xx statuses are reported as a *rag.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &rag.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &rag.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &rag.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadSize))
	if err != nil {
		return "", &rag.FetchError{URL: url, Err: err}
	}

	return string(body), nil
}
