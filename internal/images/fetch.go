package images

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rickgao/gift-heatmap/internal/version"
)

// Fetcher downloads image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError is returned for non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// HTTPFetcher fetches images over HTTP.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher. Per-request deadlines come from the context;
// timeout is an upper bound applied to every request.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "image/webp,image/png,image/jpeg,image/*")
	client.SetHeader("User-Agent", version.UserAgent())
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}
