package tick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single tick fetch.
const DefaultTimeout = 10 * time.Second

// Fetcher returns the tick marker the external source currently reports.
type Fetcher interface {
	LastTick(ctx context.Context) (time.Time, error)
}

// HTTPFetcher reads {"lastTick": "<RFC3339>"} from a GET endpoint.
type HTTPFetcher struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPFetcher creates a fetcher for url with the default timeout.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{URL: url, Client: http.DefaultClient, Timeout: DefaultTimeout}
}

type tickResponse struct {
	LastTick string `json:"lastTick"`
}

// LastTick implements Fetcher.
func (f *HTTPFetcher) LastTick(ctx context.Context) (time.Time, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("build tick request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch tick: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return time.Time{}, fmt.Errorf("fetch tick: unexpected status %s", resp.Status)
	}

	var body tickResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("decode tick response: %w", err)
	}
	return ParseMarker(body.LastTick)
}

// ParseMarker parses an RFC 3339 tick marker and truncates it to the
// millisecond precision the store keeps.
func ParseMarker(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("parse tick marker: empty")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse tick marker %q: %w", s, err)
	}
	return t.UTC().Truncate(time.Millisecond), nil
}
