// Package remote fetches entities owned by other services over their REST
// surface. It never retries: retry and fast-fail policy belong to the caller
// or to the gateway breaker in front of the collaborator.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 3 * time.Second

var ErrRemoteFetchFailed = errors.New("remote fetch failed")

// FetchError describes one failed call. StatusCode is zero when no response
// was received (network error, timeout, cancelled context).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", ErrRemoteFetchFailed, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", ErrRemoteFetchFailed, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrRemoteFetchFailed }

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

type Fetcher interface {
	Fetch(ctx context.Context, baseURL, path string, target any) error
}

type Client struct {
	http *http.Client
}

// NewClient builds a client whose every call is bounded by timeout. A
// non-positive timeout is replaced by DefaultTimeout: an unbounded wait on a
// collaborator is never allowed.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Fetch(ctx context.Context, baseURL, path string, target any) error {
	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}
