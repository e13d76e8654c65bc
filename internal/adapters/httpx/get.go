package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultBackoff is the first retry delay.
const DefaultBackoff = 500 * time.Millisecond

// Client performs GET requests with retries.
type Client struct {
	HTTP    *http.Client
	Retries int
	Backoff time.Duration
}

// NewClient creates a Client with the given per-request timeout and retry count.
func NewClient(timeout time.Duration, retries int) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Retries: retries,
		Backoff: DefaultBackoff,
	}
}

// Get fetches url. A 404 is domain.ErrNotFound. Transport failures, 429 and
// 5xx responses are retried and end up as domain.ErrNetwork.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.Retries+1, c.Backoff, func() error {
		var err error
		body, err = c.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid request url"), "url", url)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "url", url)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "not found"), "url", url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		apiErr := zerr.With(zerr.Wrap(domain.ErrNetwork, resp.Status), "status_code", resp.StatusCode)
		return nil, &RetryableError{Err: zerr.With(apiErr, "url", url)}
	case resp.StatusCode != http.StatusOK:
		apiErr := zerr.With(zerr.Wrap(domain.ErrNetwork, resp.Status), "status_code", resp.StatusCode)
		return nil, zerr.With(apiErr, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetryableError{Err: zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "url", url)}
	}
	return body, nil
}
