// Package httpx is a small HTTP client with exponential backoff, used by
// connectors and extractors that talk to remote services.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/rs/zerolog"
)

// Client retries transport failures, 429 and 5xx responses.
type Client struct {
	HTTP *http.Client
	// Retries is the number of attempts after the first.
	Retries uint64
	// InitialInterval is the first backoff wait; zero keeps the backoff
	// package default.
	InitialInterval time.Duration
}

// New returns a client with the given per-request timeout.
func New(timeout time.Duration, retries uint64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}, Retries: retries}
}

// Request describes one call. Body is replayed on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req until it gets a non-retryable answer, the retries run out
// or ctx ends. Any status that is not retried is returned as is.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	b := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		b.InitialInterval = c.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.Retries), ctx)

	var out *Response
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("error building request: %w", err))
		}
		for k, vs := range req.Header {
			for _, v := range vs {
				hr.Header.Add(k, v)
			}
		}
		resp, err := c.HTTP.Do(hr)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Int("attempt", attempt).Str("url", req.URL).Msg("request failed")
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if retryable(resp.StatusCode) {
			zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Str("url", req.URL).Msg("retryable status")
			return fmt.Errorf("retryable status %d from %s %s", resp.StatusCode, req.Method, req.URL)
		}
		out = &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}
