package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultAttemptTimeout = 5 * time.Second
	defaultMaxRetries     = 3
	defaultInitialDelay   = 1 * time.Second
)

// Client wraps plain HTTP GETs with bounded retry. The delay between
// attempts is constant, except after an HTTP 429 where it doubles before
// the wait. That asymmetry is deliberate: rate limits back off, everything
// else just retries. Retries are capped at three, so delay growth needs no cap.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	initialDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewClient creates a fetch client with a 5 second per-attempt timeout.
func NewClient() *Client {
	return NewClientWithPolicy(&http.Client{Timeout: defaultAttemptTimeout}, defaultMaxRetries, defaultInitialDelay)
}

// NewClientWithPolicy creates a fetch client with an explicit retry policy,
// for callers the defaults don't fit.
func NewClientWithPolicy(httpClient *http.Client, maxRetries int, initialDelay time.Duration) *Client {
	return &Client{
		httpClient:   httpClient,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		sleep:        waitCtx,
	}
}

// Get fetches url, retrying transient failures. Non-2xx responses count as
// failures. The final attempt's error is returned once retries are exhausted;
// the caller decides any fallback.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	reqID := uuid.NewString()[:8]
	delay := c.initialDelay

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, status, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		if status == http.StatusTooManyRequests {
			delay *= 2
		}

		log.Debug().
			Str("req_id", reqID).
			Str("url", url).
			Int("attempt", attempt+1).
			Stringer("delay", delay).
			Err(err).
			Msg("fetch failed, retrying")

		if werr := c.sleep(ctx, delay); werr != nil {
			return nil, werr
		}
	}

	return nil, fmt.Errorf("fetch %s (req %s): %w", url, reqID, lastErr)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, resp.StatusCode, nil
}

func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
