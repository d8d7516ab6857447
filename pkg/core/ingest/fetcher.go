// Package ingest fetches live HTML documents for the dividend engine.
// It implements the dividend.Fetcher interface and owns all network I/O:
// fixed browser User-Agent, explicit client timeout, and a polite per-client
// rate limit so scraped sites are never hammered.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"stockproxy/pkg/core/dividend"
)

// userAgent matches a current desktop browser; the scraped sites serve
// different (sometimes empty) markup to unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

// DefaultTimeout bounds every fetch; a timed-out fetch is treated the same
// as an unreachable source by the orchestrator.
const DefaultTimeout = 15 * time.Second

// Client fetches HTML pages with a bounded timeout and rate limit.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a fetcher with the given timeout; zero means
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		// Two requests burst, then one every 500ms.
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// Fetch downloads one page. Non-2xx statuses are errors so the orchestrator
// classifies the source unreachable rather than parsing an error page.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*dividend.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	// Redirects may land elsewhere; relative pagination links resolve
	// against the final address, not the requested one.
	finalURL := resp.Request.URL
	if finalURL == nil {
		finalURL, _ = url.Parse(rawURL)
	}

	return &dividend.Document{URL: finalURL, HTML: string(body)}, nil
}
