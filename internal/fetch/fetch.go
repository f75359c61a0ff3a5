// Package fetch retrieves and parses blog post pages into the extractor's
// PageData. It owns all network and DOM concerns: timeouts, rate limiting,
// charset decoding, and the structural selector heuristics.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/blogforge/toppost/internal/extract"
)

const defaultTimeout = 15 * time.Second

// defaultDelay is the mandatory pause between requests to the target site.
// This is an operational constraint, not a tuning knob: hammering the search
// engine's result pages trips anti-scraping defenses.
const defaultDelay = time.Second

// Fetcher retrieves page data for a URL. Implementations must apply a bounded
// per-fetch timeout so one hanging URL cannot stall a whole batch.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*extract.PageData, error)
}

// HTTPFetcher fetches pages over plain HTTP with readability extraction and
// goquery-based structural counting.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPFetcher creates a fetcher. Zero timeout and delay select the
// defaults (15s, 1s).
func NewHTTPFetcher(timeout, delay time.Duration, userAgent string) *HTTPFetcher {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	if userAgent == "" {
		userAgent = "toppost/1.0 (blog post analyzer)"
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
		userAgent: userAgent,
	}
}

// Fetch retrieves and parses one page. Network and HTTP errors are returned
// to the caller; a page that fetches but yields no usable content comes back
// as PageData with Fetched=false.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*extract.PageData, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "ko,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return ParsePage(pageURL, body, resp.Header.Get("Content-Type"))
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http status %d %s", e.code, http.StatusText(e.code))
}
