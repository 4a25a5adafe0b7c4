// Package lever provides a client for the public Lever postings API. Site
// listings require no authentication.
package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Lever postings operations.
type Client interface {
	// ListPostings fetches all published postings for a site. A missing
	// site yields an empty slice, not an error.
	ListPostings(ctx context.Context, site string) ([]json.RawMessage, error)
}

// Option configures the Lever client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimiter throttles outgoing requests. Sites are fetched in
// parallel across companies, so the limiter should be shared.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithMaxRetries caps the number of attempts per request, first try
// included. Values below one are ignored.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

type httpClient struct {
	baseURL     string
	userAgent   string
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
}

// NewClient creates a new Lever postings client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://api.lever.co/v0/postings",
		userAgent: "jobintel/1.0",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, 0, err
			}
		}

		// Clone request for retry (body is nil for GET requests).
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < c.maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "lever: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < c.maxAttempts {
			lastErr = eris.Errorf("lever: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) ListPostings(ctx context.Context, site string) ([]json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/%s?mode=json", c.baseURL, site)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "lever: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "lever: request failed")
	}

	// Unknown sites come back as 404; treat as an empty site so one
	// stale seed row cannot abort a run.
	if statusCode == http.StatusNotFound {
		return nil, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("lever: unexpected status %d: %s", statusCode, string(body))
	}

	// The API answers with a bare JSON array. Any other valid-JSON shape
	// (some error pages are JSON objects) counts as no postings.
	var postings []json.RawMessage
	if err := json.Unmarshal(body, &postings); err != nil {
		if json.Valid(body) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "lever: unmarshal postings")
	}

	return postings, nil
}

var sitePat = regexp.MustCompile(`jobs\.lever\.co/([a-zA-Z0-9_-]+)`)

// DetectSite extracts the site slug from a careers page URL, or "" when the
// URL is not a Lever board.
func DetectSite(careersURL string) string {
	m := sitePat.FindStringSubmatch(careersURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsSiteURL reports whether the URL points at a Lever careers page.
func IsSiteURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "jobs.lever.co") || strings.Contains(lower, "lever.co")
}

// PostingURL returns the public posting URL for a site and posting id.
func PostingURL(site, postingID string) string {
	return fmt.Sprintf("https://jobs.lever.co/%s/%s", site, postingID)
}
