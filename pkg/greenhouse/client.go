// Package greenhouse provides a client for the public Greenhouse job board
// API. Board listings require no authentication.
package greenhouse

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

// Client defines the Greenhouse board operations.
type Client interface {
	// ListJobs fetches all open postings for a board, with full content.
	// A missing board yields an empty response, not an error.
	ListJobs(ctx context.Context, boardToken string) (*JobsResponse, error)
	// GetJob fetches one posting's detail payload, or nil when the
	// posting does not exist.
	GetJob(ctx context.Context, boardToken, jobID string) (json.RawMessage, error)
}

// JobsResponse is the parsed board listing. Postings are kept as raw JSON;
// interpreting the schema is the canonicalizer's job.
type JobsResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// Option configures the Greenhouse client.
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

// WithRateLimiter throttles outgoing requests. Boards are fetched in
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

// NewClient creates a new Greenhouse board client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://boards-api.greenhouse.io/v1/boards",
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
			return nil, resp.StatusCode, eris.Wrap(readErr, "greenhouse: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < c.maxAttempts {
			lastErr = eris.Errorf("greenhouse: status %d: %s", resp.StatusCode, string(body))
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

func (c *httpClient) ListJobs(ctx context.Context, boardToken string) (*JobsResponse, error) {
	reqURL := fmt.Sprintf("%s/%s/jobs?content=true", c.baseURL, boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "greenhouse: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "greenhouse: request failed")
	}

	// Unknown board tokens come back as 404; treat as an empty board so
	// one stale seed row cannot abort a run.
	if statusCode == http.StatusNotFound {
		return &JobsResponse{}, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("greenhouse: unexpected status %d: %s", statusCode, string(body))
	}

	var result JobsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "greenhouse: unmarshal response")
	}

	return &result, nil
}

func (c *httpClient) GetJob(ctx context.Context, boardToken, jobID string) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/%s/jobs/%s", c.baseURL, boardToken, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "greenhouse: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "greenhouse: request failed")
	}

	if statusCode == http.StatusNotFound {
		return nil, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("greenhouse: unexpected status %d: %s", statusCode, string(body))
	}

	return json.RawMessage(body), nil
}

var boardTokenPat = regexp.MustCompile(`boards\.greenhouse\.io/([a-zA-Z0-9_-]+)`)

// DetectBoardToken extracts the board token from a careers page URL, or ""
// when the URL is not a Greenhouse board.
func DetectBoardToken(careersURL string) string {
	m := boardTokenPat.FindStringSubmatch(careersURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsBoardURL reports whether the URL points at a Greenhouse board.
func IsBoardURL(url string) bool {
	return strings.Contains(strings.ToLower(url), "boards.greenhouse.io")
}

// JobURL returns the public posting URL for a board token and job id.
func JobURL(boardToken, jobID string) string {
	return fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%s", boardToken, jobID)
}
