// Package edgar provides a client for the SEC EDGAR full-text archive
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/catalyst/internal/common"
	"github.com/bobmcallan/catalyst/internal/interfaces"
	"github.com/bobmcallan/catalyst/internal/models"
)

const (
	DefaultBaseURL   = "https://www.sec.gov"
	DefaultDataURL   = "https://data.sec.gov"
	DefaultUserAgent = "Catalyst Research research@catalyst.dev"
	DefaultTimeout   = 60 * time.Second
	DefaultRateLimit = 10 // SEC caps anonymous access at 10 requests per second
)

// Client implements the EdgarClient interface
type Client struct {
	baseURL    string
	dataURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the archive host (www.sec.gov)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithDataURL sets the submissions host (data.sec.gov)
func WithDataURL(dataURL string) ClientOption {
	return func(c *Client) {
		c.dataURL = dataURL
	}
}

// WithUserAgent sets the User-Agent header required by the SEC
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EDGAR client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		dataURL:   DefaultDataURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream EDGAR error
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDGAR API error (status: %d, endpoint: %s)", e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request and returns the response body.
// Rate-limit responses, server errors, and network timeouts come back wrapped
// as transient so the pipeline retry policy applies uniformly.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug().Str("url", rawURL).Msg("EDGAR request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, models.Transient(err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.Transient(err)
		}
		return nil, models.Transient(fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: rawURL}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, models.Transient(apiErr)
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	return body, nil
}

// getJSON performs a GET and decodes the JSON response.
// Malformed JSON from an OK response is a permanent schema error, not retryable.
func (c *Client) getJSON(ctx context.Context, rawURL string, result interface{}) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unexpected EDGAR response schema at %s: %w", rawURL, err)
	}
	return nil
}

// Ensure Client implements EdgarClient
var _ interfaces.EdgarClient = (*Client)(nil)
