// Package rest provides the HTTP client used for the exchange's metadata and
// authentication endpoints. Requests go through a token-bucket rate limiter
// and an optional retry loop for transient server errors.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/goccy/go-json"

	"github.com/veiloq/bitmart-connector/pkg/logging"
	"github.com/veiloq/bitmart-connector/pkg/ratelimit"
)

// Client executes HTTP requests with rate limiting and retries.
type Client interface {
	// Do executes req, honoring the configured rate limit and retry policy.
	Do(ctx context.Context, req *http.Request) (*http.Response, error)

	// GetJSON issues a GET and decodes the response body into out.
	GetJSON(ctx context.Context, url string, out interface{}) error

	// PostForm issues a form-encoded POST and decodes the response into out.
	PostForm(ctx context.Context, url string, form url.Values, out interface{}) error
}

// Config holds configuration for the HTTP client.
type Config struct {
	Timeout   time.Duration
	RateLimit ratelimit.Rate

	// MaxAttempts is the total number of attempts per request. 1 disables
	// retries entirely.
	MaxAttempts uint
	RetryDelay  time.Duration

	Logger logging.Logger
}

// DefaultConfig returns a client configuration with no retries, matching the
// metadata endpoints' fetch-once contract.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		RateLimit:   ratelimit.Rate{Limit: 10, Interval: time.Second},
		MaxAttempts: 1,
		RetryDelay:  time.Second,
	}
}

type client struct {
	config     *Config
	httpClient *http.Client
	limiter    ratelimit.RateLimiter
	logger     logging.Logger
}

// NewClient creates a new HTTP client with the given configuration.
func NewClient(config *Config) Client {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}

	return &client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    ratelimit.NewTokenBucketLimiter(config.RateLimit),
		logger:     logger,
	}
}

func (c *client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			attempt := req.Clone(ctx)
			if body != nil {
				attempt.Body = io.NopCloser(bytes.NewReader(body))
			}

			var err error
			resp, err = c.httpClient.Do(attempt)
			if err != nil {
				return fmt.Errorf("http request: %w", err)
			}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return fmt.Errorf("retryable status code: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Attempts(c.config.MaxAttempts),
		retry.Delay(c.config.RetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying request",
				logging.Int("attempt", int(n+1)),
				logging.String("url", req.URL.String()),
				logging.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

func (c *client) PostForm(ctx context.Context, rawURL string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}
