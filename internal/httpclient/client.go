package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	userAgent          = "lex-provisioner/1.0"
)

// Client wraps http.Client with TLS settings and retry logic
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithRetry sets the attempt count and the first backoff delay, which doubles
// on every retry
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
	}
}

// WithTimeout bounds every single attempt
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new HTTP client with security configuration
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	// SECURITY: Configure TLS 1.2+ only
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}

	transport := &http.Transport{
		TLSClientConfig: tlsConfig,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			// SECURITY: Do NOT follow redirects automatically
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// RequestConfig contains configuration for an HTTP request. Headers set to an
// empty value are sent empty rather than defaulted.
type RequestConfig struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       string
	Headers    http.Header
}

// Do executes an HTTP request, retrying network failures, 429 and 5xx
// responses with exponential backoff
func (c *Client) Do(ctx context.Context, config RequestConfig) (*Response, error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.baseDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(expo, uint64(c.maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	var resp *Response
	op := func() error {
		attempt++
		var err error
		resp, err = c.doRequest(ctx, config)
		if err != nil && !isRetryableError(err, resp) {
			c.logger.Warn("non-retryable error, aborting",
				slog.String("error", err.Error()),
			)
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		c.logger.Info("retrying HTTP request",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.maxAttempts),
			slog.Duration("backoff", next),
			slog.String("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return resp, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
	}
	return resp, nil
}

// doRequest performs a single HTTP request
func (c *Client) doRequest(ctx context.Context, config RequestConfig) (*Response, error) {
	var bodyReader io.Reader
	if config.Body != nil {
		bodyReader = bytes.NewReader(config.Body)
	}

	req, err := http.NewRequestWithContext(ctx, config.Method, config.URL, bodyReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if config.Body != nil {
		req.ContentLength = int64(len(config.Body))
	}

	for key, value := range config.Headers {
		req.Header.Set(key, value)
	}
	if _, ok := config.Headers["User-Agent"]; !ok {
		req.Header.Set("User-Agent", userAgent)
	}

	c.logRequest(req)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("HTTP request failed",
			slog.String("method", config.Method),
			slog.String("url", redactQuery(config.URL)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Body:       string(bodyBytes),
		Headers:    resp.Header,
	}

	c.logger.Info("HTTP request completed",
		slog.String("method", config.Method),
		slog.String("url", redactQuery(config.URL)),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.Int("response_size", len(bodyBytes)),
	)

	if resp.StatusCode >= 400 {
		return response, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, truncateBody(string(bodyBytes), 200))
	}

	return response, nil
}

// logRequest logs HTTP request without sensitive information
func (c *Client) logRequest(req *http.Request) {
	// SECURITY: Redact sensitive headers
	redactedHeaders := make(map[string]string)
	for key := range req.Header {
		lowerKey := strings.ToLower(key)
		if strings.Contains(lowerKey, "auth") ||
			strings.Contains(lowerKey, "token") ||
			strings.Contains(lowerKey, "key") ||
			strings.Contains(lowerKey, "secret") {
			redactedHeaders[key] = "[REDACTED]"
		} else {
			redactedHeaders[key] = req.Header.Get(key)
		}
	}

	c.logger.Debug("HTTP request",
		slog.String("method", req.Method),
		slog.String("url", redactQuery(req.URL.String())),
		slog.Any("headers", redactedHeaders),
	)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error, resp *Response) bool {
	if err == nil {
		return false
	}
	// no response means the request never completed
	if resp == nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// redactQuery drops the query string, which carries the presigned signature
func redactQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// truncateBody truncates a response body for logging
func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
