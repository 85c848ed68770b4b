package gocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the CFM portal's doctor search endpoint.
	DefaultBaseURL = "https://portal.cfm.org.br/api_rest_php/api/v2/medicos/buscar_medicos"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds the number of requests SearchMany keeps in flight.
	DefaultConcurrency = 5

	portalOrigin  = "https://portal.cfm.org.br"
	portalReferer = "https://portal.cfm.org.br/busca-medicos"

	tracerName = "github.com/sdsvn/gocrm"
)

var defaultRetry = RetryConfig{
	MaxRetries:        0,
	InitialDelay:      100 * time.Millisecond,
	MaxDelay:          5 * time.Second,
	BackoffMultiplier: 2.0,
}

// Client is the CFM doctor search client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retry       RetryConfig
	concurrency int
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewClient creates a new CFM client with optional configuration.
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		retry:       defaultRetry,
		concurrency: DefaultConcurrency,
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom endpoint URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRetry configures retry behavior. Zero InitialDelay, MaxDelay and
// BackoffMultiplier take the defaults.
func WithRetry(config RetryConfig) ClientOption {
	return func(c *Client) {
		if config.InitialDelay <= 0 {
			config.InitialDelay = defaultRetry.InitialDelay
		}
		if config.MaxDelay <= 0 {
			config.MaxDelay = defaultRetry.MaxDelay
		}
		if config.BackoffMultiplier <= 0 {
			config.BackoffMultiplier = defaultRetry.BackoffMultiplier
		}
		c.retry = config
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracerProvider sets the provider the client's spans are created from.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithConcurrency sets how many searches SearchMany runs at once. Values below 1 are ignored.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// post sends body to the search endpoint with retry and decodes the response.
func (c *Client) post(ctx context.Context, body []byte) (*RawResponse, error) {
	var response RawResponse
	if err := c.doRequestWithRetry(ctx, body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *Client) doRequestWithRetry(ctx context.Context, body []byte, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retry.InitialDelay) * math.Pow(c.retry.BackoffMultiplier, float64(attempt-1)))
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}

			select {
			case <-ctx.Done():
				return fmt.Errorf("request cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		err := c.doRequest(ctx, body, result)
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.shouldRetry(err) {
			return err
		}
	}

	if c.retry.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP POST with the headers the portal requires.
func (c *Client) doRequest(ctx context.Context, body []byte, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", portalOrigin)
	req.Header.Set("Referer", portalReferer)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", "gocrm/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &decodeError{err: err}
	}

	return nil
}

// shouldRetry determines if an error is retryable.
func (c *Client) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var decErr *decodeError
	if errors.As(err, &decErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// APIError represents a non-2xx HTTP response from the portal.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// decodeError marks a response body that was not the expected JSON.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}
