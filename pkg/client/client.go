// Package client provides the unified HTTP client core with pluggable
// authentication, retry with exponential backoff, typed error
// classification and optional response caching.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/appleniks969/kmmNetworkClient/pkg/auth"
	"github.com/appleniks969/kmmNetworkClient/pkg/cache"
	"github.com/appleniks969/kmmNetworkClient/pkg/codec"
	"github.com/appleniks969/kmmNetworkClient/pkg/logging"
	"github.com/appleniks969/kmmNetworkClient/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netclient_requests_total",
		Help: "Total requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netclient_request_duration_seconds",
		Help:    "Request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netclient_errors_total",
		Help: "Total errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netclient_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netclient_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netclient_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"class"})
)

// Config holds the client configuration. Immutable after construction.
type Config struct {
	// BaseURL is prepended to relative request paths. Optional; requests
	// may also pass absolute URLs.
	BaseURL string

	// DefaultHeaders are applied to every request. Lowest precedence:
	// auth headers and per-call headers override them on conflict.
	DefaultHeaders map[string]string

	// Auth is the authentication strategy. Defaults to no authentication.
	Auth auth.Strategy

	// Retry is the retry policy for transient failures.
	Retry RetryPolicy

	// ExpectSuccess treats any non-2xx status as a failure. When false,
	// non-2xx responses are returned to the caller for inspection.
	ExpectSuccess bool

	// Timeouts, enforced by the transport.
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	SocketTimeout  time.Duration

	// LogRequests enables structured request logging at LogLevel.
	LogRequests bool
	LogLevel    logging.LogLevel

	// Codec serializes request bodies and deserializes responses.
	// Defaults to lenient JSON.
	Codec codec.Codec

	// Transport overrides the default net/http transport. Mainly for
	// tests and platform-specific stacks.
	Transport transport.Transport

	// Inspector is an optional network-inspection hook passed to the
	// default transport. Ignored when Transport is set.
	Inspector transport.Inspector

	// Redis enables the GET response cache when set.
	Redis *redis.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Auth:           auth.NoAuth{},
		Retry:          DefaultRetryPolicy(),
		ExpectSuccess:  true,
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 30 * time.Second,
		SocketTimeout:  30 * time.Second,
		LogLevel:       logging.LevelInfo,
		Codec:          codec.JSON{},
	}
}

// Client executes HTTP requests through the auth, retry and classification
// pipeline. Safe for concurrent use; create one per remote service and
// release it with Close.
type Client struct {
	transport transport.Transport
	resolver  *auth.Resolver
	codec     codec.Codec
	cache     *cache.Manager
	config    Config
	logger    zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("base_url must be an absolute URL (got %q)", cfg.BaseURL)
		}
	}

	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.Retry.MaxRetries)
	}

	if cfg.Retry.MaxRetries > 0 && cfg.Retry.ExponentialBase <= 1.0 {
		return nil, fmt.Errorf("exponential_base must be > 1.0 (got %v)", cfg.Retry.ExponentialBase)
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = 30 * time.Second
	}

	if cfg.Auth == nil {
		cfg.Auth = auth.NoAuth{}
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.JSON{}
	}

	logger := zerolog.Nop()
	if cfg.LogRequests {
		logger = logging.NewLogger("net-client").Level(logging.ParseLevel(cfg.LogLevel))
	}

	tp := cfg.Transport
	if tp == nil {
		tp = transport.New(transport.Config{
			ConnectTimeout: cfg.ConnectTimeout,
			RequestTimeout: cfg.RequestTimeout,
			SocketTimeout:  cfg.SocketTimeout,
			Inspector:      cfg.Inspector,
			Logger:         logger,
		})
	}

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		transport: tp,
		resolver:  auth.NewResolver(logger),
		codec:     cfg.Codec,
		cache:     cacheManager,
		config:    cfg,
		logger:    logger,
	}, nil
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	header http.Header
}

// WithHeader adds a per-call header. Per-call headers have the highest
// precedence and override defaults and auth headers on conflict.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithHeaders adds multiple per-call headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		for key, value := range headers {
			o.header.Set(key, value)
		}
	}
}

// Get performs a GET request and decodes the response into out (skipped
// when out is nil).
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post performs a POST request with an optional body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPost, path, body, out, opts...)
}

// Put performs a PUT request with an optional body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch performs a PATCH request with an optional body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, out, opts...)
}

// call serializes the body, executes the request and decodes the response.
func (c *Client) call(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	options := requestOptions{header: http.Header{}}
	for _, opt := range opts {
		opt(&options)
	}

	var wire []byte
	if body != nil {
		data, err := c.codec.Marshal(body)
		if err != nil {
			return &Error{Class: ErrorClassUnknown, Err: fmt.Errorf("encode request body: %w", err)}
		}
		wire = data
	}

	resp, err := c.Do(ctx, method, path, wire, options.header)
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Non-2xx surfaced as success (ExpectSuccess disabled); the
		// body shape is unknown, leave decoding to the caller.
		return nil
	}

	if err := c.codec.Unmarshal(resp.Body, out); err != nil {
		return &Error{Class: ErrorClassUnknown, Err: fmt.Errorf("decode response body: %w", err)}
	}

	return nil
}

// Do performs a request with a pre-serialized body and returns the raw
// transport response. This is the core method that orchestrates auth
// resolution, header merging, caching, retry and error classification.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*transport.Response, error) {
	targetURL, err := c.resolveURL(path)
	if err != nil {
		return nil, &Error{Class: ErrorClassUnknown, Err: err}
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Resolve auth into header mutations. Resolved once; retries
	// reuse the exact same request.
	authHeader, err := c.resolver.Resolve(ctx, c.config.Auth, method, targetURL)
	if err != nil {
		cerr := Classify(nil, fmt.Errorf("resolve auth: %w", err))
		errorsTotal.WithLabelValues(string(cerr.Class)).Inc()
		return nil, cerr
	}

	// Step 2: Merge headers. Precedence (low to high): client defaults,
	// auth strategy headers, per-call headers.
	merged := http.Header{}
	for key, value := range c.config.DefaultHeaders {
		merged.Set(key, value)
	}
	for key, values := range authHeader {
		merged.Del(key)
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	for key, values := range header {
		merged.Del(key)
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	if body != nil && merged.Get("Content-Type") == "" {
		merged.Set("Content-Type", c.codec.ContentType())
	}
	if merged.Get("Accept") == "" {
		merged.Set("Accept", c.codec.ContentType())
	}

	// Step 3: Check cache and prepare conditional revalidation.
	var cachedEntry *cache.Entry
	cacheKey := cache.Key{URL: targetURL}
	cacheable := c.cache != nil && method == http.MethodGet

	if cacheable {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("url", targetURL).Msg("Cache get error")
		}
		cachedEntry = entry

		if cache.ShouldRevalidate(cachedEntry) {
			cache.AddConditionalHeaders(merged, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("url", targetURL).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", targetURL).
		Msg("Executing request")

	// Step 4: Attempt loop with retry and backoff.
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			cerr := Classify(nil, err)
			errorsTotal.WithLabelValues(string(cerr.Class)).Inc()
			return nil, cerr
		}

		resp, sendErr := c.transport.Send(ctx, method, targetURL, merged, body)
		cerr := c.evaluate(resp, sendErr, cachedEntry != nil)

		if cerr == nil {
			if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
				return c.serveFromCache(ctx, cacheKey, cachedEntry, resp), nil
			}

			requestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			if cacheable && resp.StatusCode == http.StatusOK {
				c.storeInCache(ctx, cacheKey, resp)
			}

			if attempt > 0 {
				c.logger.Info().
					Str("method", method).
					Str("url", targetURL).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return resp, nil
		}

		errorsTotal.WithLabelValues(string(cerr.Class)).Inc()
		requestsTotal.WithLabelValues(method, statusLabel(cerr)).Inc()

		// Cancellation aborts immediately, bypassing retry.
		if cerr.Class == ErrorClassCancelled {
			return nil, cerr
		}

		decision := c.config.Retry.Decide(attempt, cerr.Class)
		if !decision.Retry {
			if shouldRetry(cerr.Class) && attempt >= c.config.Retry.MaxRetries {
				retryExhaustedTotal.WithLabelValues(string(cerr.Class)).Inc()
			}
			c.logger.Warn().
				Str("method", method).
				Str("url", targetURL).
				Str("error_class", string(cerr.Class)).
				Int("status", cerr.StatusCode).
				Int("attempts", attempt+1).
				Msg("Request failed")
			return nil, cerr
		}

		delay := decision.Delay
		if cerr.Class == ErrorClassServer && resp != nil {
			if after := c.config.Retry.retryAfterDelay(resp.Header); after > 0 {
				delay = after
			}
		}

		retriesTotal.WithLabelValues(string(cerr.Class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(cerr.Class)).Observe(delay.Seconds())

		c.logger.Debug().
			Str("error_class", string(cerr.Class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			cancelled := Classify(nil, ctx.Err())
			errorsTotal.WithLabelValues(string(cancelled.Class)).Inc()
			return nil, cancelled
		case <-time.After(delay):
		}
	}
}

// evaluate decides whether a transport outcome is a success or a typed
// failure. A 304 with a cached entry counts as success, as does any status
// when ExpectSuccess is disabled.
func (c *Client) evaluate(resp *transport.Response, err error, haveCached bool) *Error {
	if err != nil {
		return Classify(nil, err)
	}

	if resp.StatusCode == http.StatusNotModified && haveCached {
		return nil
	}

	if !c.config.ExpectSuccess {
		return nil
	}

	return Classify(resp, nil)
}

// serveFromCache answers a 304 revalidation with the cached entry and
// refreshes its TTL from the response Expires header.
func (c *Client) serveFromCache(ctx context.Context, key cache.Key, entry *cache.Entry, resp *transport.Response) *transport.Response {
	c.logger.Debug().Str("key", key.String()).Msg("304 Not Modified - using cache")
	cache.NotModifiedResponses.Inc()

	if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
		if newExpires, err := http.ParseTime(expiresStr); err == nil {
			if err := c.cache.UpdateTTL(ctx, key, newExpires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
		}
	}

	return cache.EntryToResponse(entry)
}

// storeInCache caches a successful GET response when its headers grant a
// positive TTL.
func (c *Client) storeInCache(ctx context.Context, key cache.Key, resp *transport.Response) {
	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if entry.TTL() <= 0 {
		return
	}

	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
		return
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", entry.TTL()).
		Msg("Cached response")
}

// resolveURL joins a relative path with the configured base URL. Absolute
// URLs pass through untouched.
func (c *Client) resolveURL(path string) (string, error) {
	if strings.Contains(path, "://") {
		return path, nil
	}

	if c.config.BaseURL == "" {
		return "", fmt.Errorf("relative path %q requires a base URL", path)
	}

	return strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

// statusLabel renders the metrics status label for a failed attempt.
func statusLabel(err *Error) string {
	if err.StatusCode > 0 {
		return fmt.Sprintf("%d", err.StatusCode)
	}
	return string(err.Class) + "_error"
}

// Close releases the client's resources and tears down the transport.
// Safe to call more than once; requests must not be issued concurrently
// with or after Close.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}
