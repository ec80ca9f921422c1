// Package transport performs the actual network I/O for the client. It is
// the only layer that touches net/http; everything above it works with the
// narrow Transport contract.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Response is the transport-level result of a request. The body is fully
// read before the response is returned.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Transport sends a single HTTP request. Implementations own connection
// pooling and must honor context cancellation.
type Transport interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error)
	Close() error
}

// Inspector receives request/response pairs for network-inspection tooling.
// It is an optional capability chosen by the caller at construction time;
// the transport behaves identically with or without one attached.
type Inspector interface {
	// InspectRequest is called before the request is sent.
	InspectRequest(req *http.Request)

	// InspectResponse is called after the exchange, with the error (if
	// any) from sending. The response body must not be consumed.
	InspectResponse(req *http.Request, resp *http.Response, err error)
}

// Config holds transport configuration.
type Config struct {
	// ConnectTimeout bounds establishing a TCP connection.
	ConnectTimeout time.Duration

	// RequestTimeout bounds the whole exchange including reading the body.
	RequestTimeout time.Duration

	// SocketTimeout bounds waiting for the response headers after the
	// request is fully written.
	SocketTimeout time.Duration

	// Inspector is the optional network-inspection hook.
	Inspector Inspector

	// Logger receives request/response debug logs. Use zerolog.Nop()
	// to disable.
	Logger zerolog.Logger
}

// DefaultConfig returns safe default timeouts and a disabled logger.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 30 * time.Second,
		SocketTimeout:  30 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	client    *http.Client
	inspector Inspector
	logger    zerolog.Logger
}

// New creates an HTTP transport with its own connection pool.
func New(cfg Config) *HTTPTransport {
	dialer := &net.Dialer{
		Timeout: cfg.ConnectTimeout,
	}

	return &HTTPTransport{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: cfg.SocketTimeout,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		inspector: cfg.Inspector,
		logger:    cfg.Logger,
	}
}

// Send performs the request and reads the full response body.
func (t *HTTPTransport) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	t.logger.Debug().
		Str("method", method).
		Str("url", url).
		Int("body_bytes", len(body)).
		Msg("Sending request")

	if t.inspector != nil {
		t.inspector.InspectRequest(req)
	}

	resp, err := t.client.Do(req)

	if t.inspector != nil {
		t.inspector.InspectResponse(req, resp, err)
	}

	if err != nil {
		t.logger.Debug().Err(err).Str("url", url).Msg("Request failed")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	t.logger.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("body_bytes", len(data)).
		Msg("Received response")

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// Close releases idle connections. Safe to call more than once.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
