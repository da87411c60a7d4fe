// Package upstream is the HTTP plumbing shared by the swap backend adapters:
// one instrumented client, rate limiter and circuit breaker per backend.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/circuitbreaker"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/httpclient"
	"github.com/fd1az/tonswap/internal/ratelimit"
)

const defaultTimeout = 10 * time.Second

// StatusError is a non-2xx answer. Only 5xx counts against the breaker.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// IsStatus reports whether err is a non-2xx answer rather than a transport,
// decode or breaker failure.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

func statusErrorHandler(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return &StatusError{StatusCode: statusCode, Body: string(body)}
	}
	return nil
}

// Client calls one backend API.
type Client struct {
	name    string
	http    httpclient.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[*httpclient.Response]
}

// New builds the client for backend name.
func New(name string, cfg config.BackendConfig, tracer trace.Tracer) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(name),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig(name)
	breakerCfg.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.StatusCode < 500
		}
		return err == nil
	}

	return &Client{
		name:    name,
		http:    client,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		breaker: circuitbreaker.New[*httpclient.Response](breakerCfg),
	}, nil
}

// Get fetches path and decodes a 2xx body into result.
func (c *Client) Get(ctx context.Context, endpoint, path string, result any) error {
	return c.do(ctx, endpoint, func() (*httpclient.Response, error) {
		return c.request(endpoint).SetResult(result).Get(ctx, path)
	})
}

// Post sends body as JSON and decodes a 2xx answer into result.
func (c *Client) Post(ctx context.Context, endpoint, path string, body, result any) error {
	return c.do(ctx, endpoint, func() (*httpclient.Response, error) {
		return c.request(endpoint).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(result).
			Post(ctx, path)
	})
}

// Health reports whether the breaker lets calls through.
func (c *Client) Health(_ context.Context) (bool, string) {
	state := c.breaker.State()
	return state != gobreaker.StateOpen, "circuit " + state.String()
}

func (c *Client) request(endpoint string) httpclient.Request {
	return c.http.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
		httpclient.WithResponseErrorHandler(statusErrorHandler),
	)
}

// do returns a *StatusError for non-2xx answers and BACKEND_UNAVAILABLE for
// everything else that went wrong, an open breaker included.
func (c *Client) do(ctx context.Context, endpoint string, fn func() (*httpclient.Response, error)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeBackendUnavailable,
			apperror.WithCause(err),
			apperror.WithContext(c.name+" "+endpoint))
	}

	_, err := c.breaker.Execute(fn)
	if err == nil || IsStatus(err) {
		return err
	}
	return apperror.New(apperror.CodeBackendUnavailable,
		apperror.WithCause(err),
		apperror.WithContext(c.name+" "+endpoint))
}
