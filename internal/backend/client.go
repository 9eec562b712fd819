package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/session"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnavailable is returned while the circuit breaker refuses calls.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRequestFailed wraps transport failures: the backend gave no usable response.
	ErrRequestFailed = errors.New("backend request failed")
)

// APIError is a response the backend produced but did not accept: a non-2xx status or an
// envelope code outside the success set.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d (code %d)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("backend returned status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// envelope wraps every backend response body.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func successCode(code int) bool {
	return code == 0 || code == http.StatusOK || code == http.StatusCreated
}

type Config struct {
	BaseURL          string
	Timeout          time.Duration
	FailureThreshold uint32        // consecutive failures that open the breaker
	OpenTimeout      time.Duration // how long the breaker stays open
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a 4xx is the caller's fault, not a sign the backend is down
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// do sends one request through the breaker and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, header http.Header, in any) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := session.AccessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeAPIError(resp.StatusCode, data)
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		c.logger.Warn("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrRequestFailed, err)
	}
	return body, nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
	}
	return apiErr
}

// get decodes the data field of a successful envelope into T.
func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode %s: %w", path, err)
	}
	if !successCode(env.Code) {
		return zero, &APIError{StatusCode: http.StatusOK, Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

// send issues a write and checks the result code of the envelope.
func (c *Client) send(ctx context.Context, method, path string, header http.Header, in any) (*Result, error) {
	body, err := c.do(ctx, method, path, header, in)
	if err != nil {
		return nil, err
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if !successCode(env.Code) {
		return nil, &APIError{StatusCode: http.StatusOK, Code: env.Code, Message: env.Message}
	}
	return &Result{Code: env.Code, Message: env.Message}, nil
}

// Result is the acknowledgement of a write.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
