package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by production clients.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Backoff BackoffConfig
	Logger  *zap.Logger
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errMissingAPIKey = errors.New("openweather api key is not configured")
	errEmptyPayload  = errors.New("empty payload")
)

// ResilientClient executes GET requests with retries, exponential backoff,
// and a circuit breaker.
type ResilientClient struct {
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
}

// NewResilientClient builds a client for one upstream resource.
func NewResilientClient(cfg HTTPClientConfig) (*ResilientClient, error) {
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Backoff.MaxRetries).
		SetRetryWaitTime(cfg.Backoff.InitialInterval).
		SetRetryMaxWaitTime(cfg.Backoff.MaxInterval).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		log.Debug("upstream response",
			zap.String("upstream", cfg.Name),
			zap.String("method", resp.Request.Method),
			zap.String("path", resp.Request.RawRequest.URL.Path),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("took", resp.Time()),
		)
		return nil
	})

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &ResilientClient{client: client, circuit: cb}, nil
}

// Get issues a GET for path with the given query parameters and returns the
// body of a 2xx response.
func (r *ResilientClient) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	result, err := r.circuit.Execute(func() (interface{}, error) {
		resp, err := r.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			return nil, err
		}

		// Handle rate limiting and server errors explicitly.
		if resp.StatusCode() == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode() >= 500 {
			return nil, errServerError
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode())
		}

		return resp.Body(), nil
	})

	if err != nil {
		// If circuit is open, fail fast.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

// attempt runs primary and, when it fails for any reason (including a panic
// while mapping the payload), returns the value produced by substitute.
// It never fails.
func attempt[T any](
	ctx context.Context,
	log *zap.Logger,
	resource string,
	primary func(context.Context) (T, error),
	substitute func() T,
) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("provider mapping panicked, using substitute data",
				zap.String("resource", resource),
				zap.Any("panic", r),
			)
			out = substitute()
		}
	}()

	v, err := primary(ctx)
	if err != nil {
		log.Warn("provider unavailable, using substitute data",
			zap.String("resource", resource),
			zap.Error(err),
		)
		return substitute()
	}
	return v
}
