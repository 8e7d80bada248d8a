package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff keeps retries short enough to fit inside one scheduler tick.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// defaultBreakerTimeout is how long an open breaker skips readings before
// letting one through. Sources normally set it to the scheduler tick.
const defaultBreakerTimeout = 30 * time.Second

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errRejected      = errors.New("request rejected")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// newBreaker trips after three consecutive failed readings and half-opens
// after timeout. A rejected request means the endpoint is reachable, so it
// does not count against the breaker.
func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
	})
}

// classifyStatus maps a climate endpoint status to an error. Only rate
// limiting and server errors are worth another attempt.
func classifyStatus(code int) (retry bool, err error) {
	switch {
	case code >= 200 && code < 300:
		return false, nil
	case code == http.StatusTooManyRequests:
		return true, errRateLimited
	case code >= 500:
		return true, fmt.Errorf("%w: %d", errServerError, code)
	case code >= 400:
		return false, fmt.Errorf("%w: %d", errRejected, code)
	default:
		return false, fmt.Errorf("%w: %d", errUnexpected, code)
	}
}

// getReading issues one climate reading through the breaker. Server errors
// and transport failures are retried with backoff as long as the wait still
// fits before the context deadline; a reading that would land after the
// tick has ended is abandoned.
func getReading(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	delay := cfg.Backoff.InitialInterval
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		retry := true
		result, err := cb.Execute(func() (interface{}, error) {
			resp, doErr := cfg.Client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			again, statusErr := classifyStatus(resp.StatusCode)
			if statusErr != nil {
				resp.Body.Close()
				retry = again
				return nil, statusErr
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retry || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			return nil, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if cfg.Backoff.MaxInterval > 0 && delay > cfg.Backoff.MaxInterval {
			delay = cfg.Backoff.MaxInterval
		}
	}
}
