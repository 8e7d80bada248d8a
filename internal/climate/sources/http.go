// Package sources provides SampleSource implementations.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-monitor/internal/climate"
)

// HTTPSource reads the temperature at a position from a climate endpoint:
//
//	GET <baseURL>?x=<x>&y=<y>&z=<z>  ->  {"temperature": 12.5}
type HTTPSource struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithBreakerTimeout sets how long the source stays open after tripping.
// The monitor passes its scheduler tick so the next tick tries again.
func WithBreakerTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.circuit = newBreaker("climate-http", d) }
}

// WithBackoff overrides the retry schedule.
func WithBackoff(b BackoffConfig) HTTPOption {
	return func(s *HTTPSource) { s.httpCfg.Backoff = b }
}

// NewHTTPSource creates an HTTP-backed source.
func NewHTTPSource(client *http.Client, baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		name:    "http",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff(),
		},
		circuit: newBreaker("climate-http", defaultBreakerTimeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Name() string {
	return s.name
}

// GetValue implements climate.SampleSource.
func (s *HTTPSource) GetValue(ctx context.Context, pos climate.Position) (float64, error) {
	if s.baseURL == "" {
		return 0, fmt.Errorf("%w: climate url is not configured", climate.ErrSourceUnavailable)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("x", strconv.Itoa(pos.X))
		values.Set("y", strconv.Itoa(pos.Y))
		values.Set("z", strconv.Itoa(pos.Z))
		return http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := getReading(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", climate.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Temperature *float64 `json:"temperature"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", climate.ErrSourceUnavailable, err)
	}
	if payload.Temperature == nil {
		return 0, fmt.Errorf("%w: response has no temperature", climate.ErrSourceUnavailable)
	}
	if math.IsNaN(*payload.Temperature) || math.IsInf(*payload.Temperature, 0) {
		return 0, fmt.Errorf("%w: non-finite temperature", climate.ErrSourceUnavailable)
	}
	return *payload.Temperature, nil
}
