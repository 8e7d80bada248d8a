package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-monitor/internal/logging"
)

var errUnexpectedStatus = errors.New("unexpected status code")

// Client sends DataRequests to a remote Server. Responses are delivered
// asynchronously to the callback passed to Request.
type Client struct {
	endpoint string
	channel  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      *slog.Logger

	// mu orders the closed check and inflight.Add against Close.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for channel on the server at baseURL
// (for example "http://localhost:8080/api/v1").
func NewClient(baseURL, channel string, opts ...ClientOption) *Client {
	c := &Client{
		channel: strings.TrimSpace(channel),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	if base := strings.TrimRight(strings.TrimSpace(baseURL), "/"); base != "" && c.channel != "" {
		c.endpoint = base + "/channels/" + url.PathEscape(c.channel)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.Component("channel-client")
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "channel-" + c.channel,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return c
}

// Request sends one DataRequest and returns its id. The callback runs exactly
// once on another goroutine, with success=false if the transport fails.
// ErrChannelUnavailable is returned synchronously and the callback is not
// invoked when the channel cannot be used at all.
func (c *Client) Request(ctx context.Context, callback func(DataResponse)) (string, error) {
	if callback == nil {
		return "", errors.New("nil callback")
	}
	if c.breaker.State() == gobreaker.StateOpen {
		return "", fmt.Errorf("%w: %s", ErrChannelUnavailable, gobreaker.ErrOpenState)
	}

	c.mu.Lock()
	if c.closed || c.endpoint == "" {
		c.mu.Unlock()
		return "", ErrChannelUnavailable
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	id := uuid.NewString()
	go func() {
		defer c.inflight.Done()
		resp, err := c.send(ctx, DataRequest{RequestID: id})
		if err != nil {
			c.log.Warn("data request failed", "channel", c.channel, "request_id", id, "error", err)
			resp = NoData(id)
		}
		callback(resp)
	}()
	return id, nil
}

func (c *Client) send(ctx context.Context, req DataRequest) (DataResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return DataResponse{}, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		switch {
		case httpResp.StatusCode == http.StatusNotFound:
			return nil, ErrChannelUnavailable
		case httpResp.StatusCode < 200 || httpResp.StatusCode >= 300:
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, httpResp.StatusCode)
		}

		var resp DataResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
			return nil, fmt.Errorf("decode data response: %w", err)
		}
		return resp, nil
	})
	if err != nil {
		return DataResponse{}, err
	}

	resp := result.(DataResponse)
	if resp.RequestID == "" {
		resp.RequestID = req.RequestID
	}
	return resp, nil
}

// Close rejects new requests and waits for in-flight callbacks to finish.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()
}
