package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
)

// Server dispatches DataRequests to registered channel handlers.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      *slog.Logger
	metrics  *metrics.Manager
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithServerMetrics sets the metrics manager.
func WithServerMetrics(m *metrics.Manager) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server with no channels.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{handlers: make(map[string]Handler)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Component("channel")
	}
	return s
}

// Register binds h to name, replacing any previous handler.
func (s *Server) Register(name string, h Handler) error {
	name = strings.TrimSpace(name)
	if name == "" || h == nil {
		return ErrInvalidName
	}
	s.mu.Lock()
	s.handlers[name] = h
	s.mu.Unlock()
	s.log.Debug("channel registered", "channel", name)
	return nil
}

// Dispatch answers req on channel name. It returns ErrChannelUnavailable if
// nothing is registered under name.
func (s *Server) Dispatch(ctx context.Context, name string, req DataRequest) (DataResponse, error) {
	s.mu.RLock()
	h, ok := s.handlers[name]
	s.mu.RUnlock()
	if !ok {
		return DataResponse{}, fmt.Errorf("%w: %q", ErrChannelUnavailable, name)
	}

	resp := h(ctx, req)
	resp.RequestID = req.RequestID
	if !resp.Success {
		resp.Document = ""
	}
	s.metrics.SyncRequest(name, resp.Success)
	s.log.Debug("data request answered", "channel", name, "request_id", req.RequestID,
		"success", resp.Success, "bytes", len(resp.Document))
	return resp, nil
}

// Mount registers POST <prefix>/channels/:channel on r.
func (s *Server) Mount(r fiber.Router) {
	r.Post("/channels/:channel", s.handle)
}

func (s *Server) handle(c *fiber.Ctx) error {
	var req DataRequest
	if body := c.Body(); len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid data request")
		}
	}

	name := c.Params("channel")
	resp, err := s.Dispatch(c.UserContext(), name, req)
	if err != nil {
		s.log.Warn("data request on unknown channel", "channel", name, "request_id", req.RequestID)
		return fiber.NewError(fiber.StatusNotFound, ErrChannelUnavailable.Error())
	}
	return c.JSON(resp)
}
