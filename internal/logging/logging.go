// Package logging provides structured component loggers built on log/slog.
//
//	logging.Init("info", false)
//	log := logging.Component("store")
//	log.Info("persisted", "path", p)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	root     *slog.Logger
	levelVar slog.LevelVar
)

// Init installs the process-wide logger. level accepts debug, info,
// warn/warning and error; jsonFormat switches to the JSON handler.
func Init(level string, jsonFormat bool) error {
	return InitWithWriter(os.Stdout, level, jsonFormat)
}

// InitWithWriter is Init with an explicit destination, used by tests.
func InitWithWriter(w io.Writer, level string, jsonFormat bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(lvl)

	opts := &slog.HandlerOptions{Level: &levelVar, AddSource: lvl == slog.LevelDebug}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	root = slog.New(h)
	mu.Unlock()
	slog.SetDefault(root)
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// Component returns a logger tagged with component=name. If Init was never
// called a text logger at info level is installed first.
func Component(name string) *slog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l == nil {
		_ = Init("info", false)
		mu.RLock()
		l = root
		mu.RUnlock()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
