package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/config"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/viewer"
)

func main() {
	os.Exit(run())
}

// run issues one data request and renders the answer to stdout.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 2
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogJSON); err != nil {
		log.Printf("failed to init logging: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := channel.NewClient(cfg.ServerURL, cfg.Channel,
		channel.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	)
	defer client.Close()

	renderer := viewer.NewTextRenderer(os.Stdout)
	done := make(chan error, 1)

	if _, err := client.Request(ctx, func(resp channel.DataResponse) {
		done <- viewer.Handle(resp, renderer)
	}); err != nil {
		renderer.RenderNoData(err)
		return 1
	}

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, viewer.ErrNoData) {
			return 1
		}
	case <-ctx.Done():
		return 130
	}
	return 0
}
