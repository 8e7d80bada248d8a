package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/temperature-monitor/internal/api/http"
	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/climate/sources"
	"github.com/i474232898/temperature-monitor/internal/config"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
	"github.com/i474232898/temperature-monitor/internal/monitor"
	"github.com/i474232898/temperature-monitor/internal/scheduler"
	"github.com/i474232898/temperature-monitor/internal/sensor"
	"github.com/i474232898/temperature-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogJSON); err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}
	logg := logging.Component("main")

	m := metrics.NewManager()
	calendar := cfg.Calendar()
	clock := climate.NewSimClock(cfg.SimStartHours, cfg.SimSpeed)

	// Sample source: deterministic simulator or a remote climate endpoint.
	var source climate.SampleSource
	switch cfg.Source {
	case "http":
		source = sources.NewHTTPSource(&http.Client{Timeout: cfg.SourceTimeout}, cfg.SourceURL,
			sources.WithBreakerTimeout(cfg.TickInterval),
		)
	default:
		source = sources.NewSynthetic(clock, calendar, cfg.BaseTemperature)
	}

	worldDir := cfg.WorldDir()
	sensors, err := sensor.Open(filepath.Join(worldDir, sensor.DefaultFileName), cfg.Spawn(), logging.Component("sensor"))
	if err != nil {
		logg.Warn("sensor settings not saved; continuing with defaults", "error", err)
	}

	st := store.NewDurableStore(worldDir, cfg.FileName,
		store.WithLogger(logging.Component("store")),
		store.WithMetrics(m),
	)

	service := monitor.New(st, source, calendar, sensors,
		monitor.WithDebounce(cfg.PersistDebounce),
		monitor.WithLogger(logging.Component("monitor")),
		monitor.WithMetrics(m),
	)

	channels := channel.NewServer(channel.WithServerMetrics(m))
	if err := channels.Register(cfg.Channel, channel.SnapshotHandler(service)); err != nil {
		log.Fatalf("failed to register channel %q: %v", cfg.Channel, err)
	}

	sched := scheduler.New(clock, service,
		scheduler.WithTick(cfg.TickInterval),
		scheduler.WithGranule(cfg.SampleGranule),
		scheduler.WithFlusher(service),
	)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "temperature-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:    service,
		Channels:   channels,
		Metrics:    m,
		AdminToken: cfg.AdminToken,
	})

	go func() {
		logg.Info("listening", "addr", cfg.Addr, "data", st.Path())
		if err := app.Listen(cfg.Addr); err != nil {
			logg.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Error("error during shutdown", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logg.Error("final flush failed", "error", err)
	}
}
