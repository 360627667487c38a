package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/kestrelsec/scanflow"
	"github.com/kestrelsec/scanflow/internal/config"
	"github.com/kestrelsec/scanflow/internal/engine"
	"github.com/kestrelsec/scanflow/internal/metrics"
	"github.com/kestrelsec/scanflow/internal/scanner"
	"github.com/kestrelsec/scanflow/internal/server"
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/pkg/events"
	"github.com/kestrelsec/scanflow/pkg/log"
)

type scanflow struct {
	cfg        *config.Config
	hub        *events.Hub
	store      *store.Store
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &scanflow{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *scanflow) run() error {
	if err := s.initializeEngine(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *scanflow) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)
	logger := log.NewWithLevel(app.Name, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Scanflow Engine starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort),
		slog.Duration("tick_interval", s.cfg.TickInterval),
		slog.Int("tick_ceiling", s.cfg.TickCeiling))
}

func (s *scanflow) initializeEngine() error {
	s.hub = events.NewHub()
	s.store = store.New(s.hub)

	backend := scanner.NewMock(scanner.Delays{
		Slow:       s.cfg.SlowScanDelay,
		Normal:     s.cfg.NormalScanDelay,
		Aggressive: s.cfg.AggressiveScanDelay,
	})

	eng, err := engine.New(s.cfg, engine.Dependencies{
		Store:   s.store,
		Backend: backend,
	})
	if err != nil {
		return err
	}
	s.engine = eng
	return s.engine.Start()
}

func (s *scanflow) startServer() {
	agg := metrics.NewAggregator(s.store)
	s.apiServer = server.NewServer(s.engine, s.store, agg, s.hub)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *scanflow) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if err := s.engine.Stop(); err != nil {
		slog.Error("Engine shutdown failed", log.Error(err))
	}

	s.hub.Close()

	slog.Info("Server exited")
}
