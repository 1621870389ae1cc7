package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/wavecrest/wave-engine/internal/adapter/http"
	kafkaadapter "github.com/wavecrest/wave-engine/internal/adapter/kafka"
	"github.com/wavecrest/wave-engine/internal/adapter/ws"
	"github.com/wavecrest/wave-engine/internal/config"
	"github.com/wavecrest/wave-engine/internal/engine"
	"github.com/wavecrest/wave-engine/internal/observability"
	"github.com/wavecrest/wave-engine/internal/pipeline"
	"github.com/wavecrest/wave-engine/internal/sim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	def, err := config.LoadEventDefinition(cfg.EventFile)
	if err != nil {
		logger.Error("failed to load event definition", "error", err)
		os.Exit(1)
	}

	simulation, err := sim.New(def.Parameters(), def.Areas(), def.BoundingBox(), clockwork.NewRealClock())
	if err != nil {
		logger.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	eng := engine.New(def.ID, simulation)
	logger.Info("event loaded",
		"event_id", def.ID,
		"wave_start", def.Wave.Start,
		"wave_speed_mps", def.Wave.SpeedMPS,
		"wave_direction", def.Wave.Direction,
		"areas", len(def.Polygons),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	evaluator := pipeline.NewEvaluator(simulation, cfg.NearEventWindow, logger)

	p := pipeline.New(reader, evaluator, writer, logger, metrics, cfg.BatchSize)

	feed := ws.NewFeed(eng, cfg.LiveFeedInterval, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, eng, feed.Handler(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start evaluation pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
