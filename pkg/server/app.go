package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/handler/api"
	mid "PriceCast/internal/middleware"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/services/series"
	"PriceCast/internal/usecase"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
)

// Deps are everything the app needs, assembled by DI.
type Deps struct {
	Config     *config.Config
	Logger     *applogger.Logger
	Metrics    repository.Metrics
	Feed       repository.PriceFeed
	Source     repository.DataSource
	Predictor  domsvc.Predictor
	Trainer    domsvc.Trainer
	ModelStore repository.ModelStore
	Processor  *usecase.RecordProcessor
	Pipeline   *mid.RecordPipeline
	Consumer   *pkgkafka.Consumer
	Store      repository.RecordStore
	Cache      cache.BytesCache
	ClickHouse *pkgch.Client
}

// App encapsulates the application lifecycle: bootstrap, live session,
// HTTP surface, and graceful shutdown.
type App struct {
	d          Deps
	httpServer *xhttp.Server
	session    *usecase.LiveSession
}

// New creates a new App instance.
func New(d Deps) *App {
	return &App{d: d}
}

// Run starts the application and blocks until the session finishes or
// a signal arrives.
func (a *App) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l := a.d.Logger
	cfg := a.d.Config

	session, seed, err := a.bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	a.session = session
	session.Seed(seed)
	l.Info("session prepared",
		applogger.String("session_id", session.ID()),
		applogger.Int("seeded", len(seed)),
	)

	a.d.Pipeline.Start(ctx)
	defer a.d.Pipeline.Stop()

	handler := api.NewSessionHandler(l, session, a.storeForAPI(), a.d.Cache, cfg.Cache.SnapshotTTL)
	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Path != "" {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(handler, serverOpts...)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}
	l.Info("http server started", applogger.Int("port", cfg.Server.Port))

	if a.d.Consumer != nil {
		go func() {
			if err := a.d.Consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", cfg.Kafka.Topic))
	}

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- session.Run(ctx)
	}()

	select {
	case err := <-sessionDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("session error", applogger.Error(err))
		}
	case <-ctx.Done():
		l.Info("shutdown signal received")
		// the session honors the same ctx; wait for it to land
		<-sessionDone
	}

	a.logFinalSnapshot()
	return a.shutdown()
}

// bootstrap fetches history, fits the scaler, resolves the model
// manifest, and builds the live session. The scaler is fitted exactly
// once here; a loaded manifest replaces the fit with the bounds the
// model was trained under.
func (a *App) bootstrap(ctx context.Context) (*usecase.LiveSession, []float64, error) {
	cfg := a.d.Config
	l := a.d.Logger

	prep, err := usecase.Prepare(ctx, a.d.Source, cfg.Feed.HistoryDays, cfg.Model.Window, cfg.Model.SplitFraction)
	if err != nil {
		return nil, nil, err
	}
	scaler := prep.Scaler
	norm := prep.Norm

	switch {
	case cfg.Predictor.TrainOnStart && a.d.Trainer != nil:
		manifest, err := a.d.Trainer.Train(ctx, prep.Train, prep.Test)
		if err != nil {
			return nil, nil, fmt.Errorf("train: %w", err)
		}
		manifest.ScaleMin, manifest.ScaleMax = scaler.Bounds()
		if err := a.d.ModelStore.Save(manifest); err != nil {
			return nil, nil, fmt.Errorf("save manifest: %w", err)
		}
		l.Info("model trained",
			applogger.String("model_id", manifest.ModelID),
			applogger.Int("train", len(prep.Train)),
			applogger.Int("test", len(prep.Test)),
		)
	default:
		manifest, err := a.d.ModelStore.Load()
		switch {
		case err == nil && manifest.Window == cfg.Model.Window:
			restored, rerr := series.RestoreScaleTransformer(manifest.ScaleMin, manifest.ScaleMax)
			if rerr != nil {
				return nil, nil, fmt.Errorf("restore scaler: %w", rerr)
			}
			scaler = restored
			norm = scaler.ForwardAll(prep.Hist.Prices())
			l.Info("model manifest loaded",
				applogger.String("model_id", manifest.ModelID),
				applogger.String("trained_at", manifest.TrainedAt.Format(time.RFC3339)),
			)
		case errors.Is(err, repository.ErrModelNotFound):
			l.Warn("no model manifest, running with startup fit")
		case err != nil:
			return nil, nil, fmt.Errorf("load manifest: %w", err)
		default:
			l.Warn("manifest window mismatch, running with startup fit",
				applogger.Int("manifest_window", manifest.Window),
				applogger.Int("configured_window", cfg.Model.Window),
			)
		}
	}

	buffer, err := series.NewStreamingBuffer(cfg.Buffer.HighWater, cfg.Buffer.LowWater)
	if err != nil {
		return nil, nil, err
	}

	session, err := usecase.NewLiveSession(
		usecase.LiveSessionConfig{
			Window:       cfg.Model.Window,
			Duration:     time.Duration(cfg.Live.DurationMinutes) * time.Minute,
			Interval:     time.Duration(cfg.Live.IntervalSeconds) * time.Second,
			ThresholdPct: cfg.Live.ThresholdPct,
		},
		a.d.Feed,
		a.d.Predictor,
		scaler,
		buffer,
		a.d.Pipeline,
		a.d.Metrics,
		l,
	)
	if err != nil {
		return nil, nil, err
	}

	// seed at most low-water points so live appends have headroom
	// before the first truncation
	seed := norm
	if len(seed) > cfg.Buffer.LowWater {
		seed = seed[len(seed)-cfg.Buffer.LowWater:]
	}
	return session, seed, nil
}

// storeForAPI exposes storage to the records endpoint only when the
// session actually routes records there.
func (a *App) storeForAPI() repository.RecordStore {
	if a.d.Config.Backend.Type == usecase.BackendClickHouse || a.d.Consumer != nil {
		return a.d.Store
	}
	return nil
}

func (a *App) logFinalSnapshot() {
	l := a.d.Logger
	snap, err := a.session.Snapshot(a.d.Config.Live.ThresholdPct)
	if err != nil {
		if errors.Is(err, series.ErrNoData) {
			l.Warn("session recorded no predictions")
			return
		}
		l.Error("final snapshot error", applogger.Error(err))
		return
	}
	l.Info("final snapshot",
		applogger.Int("total", snap.Total),
		applogger.Float64("accuracy_pct", snap.AccuracyPct),
		applogger.Float64("rmse", snap.RMSE),
		applogger.Float64("mae", snap.MAE),
		applogger.Float64("mape", snap.MAPE),
	)
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	l := a.d.Logger
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.d.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.d.Consumer != nil {
		if err := a.d.Consumer.Close(); err != nil {
			l.Warn("kafka consumer close error", applogger.Error(err))
		}
	}
	if a.d.Processor != nil {
		a.d.Processor.Close()
	}
	if a.d.ClickHouse != nil {
		if err := a.d.ClickHouse.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
