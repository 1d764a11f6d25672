package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"pyramid-engine/internal/config"
	"pyramid-engine/internal/handler"
	"pyramid-engine/internal/logger"
	"pyramid-engine/internal/longrange"
	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/presets"
	"pyramid-engine/internal/ratemodel"
	"pyramid-engine/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.New(prometheus.DefaultRegisterer)

	provider, closePresets, err := openPresets(cfg, log)
	if err != nil {
		return err
	}
	defer closePresets()

	var predictor ratemodel.Predictor
	if cfg.ModelServiceURL != "" {
		predictor = ratemodel.New(cfg.ModelServiceURL, cfg.ModelTimeout, cfg.ModelCacheSize, m)
		log.Info("rate model configured", "url", cfg.ModelServiceURL)
	} else {
		log.Warn("MODEL_SERVICE_URL not set, projections hold rates constant")
	}
	projector := longrange.New(predictor, cfg.ReferenceYear, m)

	store, closeStore, err := openSessions(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	h := handler.New(handler.Deps{
		Sessions:      session.NewService(store, provider, projector, cfg.ReferenceYear, m),
		Presets:       provider,
		Predictor:     predictor,
		Projector:     projector,
		ReferenceYear: cfg.ReferenceYear,
		Logger:        log,
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
	})

	srv := &fasthttp.Server{
		Handler:      h.Handle,
		Name:         "pyramid-engine",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Pyramid engine starting on port %s", cfg.Port))
		errCh <- srv.ListenAndServe(cfg.Addr())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.ShutdownWithContext(shutdownCtx)
}

// openPresets picks the preset source: a SQLite database seeded from the
// bundled presets when empty, a YAML file, or the bundled presets.
func openPresets(cfg config.Server, log *slog.Logger) (presets.Provider, func(), error) {
	noop := func() {}

	if cfg.PresetDB != "" {
		db, err := presets.OpenSQLite(cfg.PresetDB)
		if err != nil {
			return nil, noop, err
		}
		ctx := context.Background()
		n, err := db.Count(ctx)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		if n == 0 {
			bundled, err := presets.Default()
			if err != nil {
				db.Close()
				return nil, noop, err
			}
			if err := db.Import(ctx, bundled.All()); err != nil {
				db.Close()
				return nil, noop, err
			}
			log.Info("seeded preset database", "path", cfg.PresetDB, "presets", len(bundled.All()))
		}
		return db, func() { db.Close() }, nil
	}

	if cfg.PresetFile != "" {
		store, err := presets.LoadFile(cfg.PresetFile)
		if err != nil {
			return nil, noop, err
		}
		log.Info("loaded presets", "path", cfg.PresetFile)
		return store, noop, nil
	}

	store, err := presets.Default()
	if err != nil {
		return nil, noop, err
	}
	return store, noop, nil
}

// openSessions uses Redis when REDIS_URL is set and process memory otherwise.
func openSessions(cfg config.Server, log *slog.Logger) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, func() {}, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("using redis session store", "addr", opts.Addr)
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}
