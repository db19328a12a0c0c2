package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smarthow-source/ATS-design-concept/internal/config"
	"github.com/smarthow-source/ATS-design-concept/internal/db"
	"github.com/smarthow-source/ATS-design-concept/internal/seed"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
	"github.com/smarthow-source/ATS-design-concept/internal/store"
	"github.com/smarthow-source/ATS-design-concept/internal/store/memory"
	"github.com/smarthow-source/ATS-design-concept/internal/store/postgres"
	"github.com/smarthow-source/ATS-design-concept/internal/tracker"
)

// app holds the wired service and whatever must be closed with it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	svc     *tracker.Service
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// buildApp loads config, connects the store and the event bus and seeds
// demo data.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := newLogger(zap.NewAtomicLevelAt(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}

	var st store.Store
	switch cfg.Store {
	case config.StorePostgres:
		log.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		st = postgres.New(pool)
	default:
		st = memory.New()
	}

	var pub tracker.Publisher = tracker.NopPublisher{}
	if cfg.RedisURL != "" {
		log.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		pub = tracker.NewRedisPublisher(rdb)
	} else {
		log.Info("REDIS_URL not set, events are disabled")
	}

	a.svc = tracker.NewService(st, settings.New(settings.Defaults()), pub, log, tracker.WithTAName(cfg.TAName))

	if err := seedStore(ctx, a.svc, st, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func seedStore(ctx context.Context, svc *tracker.Service, st store.Store, cfg *config.Config) error {
	f, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	jobs, cands, err := f.Build(time.Now(), cfg.TAName)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := svc.CheckJob(j); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if err := st.Seed(ctx, jobs, cands); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
