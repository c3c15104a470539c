package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/auticonnect"
	"github.com/aretw0/auticonnect/internal/config"
	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/adapters/file"
	"github.com/aretw0/auticonnect/pkg/adapters/memory"
	"github.com/aretw0/auticonnect/pkg/adapters/redis"
	"github.com/aretw0/auticonnect/pkg/adapters/sqlite"
	"github.com/aretw0/auticonnect/pkg/mediation"
	"github.com/aretw0/auticonnect/pkg/observability"
	"github.com/aretw0/auticonnect/pkg/persistence/middleware"
	"github.com/aretw0/auticonnect/pkg/ports"
	"github.com/aretw0/auticonnect/pkg/session"
	"github.com/spf13/cobra"
)

// app holds the wired engine and everything that must be closed on exit.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	engine  *auticonnect.Engine
	metrics *observability.Metrics
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(level, logging.Format(cfg.Log.Format)), nil
}

// newApp wires repository, session store, mediator and hooks from the configuration.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	store, sessionOpts, err := a.openSessionStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	mediator, err := a.newMediator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	sessionOpts = append(sessionOpts,
		session.WithTTL(cfg.Session.TTL),
		session.WithLockTTL(cfg.Session.LockTTL),
	)
	a.engine, err = auticonnect.New(repo, store,
		auticonnect.WithLogger(logger),
		auticonnect.WithMediator(mediator),
		auticonnect.WithMaxInputSize(cfg.MaxInputSize),
		auticonnect.WithLifecycleHooks(observability.Combine(a.metrics.Hooks(), observability.LoggingHooks(logger))),
		auticonnect.WithSessionOptions(sessionOpts...),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return a, nil
}

func (a *app) openRepository(ctx context.Context) (ports.Repository, error) {
	switch a.cfg.Store.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.Open(ctx, a.cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.logger.Info("Using SQLite store", "path", a.cfg.Store.Path)
		return repo, nil
	default:
		return memory.NewRepository(), nil
	}
}

func (a *app) openSessionStore() (ports.SessionStore, []session.Option, error) {
	var (
		store ports.SessionStore = memory.NewSessionStore()
		opts  []session.Option
	)
	switch a.cfg.Session.Backend {
	case config.BackendFile:
		store = file.New(a.cfg.Session.Dir)
		a.logger.Info("Using file sessions", "dir", a.cfg.Session.Dir)
	case config.BackendRedis:
		rc := a.cfg.Session.Redis
		client := redis.NewClient(rc.Addr, rc.Password, rc.DB)
		rs := redis.NewSessionStore(client,
			redis.WithPrefix(rc.Prefix+"session:"),
			redis.WithTTL(a.cfg.Session.TTL),
		)
		a.closers = append(a.closers, rs.Close)
		a.logger.Info("Using Redis sessions", "addr", rc.Addr, "db", rc.DB)
		store = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(client, rc.Prefix)))
	}

	enc, err := a.cfg.Session.Encryption()
	if err != nil {
		return nil, nil, err
	}
	if enc != nil {
		mw, err := middleware.NewEncryptionMiddleware(*enc)
		if err != nil {
			return nil, nil, err
		}
		store = middleware.Chain(store, mw)
		a.logger.Info("Session encryption enabled", "fallback_keys", len(enc.FallbackKeys))
	}
	return store, opts, nil
}

func (a *app) newMediator(ctx context.Context) (ports.Mediator, error) {
	var m ports.Mediator = mediation.NewCanned()
	if a.cfg.Mediator.Backend == config.BackendArk {
		ark := a.cfg.Mediator.Ark
		chain, err := mediation.NewArkChain(ctx, mediation.ArkConfig{
			APIKey:  ark.APIKey,
			Model:   ark.Model,
			BaseURL: ark.BaseURL,
			Region:  ark.Region,
		})
		if err != nil {
			return nil, err
		}
		m = mediation.NewLLM(chain, mediation.WithLogger(a.logger))
	}
	return mediation.NewThrottle(m, a.cfg.Mediator.GroupCooldown), nil
}
