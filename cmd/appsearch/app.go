package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/config"
	dbElastic "github.com/kailas-cloud/appsearch/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/appsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/appsearch/internal/logger"
	"github.com/kailas-cloud/appsearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/appsearch/internal/repository/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
	reindexuc "github.com/kailas-cloud/appsearch/internal/usecase/reindex"
)

// app holds what every command needs: config, logger and, once connected,
// the two stores.
type app struct {
	env       string
	cfg       config.Config
	logger    *zap.Logger
	analyzers *analysis.Table

	store  *dbRedis.Store
	search *dbElastic.Store
	repo   *catalogrepo.Repo
}

// bootstrap loads config and builds the logger from the persistent flags.
func bootstrap(cmd *cobra.Command) (*app, error) {
	env, _ := cmd.Flags().GetString("env")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger, analyzers: cfg.AnalysisTable()}
	if skipped := a.analyzers.Skipped(); len(skipped) > 0 {
		logger.Info("plugin analyzers disabled", zap.Strings("analyzers", skipped))
	}
	return a, nil
}

// connectSearch creates the search engine client and waits for it.
func (a *app) connectSearch(ctx context.Context) error {
	es, err := dbElastic.NewStore(dbElastic.Config{
		URLs:     a.cfg.Search.URLs,
		Username: a.cfg.Search.Username,
		Password: a.cfg.Search.Password,
		Sniff:    a.cfg.Search.Sniff,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("create search client: %w", err)
	}
	if err := es.WaitForReady(ctx, a.readiness()); err != nil {
		es.Close()
		return fmt.Errorf("search engine not ready: %w", err)
	}
	a.search = es
	a.logger.Info("Connected to search engine", zap.Strings("urls", a.cfg.Search.URLs))
	return nil
}

// connectStore creates the system-of-record client and waits for it.
func (a *app) connectStore(ctx context.Context) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Database.Addrs,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
		DB:       a.cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, a.readiness()); err != nil {
		store.Close()
		return fmt.Errorf("database not ready: %w", err)
	}
	a.store = store
	a.repo = catalogrepo.New(store, a.cfg.Storage.KeyPrefix)
	a.logger.Info("Connected to database", zap.Strings("addrs", a.cfg.Database.Addrs))
	return nil
}

func (a *app) readiness() time.Duration {
	return time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
}

// executor wraps the search client with logging, metrics and the query deadline.
func (a *app) executor() *engine.Executor {
	metrics.RegisterSearchMetrics()
	var opts []engine.Option
	if a.cfg.Search.TimeoutSec > 0 {
		opts = append(opts, engine.WithTimeout(time.Duration(a.cfg.Search.TimeoutSec)*time.Second))
	}
	return engine.NewExecutor(a.search, a.logger, opts...)
}

func (a *app) reindexer() *reindexuc.Service {
	return reindexuc.New(a.repo, a.search, a.analyzers, reindexuc.Config{
		Indexes:   a.cfg.Search.Indexes,
		Shards:    a.cfg.Search.Shards,
		Replicas:  a.cfg.Search.Replicas,
		BatchSize: a.cfg.Search.ReindexBatchSize,
		Workers:   a.cfg.Search.ReindexWorkers,
	}, a.logger)
}

func (a *app) close() {
	if a.search != nil {
		a.search.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
