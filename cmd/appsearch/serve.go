package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/search/listing"
	"github.com/kailas-cloud/appsearch/internal/search/query"
	chiTransport "github.com/kailas-cloud/appsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/appsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/appsearch/internal/usecase/search"
	"github.com/kailas-cloud/appsearch/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the listing API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("ensure-indexes", true, "create missing indexes before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	logger.Info("Starting appsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
	)

	ctx := cmd.Context()
	if err := a.connectStore(ctx); err != nil {
		return err
	}
	if err := a.connectSearch(ctx); err != nil {
		return err
	}

	if ensure, _ := cmd.Flags().GetBool("ensure-indexes"); ensure {
		created, err := a.reindexer().EnsureIndexes(ctx)
		if err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		if len(created) > 0 {
			logger.Warn("Indexes created empty, run reindex", zap.Strings("indexes", created))
		}
	}

	searcher := query.NewSearcher(a.executor(), a.repo, a.cfg.Search.Indexes, logger)
	searchSvc := searchuc.New(searcher, a.repo, listing.NewTranslator(a.analyzers), logger)
	healthSvc := healthuc.New(a.store, a.search)

	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Defaults{
		PageSize:    a.cfg.Listing.DefaultPageSize,
		MaxPageSize: a.cfg.Listing.MaxPageSize,
		AppID:       a.cfg.Listing.AppID,
	})

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, a.cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
