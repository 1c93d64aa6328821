// Package elastic is the search engine adapter: it runs compiled queries,
// manages index lifecycle and bulk-indexes documents over olivere/elastic.
package elastic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
)

// Compile-time checks.
var (
	_ engine.Client   = (*Store)(nil)
	_ db.IndexManager = (*Store)(nil)
	_ db.BulkIndexer  = (*Store)(nil)
	_ db.Pinger       = (*Store)(nil)
)

// Config holds connection parameters for the search engine.
type Config struct {
	URLs     []string
	Username string
	Password string
	// Sniff discovers cluster nodes; disable behind load balancers.
	Sniff bool
}

// Store implements engine.Client and index management via olivere/elastic.
type Store struct {
	client *elastic.Client
	url    string
}

// NewStore creates a search engine client. No request is sent until first use.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("urls is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(false),
		elastic.SetErrorLog(zap.NewStdLog(logger.Named("elastic"))),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, url: cfg.URLs[0]}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, code, err := s.client.Ping(s.url).Do(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", classify("ping", "", err))
	}
	if code >= 300 {
		return fmt.Errorf("ping: unexpected status %d", code)
	}
	return nil
}

// Close stops the client's background processes.
func (s *Store) Close() {
	s.client.Stop()
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// classify turns a client error into an *engine.TransportError.
func classify(op, index string, err error) error {
	return engine.Classify(op, index, statusOf(err), err)
}

func statusOf(err error) int {
	var e *elastic.Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func errorType(err error) string {
	var e *elastic.Error
	if errors.As(err, &e) && e.Details != nil {
		return e.Details.Type
	}
	return ""
}
