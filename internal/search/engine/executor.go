package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/metrics"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
)

const opSearch = "search"

// Executor runs compiled queries, logging failures with the query body and
// recording latency. Errors are returned as-is; there is no retry.
type Executor struct {
	client  Client
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout bounds every search. Zero leaves the caller's context alone.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates an executor over client.
func NewExecutor(client Client, log *zap.Logger, opts ...Option) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{client: client, logger: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs q against index.
func (e *Executor) Execute(ctx context.Context, q *dsl.Compiled, index, docType string) (*Response, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.client.Search(ctx, q, index, docType)
	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(index, docType).Observe(elapsed.Seconds())

	if err != nil {
		err = Classify(opSearch, index, 0, err)
		kind := KindConnection
		var te *TransportError
		if errors.As(err, &te) {
			kind = te.Kind
		}
		metrics.SearchErrorsTotal.WithLabelValues(index, string(kind)).Inc()
		body, _ := q.JSON()
		e.logger.Error("search failed",
			zap.String("index", index),
			zap.String("doc_type", docType),
			zap.ByteString("query", body),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.SearchTook.WithLabelValues(index, docType).Observe(resp.Took.Seconds())
	if e.logger.Core().Enabled(zap.DebugLevel) {
		body, _ := q.JSON()
		e.logger.Debug("search",
			zap.String("index", index),
			zap.Duration("took", resp.Took),
			zap.Duration("elapsed", elapsed),
			zap.ByteString("query", body),
		)
	}
	return resp, nil
}
