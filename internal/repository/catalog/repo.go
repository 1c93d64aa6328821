// Package catalog is the system of record for listed entities: apps and
// collections kept as JSON values under "<prefix><entity>:<id>" keys.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/app"
	domcat "github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/domain/collection"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// store is the consumer interface for entity records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Compile-time check: Repo is the materializer's entity source.
var _ result.Fetcher = (*Repo)(nil)

// Repo reads and writes entity records.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(entityType string, id int64) string {
	return r.prefix + entityType + ":" + strconv.FormatInt(id, 10)
}

// FetchByIDs loads the records of ids in one round trip. Missing ids are
// skipped; callers treat them as stale references.
func (r *Repo) FetchByIDs(ctx context.Context, entityType string, ids []int64) ([]result.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	decode, err := decoderFor(entityType)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(entityType, id)
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget %s: %w", entityType, err)
	}

	out := make([]result.Entity, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			continue
		}
		e, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, e)
	}
	return out, nil
}

func decoderFor(entityType string) (func([]byte) (result.Entity, error), error) {
	switch entityType {
	case domcat.EntityWebapp:
		return func(raw []byte) (result.Entity, error) {
			var a app.App
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			return &a, nil
		}, nil
	case domcat.EntityCollection:
		return func(raw []byte) (result.Entity, error) {
			var c collection.Collection
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return &c, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q: %w", entityType, domain.ErrInvalidRequest)
	}
}

// GetApp returns an app by id.
func (r *Repo) GetApp(ctx context.Context, id int64) (*app.App, error) {
	var a app.App
	if err := r.get(ctx, r.key(domcat.EntityWebapp, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PutApp stores an app.
func (r *Repo) PutApp(ctx context.Context, a *app.App) error {
	return r.put(ctx, r.key(domcat.EntityWebapp, a.ID), a)
}

// GetCollection returns a collection by id.
func (r *Repo) GetCollection(ctx context.Context, id int64) (*collection.Collection, error) {
	var c collection.Collection
	if err := r.get(ctx, r.key(domcat.EntityCollection, id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCollection stores a collection.
func (r *Repo) PutCollection(ctx context.Context, c *collection.Collection) error {
	return r.put(ctx, r.key(domcat.EntityCollection, c.ID), c)
}

// Delete removes a record.
func (r *Repo) Delete(ctx context.Context, entityType string, id int64) error {
	key := r.key(entityType, id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// ListIDs returns the ids of every record of entityType, unordered.
// Keys with a non-numeric id segment are ignored.
func (r *Repo) ListIDs(ctx context.Context, entityType string) ([]int64, error) {
	prefix := r.prefix + entityType + ":"
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", entityType, err)
	}

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, prefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repo) get(ctx context.Context, key string, dst any) error {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *Repo) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
