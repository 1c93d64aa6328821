package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/app"
	domcat "github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/domain/collection"
)

// --- Put / Get ---

func TestPutGetApp(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	in := &app.App{ID: 7, Slug: "tabs", Name: app.Translated{{Locale: "en-US", String: "Tabs"}}}
	if err := repo.PutApp(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := ms.data["appsearch:webapp:7"]; !ok {
		t.Fatalf("expected key appsearch:webapp:7, got %v", ms.data)
	}

	out, err := repo.GetApp(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Slug != "tabs" || out.DisplayName("en-US") != "Tabs" {
		t.Errorf("unexpected app: %+v", out)
	}
}

func TestGetApp_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.GetApp(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetApp_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	boom := errors.New("boom")
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, boom }

	_, err := repo.GetApp(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestGetApp_Corrupt(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.data["appsearch:webapp:1"] = []byte("{")
	if _, err := repo.GetApp(context.Background(), 1); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPutGetCollection(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.PutCollection(ctx, &collection.Collection{ID: 3, Slug: "games", Listed: true}); err != nil {
		t.Fatalf("put: %v", err)
	}
	c, err := repo.GetCollection(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !c.Listed || c.Slug != "games" {
		t.Errorf("unexpected collection: %+v", c)
	}
}

// --- FetchByIDs ---

func TestFetchByIDs_SkipsMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for _, id := range []int64{1, 3} {
		if err := repo.PutApp(ctx, &app.App{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.FetchByIDs(ctx, domcat.EntityWebapp, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(got))
	}
	if got[0].SearchID() != 1 || got[1].SearchID() != 3 {
		t.Errorf("unexpected ids: %d, %d", got[0].SearchID(), got[1].SearchID())
	}
	if _, ok := got[0].(*app.App); !ok {
		t.Errorf("expected *app.App, got %T", got[0])
	}
}

func TestFetchByIDs_OneRoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	calls := 0
	ms.mgetFn = func(_ context.Context, keys []string) ([][]byte, error) {
		calls++
		if len(keys) != 3 || keys[0] != "appsearch:collection:5" {
			t.Errorf("unexpected keys: %v", keys)
		}
		return make([][]byte, len(keys)), nil
	}

	got, err := repo.FetchByIDs(context.Background(), domcat.EntityCollection, []int64{5, 6, 7})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 MGET, got %d", calls)
	}
	if len(got) != 0 {
		t.Errorf("expected no entities, got %d", len(got))
	}
}

func TestFetchByIDs_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.mgetFn = func(context.Context, []string) ([][]byte, error) {
		t.Fatal("MGET must not be called")
		return nil, nil
	}
	got, err := repo.FetchByIDs(context.Background(), domcat.EntityWebapp, nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestFetchByIDs_UnknownType(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.FetchByIDs(context.Background(), "addon", []int64{1})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

// --- ListIDs / Delete ---

func TestListIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "appsearch:webapp:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"appsearch:webapp:9", "appsearch:webapp:2", "appsearch:webapp:bad"}, nil
	}

	ids, err := repo.ListIDs(context.Background(), domcat.EntityWebapp)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 9 {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.data["appsearch:webapp:4"] = []byte("{}")
	if err := repo.Delete(context.Background(), domcat.EntityWebapp, 4); err != nil {
		t.Fatal(err)
	}
	if len(ms.data) != 0 {
		t.Errorf("expected key removed, got %v", ms.data)
	}
}
