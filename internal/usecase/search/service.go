package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/listing"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
	"github.com/kailas-cloud/appsearch/internal/search/query"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// Suggestion limits.
const (
	suggestMinLength = 3
	suggestLimit     = 10
)

// Request is a listing request: cleaned parameters plus paging and scope.
type Request struct {
	Params  listing.Params
	Page    int
	PerPage int
	AppID   int
	Locale  string
}

// CollectionAppsRequest lists the apps of one collection.
type CollectionAppsRequest struct {
	CollectionID int64
	Region       string
	Device       string
	Page         int
	PerPage      int
}

// Page is one page of listing results. Degraded pages are empty because the
// search engine could not serve them.
type Page struct {
	Items    []any
	Total    int64
	Facets   map[string][]result.Bucket
	Page     int
	PerPage  int
	Degraded bool
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID   int64
	Name string
	Slug string
}

// Suggestions is the autocomplete answer.
type Suggestions struct {
	Items    []Suggestion
	Degraded bool
}

// Service runs the marketplace listings.
type Service struct {
	queries    QueryStarter
	colls      CollectionReader
	translator *listing.Translator
	logger     *zap.Logger
}

// New creates a search service.
func New(queries QueryStarter, colls CollectionReader, translator *listing.Translator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{queries: queries, colls: colls, translator: translator, logger: logger}
}

// SearchApps runs the main add-on listing. A persona type switches to the
// persona listing.
func (s *Service) SearchApps(ctx context.Context, req Request) (*Page, error) {
	l := listing.AppListing()
	if req.Params.Type == catalog.TypePersona {
		l = listing.PersonaListing()
	}

	q := s.queries.Query(catalog.EntityWebapp).Filter(query.Criteria{
		mapping.FieldStatus + "__in": reviewedStatuses(),
		mapping.FieldIsDisabled:      false,
	})
	if req.AppID != 0 {
		q = q.Filter(query.Criteria{mapping.FieldApp: req.AppID})
	}
	q = s.translator.Apply(q, req.Params, l, listing.Scope{AppID: req.AppID, Locale: req.Locale})
	if l.Name == listing.AppListing().Name {
		q = q.Facet(listing.Facets(req.AppID))
	}
	return s.page(ctx, q, req.Page, req.PerPage)
}

// SearchCollections runs the collection listing.
func (s *Service) SearchCollections(ctx context.Context, req Request) (*Page, error) {
	q := s.queries.Query(catalog.EntityCollection).Filter(query.Criteria{mapping.FieldListed: true})
	if req.AppID != 0 {
		q = q.Filter(query.Criteria{mapping.FieldApp: req.AppID})
	}
	q = s.translator.Apply(q, req.Params, listing.CollectionListing(), listing.Scope{AppID: req.AppID, Locale: req.Locale})
	return s.page(ctx, q, req.Page, req.PerPage)
}

// CollectionApps lists the public webapps of a collection in collection
// order, hiding apps excluded from the region and flash apps on devices
// that cannot run them.
func (s *Service) CollectionApps(ctx context.Context, req CollectionAppsRequest) (*Page, error) {
	if _, err := s.colls.GetCollection(ctx, req.CollectionID); err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	q := s.queries.Query(catalog.EntityWebapp).
		Filter(query.Criteria{
			mapping.FieldType:       int(catalog.TypeWebapp),
			mapping.FieldStatus:     int(catalog.StatusPublic),
			mapping.FieldIsDisabled: false,
			mapping.CollectionID:    req.CollectionID,
		}).
		OrderBy(mapping.CollectionOrder)

	if req.Region != "" {
		region, ok := catalog.RegionBySlug(req.Region)
		if !ok {
			return nil, fmt.Errorf("unknown region %q: %w", req.Region, domain.ErrInvalidRequest)
		}
		q = q.Where(&dsl.Not{Clause: &dsl.Term{Field: mapping.FieldRegionExclusions, Value: region.ID}})
	}
	if req.Device != "" {
		device, ok := catalog.DeviceByName(req.Device)
		if !ok {
			return nil, fmt.Errorf("unknown device %q: %w", req.Device, domain.ErrInvalidRequest)
		}
		if !device.SupportsFlash() {
			q = q.Filter(query.Criteria{mapping.FieldUsesFlash: false})
		}
	}
	return s.page(ctx, q, req.Page, req.PerPage)
}

// Suggest returns up to ten name matches for an autocomplete prefix.
// Queries shorter than three characters return nothing.
func (s *Service) Suggest(ctx context.Context, text, locale string) (*Suggestions, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < suggestMinLength {
		return &Suggestions{Items: []Suggestion{}}, nil
	}

	lower := strings.ToLower(text)
	q := s.queries.Query(catalog.EntityWebapp).
		Query(query.Criteria{query.OrKey: listing.NameOnlyQuery(lower, s.translator.LocaleAnalyzer(locale))}).
		Filter(query.Criteria{
			mapping.FieldIsDisabled:      false,
			mapping.FieldType + "__in":   lo.Map(catalog.ListingTypes, func(t catalog.Type, _ int) int { return int(t) }),
			mapping.FieldStatus + "__in": reviewedStatuses(),
		}).
		ValuesDict(mapping.FieldNameSort, mapping.FieldSlug).
		Slice(0, suggestLimit)

	res, err := q.Results(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			s.logger.Warn("suggestions degraded", zap.Error(err))
			return &Suggestions{Items: []Suggestion{}, Degraded: true}, nil
		}
		return nil, fmt.Errorf("suggest: %w", err)
	}

	items := make([]Suggestion, 0, len(res.Dicts))
	for _, d := range res.Dicts {
		items = append(items, Suggestion{
			ID:   cast.ToInt64(d[mapping.FieldID]),
			Name: cast.ToString(d[mapping.FieldNameSort]),
			Slug: cast.ToString(d[mapping.FieldSlug]),
		})
	}
	return &Suggestions{Items: items}, nil
}

func (s *Service) page(ctx context.Context, q query.SearchQuery, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return nil, fmt.Errorf("per page must be positive: %w", domain.ErrInvalidRequest)
	}
	start := (page - 1) * perPage
	q = q.Slice(start, start+perPage)

	res, err := q.Results(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			s.logger.Warn("listing degraded",
				zap.String("entity_type", q.EntityType()),
				zap.Error(err),
			)
			return &Page{Items: []any{}, Facets: map[string][]result.Bucket{}, Page: page, PerPage: perPage, Degraded: true}, nil
		}
		return nil, err
	}

	items := make([]any, res.Len())
	for i := range items {
		items[i] = res.Item(i)
	}
	return &Page{
		Items:   items,
		Total:   res.Total,
		Facets:  result.ProcessFacets(res.RawFacets),
		Page:    page,
		PerPage: perPage,
	}, nil
}

func reviewedStatuses() []int {
	return lo.Map(catalog.ReviewedStatuses, func(s catalog.Status, _ int) int { return int(s) })
}
