package chi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/listing"
	searchuc "github.com/kailas-cloud/appsearch/internal/usecase/search"
)

// Query parameter names outside the listing filters.
const (
	paramQuery   = "q"
	paramPage    = "page"
	paramPerPage = "pp"
	paramLang    = "lang"
	paramApp     = "app"
	paramRegion  = "region"
	paramDevice  = "device"
)

const (
	defaultLocale = "en-US"
	maxPage       = 1000
	// themesCategory is the category slug that selects the persona listing.
	themesCategory = "themes"
)

var validate = validator.New()

// listingQuery is the raw listing request before it is handed to the use case.
type listingQuery struct {
	Q        string `validate:"max=255"`
	Type     int    `validate:"min=0"`
	AppVer   string `validate:"max=32"`
	Category int    `validate:"min=0"`
	Tag      string `validate:"max=128"`
	Platform string `validate:"max=32"`
	Sort     string `validate:"max=32"`
	Page     int    `validate:"min=1"`
	PerPage  int    `validate:"min=1"`
	Lang     string `validate:"max=16"`
	App      int    `validate:"min=0"`
}

func (s *Server) listingRequest(v url.Values) (searchuc.Request, error) {
	lq := listingQuery{
		Q:        strings.TrimSpace(v.Get(paramQuery)),
		AppVer:   v.Get(listing.FilterAppVer),
		Tag:      v.Get(listing.FilterTag),
		Platform: v.Get(listing.FilterPlatform),
		Sort:     v.Get(listing.FilterSort),
		Lang:     v.Get(paramLang),
	}

	var err error
	if lq.Type, err = intParam(v, listing.FilterType, 0); err != nil {
		return searchuc.Request{}, err
	}
	if cat := v.Get(listing.FilterCategory); cat == themesCategory {
		lq.Type = int(catalog.TypePersona)
	} else if lq.Category, err = intParam(v, listing.FilterCategory, 0); err != nil {
		return searchuc.Request{}, err
	}
	if lq.Page, lq.PerPage, err = s.paging(v); err != nil {
		return searchuc.Request{}, err
	}
	if lq.App, err = intParam(v, paramApp, s.defaults.AppID); err != nil {
		return searchuc.Request{}, err
	}
	if err := s.validateQuery(lq); err != nil {
		return searchuc.Request{}, err
	}
	if lq.App != 0 {
		if _, ok := catalog.AppByID(lq.App); !ok {
			return searchuc.Request{}, fmt.Errorf("unknown app %d: %w", lq.App, domain.ErrInvalidRequest)
		}
	}

	locale := lq.Lang
	if locale == "" {
		locale = s.defaults.Locale
	}
	return searchuc.Request{
		Params: listing.Params{
			Q:        lq.Q,
			Type:     catalog.Type(lq.Type),
			AppVer:   lq.AppVer,
			Category: lq.Category,
			Tag:      lq.Tag,
			Platform: lq.Platform,
			Sort:     lq.Sort,
		},
		Page:    lq.Page,
		PerPage: lq.PerPage,
		AppID:   lq.App,
		Locale:  locale,
	}, nil
}

func (s *Server) collectionAppsRequest(id int64, v url.Values) (searchuc.CollectionAppsRequest, error) {
	page, perPage, err := s.paging(v)
	if err != nil {
		return searchuc.CollectionAppsRequest{}, err
	}
	if err := s.validateQuery(listingQuery{Page: page, PerPage: perPage}); err != nil {
		return searchuc.CollectionAppsRequest{}, err
	}
	return searchuc.CollectionAppsRequest{
		CollectionID: id,
		Region:       v.Get(paramRegion),
		Device:       v.Get(paramDevice),
		Page:         page,
		PerPage:      perPage,
	}, nil
}

func (s *Server) paging(v url.Values) (page, perPage int, err error) {
	if page, err = intParam(v, paramPage, 1); err != nil {
		return 0, 0, err
	}
	if perPage, err = intParam(v, paramPerPage, s.defaults.PageSize); err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}

func (s *Server) validateQuery(lq listingQuery) error {
	if err := validate.Struct(lq); err != nil {
		return validationError(err)
	}
	if err := validate.Var(lq.Page, fmt.Sprintf("max=%d", maxPage)); err != nil {
		return fmt.Errorf("%s exceeds %d: %w", paramPage, maxPage, domain.ErrInvalidRequest)
	}
	if s.defaults.MaxPageSize > 0 {
		if err := validate.Var(lq.PerPage, fmt.Sprintf("max=%d", s.defaults.MaxPageSize)); err != nil {
			return fmt.Errorf("%s exceeds %d: %w", paramPerPage, s.defaults.MaxPageSize, domain.ErrInvalidRequest)
		}
	}
	return nil
}

// validationError turns validator field errors into one invalid-request error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", paramName(fe.Field()), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrInvalidRequest)
}

var paramNames = map[string]string{
	"Q":        paramQuery,
	"Type":     listing.FilterType,
	"AppVer":   listing.FilterAppVer,
	"Category": listing.FilterCategory,
	"Tag":      listing.FilterTag,
	"Platform": listing.FilterPlatform,
	"Sort":     listing.FilterSort,
	"Page":     paramPage,
	"PerPage":  paramPerPage,
	"Lang":     paramLang,
	"App":      paramApp,
}

func paramName(field string) string {
	if n, ok := paramNames[field]; ok {
		return n
	}
	return field
}

func intParam(v url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, domain.ErrInvalidRequest)
	}
	return n, nil
}
