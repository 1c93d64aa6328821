// Package listing translates listing request parameters into query builder
// calls: text relevance, platform, version window, type, category, tag and
// sort.
package listing

import (
	"github.com/samber/lo"

	"github.com/kailas-cloud/appsearch/internal/domain/appversion"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
	"github.com/kailas-cloud/appsearch/internal/search/query"
)

// Recognized filter keys.
const (
	FilterType     = "atype"
	FilterAppVer   = "appver"
	FilterCategory = "cat"
	FilterSort     = "sort"
	FilterTag      = "tag"
	FilterPlatform = "platform"
)

// Params are the cleaned listing parameters. Zero values mean "not given".
type Params struct {
	Q        string
	Type     catalog.Type
	AppVer   string
	Category int
	Tag      string
	Platform string
	Sort     string
}

func (p Params) given(key string) bool {
	switch key {
	case FilterType:
		return p.Type != catalog.TypeAny
	case FilterAppVer:
		return p.AppVer != ""
	case FilterCategory:
		return p.Category != 0
	case FilterSort:
		return p.Sort != ""
	case FilterTag:
		return p.Tag != ""
	case FilterPlatform:
		return p.Platform != ""
	}
	return false
}

// Scope is the request context the filters are evaluated in.
type Scope struct {
	// AppID is the client application version filters apply to.
	AppID int
	// Locale selects the locale analyzer of text queries.
	Locale string
}

// Translator applies listing parameters to queries.
type Translator struct {
	analyzers *analysis.Table
}

// NewTranslator creates a translator over the resolved analyzer table.
func NewTranslator(analyzers *analysis.Table) *Translator {
	return &Translator{analyzers: analyzers}
}

// LocaleAnalyzer returns the analyzer for locale, or "" when it has none or
// its analyzer needs a disabled plugin.
func (t *Translator) LocaleAnalyzer(locale string) string {
	if t.analyzers == nil {
		return ""
	}
	a, _ := t.analyzers.ForLocale(locale)
	return a
}

// Shown returns the recognized filters that carry a value.
func Shown(p Params, l Listing) []string {
	return lo.Filter(l.Filters, func(k string, _ int) bool { return p.given(k) })
}

// Apply narrows q by the shown filters of l.
func (t *Translator) Apply(q query.SearchQuery, p Params, l Listing, scope Scope) query.SearchQuery {
	show := Shown(p, l)
	shown := func(k string) bool { return lo.Contains(show, k) }

	if p.Q != "" {
		q = q.Query(query.Criteria{query.OrKey: NameQuery(p.Q, t.LocaleAnalyzer(scope.Locale))})
	}

	if shown(FilterPlatform) {
		if pl, ok := catalog.PlatformByName(p.Platform); ok && pl != catalog.PlatformAll {
			q = q.Filter(query.Criteria{
				mapping.FieldPlatforms + "__in": []int{pl.ID, catalog.PlatformAll.ID},
			})
		}
	}

	if shown(FilterAppVer) {
		if c, ok := AppVersionFilter(p.AppVer, p.Type, scope.AppID); ok {
			q = q.Filter(c)
		}
	}

	switch {
	case shown(FilterType) && catalog.ValidType(p.Type):
		q = q.Filter(query.Criteria{mapping.FieldType: int(p.Type)})
	case len(l.Types) > 0:
		q = q.Filter(query.Criteria{mapping.FieldType + "__in": l.Types})
	}

	if shown(FilterCategory) {
		q = q.Filter(query.Criteria{mapping.FieldCategory: p.Category})
	}
	if shown(FilterTag) {
		q = q.Filter(query.Criteria{mapping.FieldTags: p.Tag})
	}

	sortField, ok := "", false
	if shown(FilterSort) {
		sortField, ok = l.Sorts[p.Sort]
	}
	switch {
	case ok:
		q = q.OrderBy(sortField)
	case p.Q == "" && l.DefaultSort != "":
		q = q.OrderBy(l.DefaultSort)
	}
	return q
}

// baselineVersion is the first release whose extensions are assumed
// compatible by default; older versions are always range-checked.
const baselineVersion = "10.0"

// AppVersionFilter returns the compatibility criteria for a requested
// application version: the entity range must start at or before the
// version and reach its first alpha. Extension listings for versions from
// baselineVersion on are not filtered.
func AppVersionFilter(version string, t catalog.Type, appID int) (query.Criteria, bool) {
	w := appversion.WindowFor(version)
	extensionsShown := t == catalog.TypeAny || t == catalog.TypeExtension
	if extensionsShown && w.Low >= appversion.Int(baselineVersion) {
		return nil, false
	}
	return query.Criteria{
		mapping.AppVersionMax(appID) + "__gte": w.High,
		mapping.AppVersionMin(appID) + "__lte": w.Low,
	}, true
}

// Facets is the facet set of the main search listing.
func Facets(appID int) map[string]dsl.Facet {
	return map[string]dsl.Facet{
		"tags":        &dsl.TermsFacet{Field: mapping.FieldTags},
		"platforms":   &dsl.TermsFacet{Field: mapping.FieldPlatforms},
		"appversions": &dsl.TermsFacet{Field: mapping.AppVersionMax(appID)},
		"categories":  &dsl.TermsFacet{Field: mapping.FieldCategory, Size: 200},
	}
}
