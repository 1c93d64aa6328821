// Package extract projects listed entities into index documents.
package extract

import (
	"errors"
	"math"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/app"
	"github.com/kailas-cloud/appsearch/internal/domain/appversion"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/domain/collection"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
)

// boostExponent flattens popularity into a ranking multiplier.
const boostExponent = 0.2

// publicBoostFactor rewards fully public entities.
const publicBoostFactor = 4

// Extractor builds index documents. It never mutates its input and never
// fails on a well-formed entity; missing sub-records degrade the document.
type Extractor struct {
	table  *analysis.Table
	logger *zap.Logger
	lower  cases.Caser
}

// New creates an extractor over the resolved analyzer table.
func New(table *analysis.Table, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		table:  table,
		logger: logger,
		lower:  cases.Lower(language.Und),
	}
}

// App extracts the document of an add-on or webapp.
func (e *Extractor) App(a *app.App) mapping.Document {
	d := mapping.Document{
		mapping.FieldID:                a.ID,
		mapping.FieldSlug:              a.Slug,
		mapping.FieldAppSlug:           a.AppSlug,
		mapping.FieldCreated:           a.Created,
		mapping.FieldLastUpdated:       a.LastUpdated,
		mapping.FieldWeeklyDownloads:   a.WeeklyDownloads,
		mapping.FieldBayesianRating:    a.BayesianRating,
		mapping.FieldAverageDailyUsers: a.AverageDailyUsers,
		mapping.FieldStatus:            int(a.Status),
		mapping.FieldType:              int(a.Type),
		mapping.FieldHotness:           a.Hotness,
		mapping.FieldIsDisabled:        a.IsDisabled,
		mapping.FieldPremiumType:       a.PremiumType,
		mapping.FieldUsesFlash:         a.UsesFlash,
		mapping.FieldDefaultLocale:     a.DefaultLocale,
	}

	d[mapping.FieldNameSort] = e.lower.String(a.DisplayName(a.DefaultLocale))
	e.translated(d, mapping.FieldName, a.Name)
	e.translated(d, mapping.FieldSummary, a.Summary)
	e.translated(d, mapping.FieldDescription, a.Description)

	d[mapping.FieldAuthors] = nonNil(a.Authors)
	d[mapping.FieldDevice] = nonNil(a.Devices)
	d[mapping.FieldCategory] = nonNil(a.Categories)
	d[mapping.FieldTags] = nonNil(a.Tags)
	d[mapping.FieldPrice] = a.Price
	d[mapping.FieldRegionExclusions] = nonNil(a.RegionExclusions)
	d[mapping.FieldCollection] = lo.Map(a.Collections, func(m app.Membership, _ int) map[string]any {
		return map[string]any{"id": m.CollectionID, "order": m.Order}
	})

	e.currentVersion(d, a)
	e.compatibility(d, a)
	e.boost(d, a)
	return d
}

// Collection extracts the document of a curated collection.
func (e *Extractor) Collection(c *collection.Collection) mapping.Document {
	return mapping.Document{
		mapping.FieldID:                 c.ID,
		mapping.FieldSlug:               c.Slug,
		mapping.FieldName:               stringSet(c.Name),
		mapping.FieldNameSort:           e.lower.String(c.DisplayName(c.DefaultLocale)),
		mapping.FieldApp:                c.AppID,
		mapping.FieldType:               int(c.Type),
		mapping.FieldListed:             c.Listed,
		mapping.FieldSubscribers:        c.Subscribers,
		mapping.FieldWeeklySubscribers:  c.WeeklySubscribers,
		mapping.FieldMonthlySubscribers: c.MonthlySubscribers,
		mapping.FieldRating:             c.Rating,
		mapping.FieldCreated:            c.Created,
		mapping.FieldModified:           c.Modified,
		mapping.FieldAuthor:             c.Author,
	}
}

// translated emits the base string set and one filtered set per active analyzer.
func (e *Extractor) translated(d mapping.Document, field string, tr app.Translated) {
	d[field] = stringSet(tr)
	for _, an := range e.table.Active() {
		matching := lo.Filter(tr, func(t app.Translation, _ int) bool {
			return an.Accepts(t.Locale)
		})
		d[analysis.Field(field, an.Name)] = stringSet(matching)
	}
}

func (e *Extractor) currentVersion(d mapping.Document, a *app.App) {
	v, err := a.ResolveCurrentVersion()
	switch {
	case errors.Is(err, domain.ErrVersionNotFound):
		e.logger.Debug("current version missing",
			zap.Int64("id", a.ID),
			zap.Int64p("version_id", a.CurrentVersionID),
		)
		d[mapping.FieldHasVersion] = nil
	case v != nil:
		d[mapping.FieldHasVersion] = true
		d[mapping.FieldPlatforms] = nonNil(v.Platforms)
	default:
		d[mapping.FieldHasVersion] = false
	}
}

func (e *Extractor) compatibility(d mapping.Document, a *app.App) {
	ranges := make(map[string]map[string]int64, len(a.Compatibility))
	ids := make([]int, 0, len(a.Compatibility))
	for _, c := range a.Compatibility {
		r := appversion.WideOpen()
		if c.Bounded() {
			r = appversion.RangeOf(c.MinVersion, c.MaxVersion)
		}
		ranges[strconv.Itoa(c.AppID)] = mapping.AppVersionRange(r)
		ids = append(ids, c.AppID)
	}
	d[mapping.FieldAppVersion] = ranges
	d[mapping.FieldApp] = lo.Uniq(ids)
}

func (e *Extractor) boost(d mapping.Document, a *app.App) {
	var boost float64
	if a.Type == catalog.TypePersona {
		if a.Persona == nil {
			e.logger.Debug("persona record missing, boost skipped", zap.Int64("id", a.ID))
			return
		}
		d[mapping.FieldWeeklyDownloads] = a.Persona.Popularity
		d[mapping.FieldHasThemeRereview] = a.Persona.HasThemeRereview
		boost = math.Pow(float64(a.Persona.Popularity), boostExponent)
	} else {
		boost = math.Pow(float64(a.AverageDailyUsers), boostExponent)
	}

	if a.IsPublic() {
		boost = math.Max(boost, 1) * publicBoostFactor
	}
	if boost <= 0 || math.IsNaN(boost) {
		boost = mapping.DefaultBoost
	}
	d[mapping.FieldBoost] = boost
}

// stringSet returns the distinct strings of tr in first-seen order, never nil.
func stringSet(tr app.Translated) []string {
	out := make([]string, 0, len(tr))
	for _, t := range tr {
		out = append(out, t.String)
	}
	return lo.Uniq(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
