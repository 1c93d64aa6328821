// Package mapping defines the index documents and mappings shared by the
// extractor, the listing helpers and index management.
package mapping

import (
	"strconv"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/domain/appversion"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
)

// Document is one flat index document.
type Document map[string]any

// ID returns the document identifier as a string, or "" when absent.
func (d Document) ID() string {
	switch v := d[FieldID].(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	}
	return ""
}

// Field names.
const (
	FieldID                = "id"
	FieldSlug              = "slug"
	FieldAppSlug           = "app_slug"
	FieldCreated           = "created"
	FieldLastUpdated       = "last_updated"
	FieldModified          = "modified"
	FieldWeeklyDownloads   = "weekly_downloads"
	FieldBayesianRating    = "bayesian_rating"
	FieldAverageDailyUsers = "average_daily_users"
	FieldStatus            = "status"
	FieldType              = "type"
	FieldHotness           = "hotness"
	FieldIsDisabled        = "is_disabled"
	FieldPremiumType       = "premium_type"
	FieldUsesFlash         = "uses_flash"
	FieldNameSort          = "name_sort"
	FieldName              = "name"
	FieldSummary           = "summary"
	FieldDescription       = "description"
	FieldAuthors           = "authors"
	FieldDevice            = "device"
	FieldCategory          = "category"
	FieldTags              = "tags"
	FieldPrice             = "price"
	FieldPlatforms         = "platforms"
	FieldAppVersion        = "appversion"
	FieldHasVersion        = "has_version"
	FieldApp               = "app"
	FieldBoost             = "boost"
	FieldHasThemeRereview  = "has_theme_rereview"
	FieldRegionExclusions  = "region_exclusions"
	FieldCollection        = "collection"
	FieldDefaultLocale     = "default_locale"

	FieldListed             = "listed"
	FieldSubscribers        = "subscribers"
	FieldWeeklySubscribers  = "weekly_subscribers"
	FieldMonthlySubscribers = "monthly_subscribers"
	FieldRating             = "rating"
	FieldAuthor             = "author"
)

// TranslatedFields are fanned out into one variant per active analyzer.
var TranslatedFields = []string{FieldName, FieldSummary, FieldDescription}

// Analyzers declared by the mappings.
const (
	AnalyzerNameText = "standardPlusWordDelimiter"
	AnalyzerLongText = "standardSnowball"
)

// DefaultBoost is indexed for documents without a computed boost.
const DefaultBoost = 1.0

const (
	collectionIDField  = "id"
	collectionOrderFld = "order"
	appVersionMinField = "min"
	appVersionMaxField = "max"
)

// AppVersionField is the path of one bound of an application's version range,
// e.g. appversion.1.max.
func AppVersionField(appID int, bound string) string {
	return FieldAppVersion + "." + strconv.Itoa(appID) + "." + bound
}

// AppVersionMin is the lower bound path for appID.
func AppVersionMin(appID int) string { return AppVersionField(appID, appVersionMinField) }

// AppVersionMax is the upper bound path for appID.
func AppVersionMax(appID int) string { return AppVersionField(appID, appVersionMaxField) }

// CollectionID is the path of the membership collection id.
const CollectionID = FieldCollection + "." + collectionIDField

// CollectionOrder is the path of the membership position.
const CollectionOrder = FieldCollection + "." + collectionOrderFld

// Options sizes an index.
type Options struct {
	Name     string
	Shards   int
	Replicas int
}

// AppVersionRange is the indexed form of one compatibility range.
func AppVersionRange(r appversion.Range) map[string]int64 {
	return map[string]int64{appVersionMinField: r.Min, appVersionMaxField: r.Max}
}

// Apps builds the add-on and webapp index definition.
func Apps(table *analysis.Table, opts Options) (*db.IndexDefinition, error) {
	b := db.NewIndex(opts.Name).
		Shards(opts.Shards).
		Replicas(opts.Replicas).
		Analyzer(AnalyzerNameText, "standard", "lowercase", "word_delimiter").
		Analyzer(AnalyzerLongText, "standard", "lowercase", "stop", "snowball").
		Long(FieldID, FieldWeeklyDownloads, FieldAverageDailyUsers).
		Keyword(FieldSlug, FieldAppSlug, FieldNameSort, FieldTags, FieldAuthors, FieldDefaultLocale).
		Text(FieldName, AnalyzerNameText).
		Text(FieldSummary, AnalyzerLongText).
		Text(FieldDescription, AnalyzerLongText).
		Date(FieldCreated, FieldLastUpdated).
		Float(FieldBayesianRating, FieldHotness, FieldPrice).
		Integer(FieldStatus, FieldType, FieldPremiumType, FieldDevice, FieldCategory,
			FieldPlatforms, FieldApp, FieldRegionExclusions).
		Boolean(FieldIsDisabled, FieldUsesFlash, FieldHasVersion, FieldHasThemeRereview).
		FloatWithDefault(FieldBoost, DefaultBoost).
		Object(FieldAppVersion, false, appVersionProps()...).
		Object(FieldCollection, true,
			db.IndexField{Name: collectionIDField, Type: db.FieldLong},
			db.IndexField{Name: collectionOrderFld, Type: db.FieldInteger},
		)

	for _, a := range table.Active() {
		for _, base := range TranslatedFields {
			b.Text(analysis.Field(base, a.Name), a.Name)
		}
	}
	return b.Build()
}

// Collections builds the collection index definition.
func Collections(opts Options) (*db.IndexDefinition, error) {
	return db.NewIndex(opts.Name).
		Shards(opts.Shards).
		Replicas(opts.Replicas).
		Analyzer(AnalyzerNameText, "standard", "lowercase", "word_delimiter").
		Long(FieldID, FieldSubscribers, FieldWeeklySubscribers, FieldMonthlySubscribers).
		Keyword(FieldSlug, FieldNameSort, FieldAuthor).
		Text(FieldName, AnalyzerNameText).
		Integer(FieldApp, FieldType).
		Boolean(FieldListed).
		Float(FieldRating).
		Date(FieldCreated, FieldModified).
		Build()
}

func appVersionProps() []db.IndexField {
	props := make([]db.IndexField, 0, len(catalog.UsageApps))
	for _, app := range catalog.UsageApps {
		props = append(props, db.IndexField{
			Name:   strconv.Itoa(app.ID),
			Type:   db.FieldObject,
			Strict: true,
			Properties: []db.IndexField{
				{Name: appVersionMinField, Type: db.FieldLong},
				{Name: appVersionMaxField, Type: db.FieldLong},
			},
		})
	}
	return props
}
