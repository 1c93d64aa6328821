package listing

import (
	"maps"

	"github.com/samber/lo"

	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
)

// Listing describes one listing surface: the filters it recognizes, its sort
// aliases, the default sort used when there is no text query and the types
// it restricts results to when no type is requested.
type Listing struct {
	Name        string
	Filters     []string
	Sorts       map[string]string
	DefaultSort string
	Types       []int
}

// SortAliases returns the recognized sort aliases in a stable order.
func (l Listing) SortAliases() []string {
	keys := lo.Keys(l.Sorts)
	sortStrings(keys)
	return keys
}

var appSorts = map[string]string{
	"users":     "-" + mapping.FieldAverageDailyUsers,
	"rating":    "-" + mapping.FieldBayesianRating,
	"created":   "-" + mapping.FieldCreated,
	"name":      mapping.FieldNameSort,
	"downloads": "-" + mapping.FieldWeeklyDownloads,
	"updated":   "-" + mapping.FieldLastUpdated,
	"hotness":   "-" + mapping.FieldHotness,
}

var collectionSorts = map[string]string{
	"weekly":  "-" + mapping.FieldWeeklySubscribers,
	"monthly": "-" + mapping.FieldMonthlySubscribers,
	"all":     "-" + mapping.FieldSubscribers,
	"rating":  "-" + mapping.FieldRating,
	"created": "-" + mapping.FieldCreated,
	"name":    mapping.FieldNameSort,
	"updated": "-" + mapping.FieldModified,
}

func typeIDs[T ~int](ts []T) []int {
	return lo.Map(ts, func(t T, _ int) int { return int(t) })
}

// AppListing is the main add-on search.
func AppListing() Listing {
	return Listing{
		Name:        "apps",
		Filters:     []string{FilterType, FilterAppVer, FilterCategory, FilterSort, FilterTag, FilterPlatform},
		Sorts:       copySorts(appSorts),
		DefaultSort: "-" + mapping.FieldWeeklyDownloads,
		Types:       typeIDs(catalog.ListingTypes),
	}
}

// PersonaListing is the lightweight theme search. Only sort is recognized.
func PersonaListing() Listing {
	return Listing{
		Name:        "personas",
		Filters:     []string{FilterSort},
		Sorts:       copySorts(appSorts),
		DefaultSort: "-" + mapping.FieldWeeklyDownloads,
		Types:       typeIDs([]catalog.Type{catalog.TypePersona}),
	}
}

// CollectionListing is the collection search.
func CollectionListing() Listing {
	return Listing{
		Name:        "collections",
		Filters:     []string{FilterSort},
		Sorts:       copySorts(collectionSorts),
		DefaultSort: "-" + mapping.FieldWeeklySubscribers,
		Types:       typeIDs(catalog.CollectionSearchTypes),
	}
}

func copySorts(m map[string]string) map[string]string {
	return maps.Clone(m)
}
