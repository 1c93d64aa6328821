package listing

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
)

var legacyKeys = map[string]string{
	"lver":   FilterAppVer,
	"pid":    FilterPlatform,
	"sortby": FilterSort,
}

var legacySorts = map[string]string{
	"newest":          "updated",
	"popularity":      "downloads",
	"weeklydownloads": "users",
	"averagerating":   "rating",
}

// CollectionLegacySorts are the extra sort renames of collection search.
var CollectionLegacySorts = map[string]string{
	"newest": "created",
}

// FixLegacyParams rewrites parameter names and values of the old search
// pages to the current ones. extraSorts take precedence over the common sort
// renames. The input is not modified; the result reports whether anything
// changed, so callers can redirect to the canonical URL.
func FixLegacyParams(params url.Values, extraSorts map[string]string) (url.Values, bool) {
	out := make(url.Values, len(params))
	changed := false

	for _, key := range sortedParamKeys(params) {
		vals := params[key]
		if newKey, ok := legacyKeys[key]; ok {
			changed = true
			// A current-name parameter wins over its legacy alias.
			if _, exists := params[newKey]; exists {
				continue
			}
			key = newKey
		}
		out[key] = append(out[key], vals...)
	}

	if sorts := out[FilterSort]; len(sorts) > 0 {
		for i, s := range sorts {
			if n, ok := extraSorts[s]; ok {
				sorts[i], changed = n, true
			} else if n, ok := legacySorts[s]; ok {
				sorts[i], changed = n, true
			}
		}
	}

	if platforms := out[FilterPlatform]; len(platforms) > 0 {
		for i, p := range platforms {
			if name, ok := platformName(p); ok {
				platforms[i], changed = name, true
			}
		}
	}
	return out, changed
}

// platformName maps a numeric platform id to its short name.
func platformName(v string) (string, bool) {
	id, err := strconv.Atoi(v)
	if err != nil {
		return "", false
	}
	for _, p := range catalog.Platforms {
		if p.ID == id {
			return p.ShortName, true
		}
	}
	return "", false
}

func sortedParamKeys(params url.Values) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

func sortStrings(s []string) { sort.Strings(s) }
