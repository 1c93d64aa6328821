package listing

import (
	"strings"

	"github.com/samber/lo"

	"github.com/kailas-cloud/appsearch/internal/search/analysis"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
)

// Relevance weights of the text query clauses.
const (
	WeightPhrase            = 4.0
	WeightStandard          = 3.0
	WeightLocaleName        = 2.5
	WeightFuzzy             = 2.0
	WeightPrefix            = 1.5
	WeightSummaryPhrase     = 0.8
	WeightSummaryLocale     = 0.6
	WeightDescriptionPhrase = 0.3
	WeightDescriptionLocale = 0.1
	WeightTags              = 0.1
)

// fuzzyPrefixLength is the number of leading characters a fuzzy match keeps exact.
const fuzzyPrefixLength = 4

const standardAnalyzer = "standard"

// nameFields are matched by every name-level clause.
var nameFields = []string{mapping.FieldName, mapping.FieldSlug, mapping.FieldAppSlug, mapping.FieldAuthors}

// NameOnlyQuery returns the clauses matching q against names. Both the
// phrase and the standard-analyzer match are kept for each field. analyzer
// is the request locale analyzer, empty for none.
func NameOnlyQuery(q, analyzer string) []dsl.Clause {
	out := make([]dsl.Clause, 0, 4*len(nameFields)+1)
	for _, f := range nameFields {
		out = append(out,
			&dsl.Match{Field: f, Query: q, Boost: WeightPhrase, Phrase: true},
			&dsl.Match{Field: f, Query: q, Boost: WeightStandard, Analyzer: standardAnalyzer},
			&dsl.Fuzzy{Field: f, Value: q, Boost: WeightFuzzy, PrefixLength: fuzzyPrefixLength},
			&dsl.Prefix{Field: f, Value: q, Boost: WeightPrefix},
		)
	}
	if analyzer != "" {
		out = append(out, &dsl.Match{
			Field:    analysis.Field(mapping.FieldName, analyzer),
			Query:    q,
			Boost:    WeightLocaleName,
			Analyzer: analyzer,
		})
	}
	return out
}

// NameQuery extends NameOnlyQuery with summary, description and tag matches.
func NameQuery(q, analyzer string) []dsl.Clause {
	out := []dsl.Clause{
		&dsl.Match{Field: mapping.FieldSummary, Query: q, Boost: WeightSummaryPhrase, Phrase: true},
		&dsl.Match{Field: mapping.FieldDescription, Query: q, Boost: WeightDescriptionPhrase, Phrase: true},
	}
	for _, word := range lo.Uniq(strings.Fields(q)) {
		out = append(out, &dsl.Term{Field: mapping.FieldTags, Value: word, Boost: WeightTags})
	}
	if analyzer != "" {
		out = append(out,
			&dsl.Match{
				Field:    analysis.Field(mapping.FieldSummary, analyzer),
				Query:    q,
				Boost:    WeightSummaryLocale,
				Analyzer: analyzer,
				Phrase:   true,
			},
			&dsl.Match{
				Field:    analysis.Field(mapping.FieldDescription, analyzer),
				Query:    q,
				Boost:    WeightDescriptionLocale,
				Analyzer: analyzer,
				Phrase:   true,
			},
		)
	}
	return append(out, NameOnlyQuery(q, analyzer)...)
}
