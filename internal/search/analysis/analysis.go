// Package analysis resolves the per-locale analyzer table used to fan out
// translated fields into analyzer-specific index fields.
package analysis

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
)

// Analyzer is an engine analyzer and the locales whose strings it receives.
type Analyzer struct {
	Name    string
	Locales []string
}

// Accepts reports whether a locale (any case) belongs to the analyzer.
func (a Analyzer) Accepts(locale string) bool {
	return lo.Contains(a.Locales, strings.ToLower(locale))
}

// Config is the raw analyzer configuration.
type Config struct {
	Analyzers  map[string][]string
	Plugins    []string
	UsePlugins bool
}

// Table is the resolved analyzer configuration. Safe for concurrent use.
type Table struct {
	active   []Analyzer
	byLocale map[string]string
	skipped  []string
}

// DefaultAnalyzers maps engine language analyzers to the locales they index.
func DefaultAnalyzers() map[string][]string {
	return map[string][]string{
		"english":    {"en-us", "en-gb"},
		"spanish":    {"es"},
		"portuguese": {"pt-br", "pt-pt"},
		"russian":    {"ru"},
		"german":     {"de"},
		"french":     {"fr"},
		"italian":    {"it"},
		"dutch":      {"nl"},
		"swedish":    {"sv-se"},
		"czech":      {"cs"},
		"greek":      {"el"},
		"hungarian":  {"hu"},
		"danish":     {"da"},
		"finnish":    {"fi"},
		"norwegian":  {"nb-no", "nn-no"},
		"romanian":   {"ro"},
		"turkish":    {"tr"},
		"cjk":        {"zh-cn", "zh-tw", "ja", "ko"},
		"polish":     {"pl"},
	}
}

// DefaultPlugins lists analyzers that need an engine plugin.
func DefaultPlugins() []string {
	return []string{"polish"}
}

// NewTable resolves cfg. Plugin-only analyzers are dropped unless plugins are enabled.
func NewTable(cfg Config) *Table {
	names := lo.Keys(cfg.Analyzers)
	sort.Strings(names)

	t := &Table{byLocale: make(map[string]string)}
	for _, name := range names {
		if !cfg.UsePlugins && lo.Contains(cfg.Plugins, name) {
			t.skipped = append(t.skipped, name)
			continue
		}
		locales := lo.Uniq(lo.Map(cfg.Analyzers[name], func(l string, _ int) string {
			return strings.ToLower(l)
		}))
		t.active = append(t.active, Analyzer{Name: name, Locales: locales})
		for _, l := range locales {
			t.byLocale[l] = name
		}
	}
	return t
}

// Active returns the analyzers in name order.
func (t *Table) Active() []Analyzer {
	return t.active
}

// Skipped returns the plugin-only analyzers left out of the table.
func (t *Table) Skipped() []string {
	return t.skipped
}

// Field names the analyzer-specific variant of a base field, e.g. name_english.
func Field(base, analyzer string) string {
	return base + "_" + analyzer
}

// Fields returns every analyzer variant of base.
func (t *Table) Fields(base string) []string {
	return lo.Map(t.active, func(a Analyzer, _ int) string {
		return Field(base, a.Name)
	})
}

// ForLocale returns the analyzer for a request locale. An exact match wins,
// then the base language ("pt" for "pt-BR"). Returns false when the locale
// has no active analyzer.
func (t *Table) ForLocale(locale string) (string, bool) {
	if locale == "" {
		return "", false
	}
	if a, ok := t.byLocale[strings.ToLower(locale)]; ok {
		return a, true
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	if a, ok := t.byLocale[strings.ToLower(tag.String())]; ok {
		return a, true
	}
	base, _ := tag.Base()
	if a, ok := t.byLocale[base.String()]; ok {
		return a, true
	}
	locales := lo.Keys(t.byLocale)
	sort.Strings(locales)
	for _, l := range locales {
		if strings.HasPrefix(l, base.String()+"-") {
			return t.byLocale[l], true
		}
	}
	return "", false
}
