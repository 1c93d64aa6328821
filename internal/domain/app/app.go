// Package app is the marketplace listing entity as kept in the system of record.
package app

import (
	"strings"
	"time"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
)

// Translation is one localized value of a translated field.
type Translation struct {
	Locale string `json:"locale"`
	String string `json:"string"`
}

// Translated is a field with one value per locale.
type Translated []Translation

// In returns the value for locale, falling back to fallback and then to the first value.
func (t Translated) In(locale, fallback string) string {
	var fb string
	for _, tr := range t {
		switch {
		case strings.EqualFold(tr.Locale, locale):
			return tr.String
		case fb == "" && strings.EqualFold(tr.Locale, fallback):
			fb = tr.String
		}
	}
	if fb != "" {
		return fb
	}
	if len(t) > 0 {
		return t[0].String
	}
	return ""
}

// Version is a published version of an app.
type Version struct {
	ID        int64  `json:"id"`
	Version   string `json:"version"`
	Platforms []int  `json:"platforms,omitempty"`
}

// Compat declares compatibility with a client application.
// MinVersion and MaxVersion are empty when the range is not bounded.
type Compat struct {
	AppID      int    `json:"app_id"`
	MinVersion string `json:"min_version,omitempty"`
	MaxVersion string `json:"max_version,omitempty"`
}

// Bounded reports whether the compatibility declares an explicit range.
func (c Compat) Bounded() bool {
	return c.MinVersion != "" && c.MaxVersion != ""
}

// Persona is the sub-record carried by lightweight theme entities.
type Persona struct {
	Popularity       int64 `json:"popularity"`
	HasThemeRereview bool  `json:"has_theme_rereview"`
}

// Membership places an app in a curated collection.
type Membership struct {
	CollectionID int64 `json:"id"`
	Order        int   `json:"order"`
}

// App is a listed add-on or webapp.
type App struct {
	ID                int64          `json:"id"`
	Slug              string         `json:"slug"`
	AppSlug           string         `json:"app_slug,omitempty"`
	Created           time.Time      `json:"created"`
	LastUpdated       time.Time      `json:"last_updated"`
	WeeklyDownloads   int64          `json:"weekly_downloads"`
	BayesianRating    float64        `json:"bayesian_rating"`
	AverageDailyUsers int64          `json:"average_daily_users"`
	Status            catalog.Status `json:"status"`
	Type              catalog.Type   `json:"type"`
	Hotness           float64        `json:"hotness"`
	IsDisabled        bool           `json:"is_disabled"`
	PremiumType       int            `json:"premium_type"`
	UsesFlash         bool           `json:"uses_flash"`

	DefaultLocale string     `json:"default_locale"`
	Name          Translated `json:"name"`
	Summary       Translated `json:"summary,omitempty"`
	Description   Translated `json:"description,omitempty"`

	Authors    []string `json:"authors,omitempty"`
	Devices    []int    `json:"devices,omitempty"`
	Categories []int    `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Price      float64  `json:"price"`

	CurrentVersionID *int64   `json:"current_version_id,omitempty"`
	CurrentVersion   *Version `json:"current_version,omitempty"`

	Compatibility    []Compat     `json:"compatibility,omitempty"`
	Persona          *Persona     `json:"persona,omitempty"`
	RegionExclusions []int        `json:"region_exclusions,omitempty"`
	Collections      []Membership `json:"collections,omitempty"`
}

// SearchID returns the identifier search hits refer to.
func (a *App) SearchID() int64 { return a.ID }

// ResolveCurrentVersion returns the current version, nil when the app has none,
// or domain.ErrVersionNotFound when the reference points at a missing version.
func (a *App) ResolveCurrentVersion() (*Version, error) {
	if a.CurrentVersionID == nil {
		return nil, nil
	}
	if a.CurrentVersion == nil || a.CurrentVersion.ID != *a.CurrentVersionID {
		return nil, domain.ErrVersionNotFound
	}
	return a.CurrentVersion, nil
}

// IsPublic reports whether the app is fully public.
func (a *App) IsPublic() bool { return a.Status == catalog.StatusPublic }

// DisplayName returns the name in locale, falling back to the default locale.
func (a *App) DisplayName(locale string) string {
	return a.Name.In(locale, a.DefaultLocale)
}
