// Package collection is the curated collection entity.
package collection

import (
	"time"

	"github.com/kailas-cloud/appsearch/internal/domain/app"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
)

// Collection groups apps under a curated, subscribable list.
type Collection struct {
	ID                 int64                  `json:"id"`
	Slug               string                 `json:"slug"`
	DefaultLocale      string                 `json:"default_locale"`
	Name               app.Translated         `json:"name"`
	Description        app.Translated         `json:"description,omitempty"`
	AppID              int                    `json:"app_id"`
	Type               catalog.CollectionType `json:"type"`
	Listed             bool                   `json:"listed"`
	Subscribers        int64                  `json:"subscribers"`
	WeeklySubscribers  int64                  `json:"weekly_subscribers"`
	MonthlySubscribers int64                  `json:"monthly_subscribers"`
	Rating             float64                `json:"rating"`
	Created            time.Time              `json:"created"`
	Modified           time.Time              `json:"modified"`
	Author             string                 `json:"author,omitempty"`
}

// SearchID returns the identifier search hits refer to.
func (c *Collection) SearchID() int64 { return c.ID }

// DisplayName returns the name in locale, falling back to the default locale.
func (c *Collection) DisplayName(locale string) string {
	return c.Name.In(locale, c.DefaultLocale)
}
