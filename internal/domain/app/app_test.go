package app

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/appsearch/internal/domain"
)

func TestTranslated_In(t *testing.T) {
	name := Translated{
		{Locale: "en-US", String: "Firebug"},
		{Locale: "de", String: "Feuerkäfer"},
	}

	tests := []struct {
		locale, fallback, want string
	}{
		{"de", "en-US", "Feuerkäfer"},
		{"en-us", "de", "Firebug"},
		{"fr", "de", "Feuerkäfer"},
		{"fr", "it", "Firebug"},
	}
	for _, tc := range tests {
		if got := name.In(tc.locale, tc.fallback); got != tc.want {
			t.Errorf("In(%q, %q) = %q, want %q", tc.locale, tc.fallback, got, tc.want)
		}
	}

	if got := (Translated{}).In("en-US", "en-US"); got != "" {
		t.Errorf("empty translations: got %q", got)
	}
}

func TestResolveCurrentVersion(t *testing.T) {
	id := int64(7)
	other := int64(8)

	tests := []struct {
		name    string
		app     App
		wantNil bool
		wantErr error
	}{
		{"no reference", App{}, true, nil},
		{"resolved", App{CurrentVersionID: &id, CurrentVersion: &Version{ID: 7}}, false, nil},
		{"dangling", App{CurrentVersionID: &id}, true, domain.ErrVersionNotFound},
		{"mismatch", App{CurrentVersionID: &other, CurrentVersion: &Version{ID: 7}}, true, domain.ErrVersionNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tc.app.ResolveCurrentVersion()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if (v == nil) != tc.wantNil {
				t.Errorf("version = %v, wantNil %v", v, tc.wantNil)
			}
		})
	}
}

func TestCompat_Bounded(t *testing.T) {
	if (Compat{AppID: 1}).Bounded() {
		t.Error("compat without versions should not be bounded")
	}
	if !(Compat{AppID: 1, MinVersion: "3.0", MaxVersion: "4.*"}).Bounded() {
		t.Error("compat with versions should be bounded")
	}
}
