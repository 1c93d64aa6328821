package catalog

import "testing"

func TestValidType(t *testing.T) {
	tests := []struct {
		t    Type
		want bool
	}{
		{TypeExtension, true},
		{TypePersona, true},
		{TypeWebapp, true},
		{TypeAny, false},
		{Type(10), false},
	}
	for _, tc := range tests {
		if got := ValidType(tc.t); got != tc.want {
			t.Errorf("ValidType(%d) = %v, want %v", tc.t, got, tc.want)
		}
	}
	if TypeLanguagePackAddon.String() != "language-pack-addon" || Type(99).String() != "unknown" {
		t.Error("unexpected type slugs")
	}
}

func TestLookups(t *testing.T) {
	if a, ok := AppByID(60); !ok || a != AppMobile {
		t.Errorf("AppByID(60) = %v, %v", a, ok)
	}
	if _, ok := AppByID(2); ok {
		t.Error("AppByID(2) should be unknown")
	}
	if p, ok := PlatformByName("mac"); !ok || p.ID != 3 {
		t.Errorf("PlatformByName(mac) = %v, %v", p, ok)
	}
	if r, ok := RegionBySlug("br"); !ok || r != RegionBrazil {
		t.Errorf("RegionBySlug(br) = %v, %v", r, ok)
	}
	if Platforms[0] != PlatformAll {
		t.Error("Platforms must start with All")
	}
}

func TestDeviceSupportsFlash(t *testing.T) {
	for name, want := range map[string]bool{"desktop": true, "tablet": true, "mobile": false, "firefoxos": false} {
		d, ok := DeviceByName(name)
		if !ok {
			t.Fatalf("DeviceByName(%q) not found", name)
		}
		if d.SupportsFlash() != want {
			t.Errorf("%s SupportsFlash() = %v, want %v", name, !want, want)
		}
	}
}
