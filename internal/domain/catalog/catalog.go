// Package catalog holds the marketplace enumerations shared by indexing and search:
// review statuses, entity types, client applications and platforms.
package catalog

// Status is the review status of a listed entity.
type Status int

// Review statuses.
const (
	StatusNull             Status = 0
	StatusUnreviewed       Status = 1
	StatusPending          Status = 2
	StatusNominated        Status = 3
	StatusPublic           Status = 4
	StatusDisabled         Status = 5
	StatusListed           Status = 6
	StatusBeta             Status = 7
	StatusLite             Status = 8
	StatusLiteAndNominated Status = 9
	StatusPurgatory        Status = 10
	StatusDeleted          Status = 11
	StatusRejected         Status = 12
	StatusPublicWaiting    Status = 13
)

// ReviewedStatuses are the statuses visible in public listings.
var ReviewedStatuses = []Status{StatusLite, StatusLiteAndNominated, StatusPublic}

// Type is the kind of a listed entity.
type Type int

// Entity types.
const (
	TypeAny               Type = 0
	TypeExtension         Type = 1
	TypeTheme             Type = 2
	TypeDictionary        Type = 3
	TypeSearch            Type = 4
	TypeLanguagePack      Type = 5
	TypeLanguagePackAddon Type = 6
	TypePlugin            Type = 7
	TypeAPI               Type = 8
	TypePersona           Type = 9
	TypeWebapp            Type = 11
)

var validTypes = map[Type]string{
	TypeExtension:         "extension",
	TypeTheme:             "theme",
	TypeDictionary:        "dictionary",
	TypeSearch:            "search",
	TypeLanguagePack:      "language-pack",
	TypeLanguagePackAddon: "language-pack-addon",
	TypePlugin:            "plugin",
	TypeAPI:               "api",
	TypePersona:           "persona",
	TypeWebapp:            "webapp",
}

// ValidType reports whether t is a known entity type.
func ValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

// String returns the type slug.
func (t Type) String() string {
	if s, ok := validTypes[t]; ok {
		return s
	}
	return "unknown"
}

// ListingTypes are the types shown by the main search listing.
var ListingTypes = []Type{TypeExtension, TypeTheme, TypeDictionary, TypeSearch, TypeLanguagePack}

// App is a client application entities declare compatibility with.
type App struct {
	ID        int
	ShortName string
}

// Client applications.
var (
	AppFirefox     = App{ID: 1, ShortName: "firefox"}
	AppThunderbird = App{ID: 18, ShortName: "thunderbird"}
	AppSunbird     = App{ID: 52, ShortName: "sunbird"}
	AppSeaMonkey   = App{ID: 59, ShortName: "seamonkey"}
	AppMobile      = App{ID: 60, ShortName: "mobile"}
	AppAndroid     = App{ID: 61, ShortName: "android"}
)

// UsageApps get a version-range slot in the index mapping.
var UsageApps = []App{AppFirefox, AppThunderbird, AppSeaMonkey, AppMobile, AppAndroid}

var knownApps = []App{AppFirefox, AppThunderbird, AppSunbird, AppSeaMonkey, AppMobile, AppAndroid}

// AppByID looks up an application by id.
func AppByID(id int) (App, bool) {
	for _, a := range knownApps {
		if a.ID == id {
			return a, true
		}
	}
	return App{}, false
}

// Platform is an operating system a version supports.
type Platform struct {
	ID        int
	ShortName string
}

// Platforms.
var (
	PlatformAll     = Platform{ID: 1, ShortName: "all"}
	PlatformLinux   = Platform{ID: 2, ShortName: "linux"}
	PlatformMac     = Platform{ID: 3, ShortName: "mac"}
	PlatformWindows = Platform{ID: 5, ShortName: "windows"}
	PlatformAndroid = Platform{ID: 7, ShortName: "android"}
	PlatformMaemo   = Platform{ID: 8, ShortName: "maemo"}
)

// Platforms lists every platform, All first.
var Platforms = []Platform{PlatformAll, PlatformLinux, PlatformMac, PlatformWindows, PlatformAndroid, PlatformMaemo}

var platformsByName = map[string]Platform{
	PlatformAll.ShortName:     PlatformAll,
	PlatformLinux.ShortName:   PlatformLinux,
	PlatformMac.ShortName:     PlatformMac,
	PlatformWindows.ShortName: PlatformWindows,
	PlatformAndroid.ShortName: PlatformAndroid,
	PlatformMaemo.ShortName:   PlatformMaemo,
}

// PlatformByName looks up a platform by its short name.
func PlatformByName(name string) (Platform, bool) {
	p, ok := platformsByName[name]
	return p, ok
}

// Device is a form factor webapps can target.
type Device int

// Devices.
const (
	DeviceDesktop Device = 1
	DeviceMobile  Device = 2
	DeviceTablet  Device = 3
	DeviceGaia    Device = 4
)

var devicesByName = map[string]Device{
	"desktop":   DeviceDesktop,
	"mobile":    DeviceMobile,
	"tablet":    DeviceTablet,
	"firefoxos": DeviceGaia,
}

// DeviceByName looks up a device by its short name.
func DeviceByName(name string) (Device, bool) {
	d, ok := devicesByName[name]
	return d, ok
}

// SupportsFlash reports whether apps using flash can run on d.
func (d Device) SupportsFlash() bool {
	return d != DeviceMobile && d != DeviceGaia
}

// Region is a storefront region.
type Region struct {
	ID   int
	Slug string
}

// Regions.
var (
	RegionWorldwide = Region{ID: 1, Slug: "worldwide"}
	RegionUS        = Region{ID: 2, Slug: "us"}
	RegionUK        = Region{ID: 4, Slug: "uk"}
	RegionBrazil    = Region{ID: 7, Slug: "br"}
	RegionSpain     = Region{ID: 8, Slug: "es"}
	RegionColombia  = Region{ID: 9, Slug: "co"}
	RegionVenezuela = Region{ID: 10, Slug: "ve"}
	RegionPoland    = Region{ID: 11, Slug: "pl"}
)

var regionsBySlug = map[string]Region{
	RegionWorldwide.Slug: RegionWorldwide,
	RegionUS.Slug:        RegionUS,
	RegionUK.Slug:        RegionUK,
	RegionBrazil.Slug:    RegionBrazil,
	RegionSpain.Slug:     RegionSpain,
	RegionColombia.Slug:  RegionColombia,
	RegionVenezuela.Slug: RegionVenezuela,
	RegionPoland.Slug:    RegionPoland,
}

// RegionBySlug looks up a region by slug.
func RegionBySlug(slug string) (Region, bool) {
	r, ok := regionsBySlug[slug]
	return r, ok
}

// CollectionType is the kind of a curated collection.
type CollectionType int

// Collection types.
const (
	CollectionNormal       CollectionType = 0
	CollectionSynchronized CollectionType = 1
	CollectionFeatured     CollectionType = 2
	CollectionRecommended  CollectionType = 3
	CollectionFavorites    CollectionType = 4
	CollectionMobile       CollectionType = 5
	CollectionAnonymous    CollectionType = 6
)

// CollectionSearchTypes are the collection types shown by collection search.
var CollectionSearchTypes = []CollectionType{CollectionNormal, CollectionFeatured, CollectionRecommended}

// Entity names. They key the system of record and name the indexed document types.
const (
	EntityWebapp     = "webapp"
	EntityCollection = "collection"
)
