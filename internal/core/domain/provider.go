package domain

// Provider is a known third-party provider tag. The set is closed: anything
// not listed here resolves to ProviderUnknown rather than panicking on a
// garbled string from the database.
type Provider string

const (
	ProviderUnknown Provider = ""

	// Calendar providers
	ProviderCalDAV    Provider = "caldav"
	ProviderGoogle    Provider = "google_calendar"
	ProviderOffice365 Provider = "office365"

	// Video providers
	ProviderZoom  Provider = "zoom"
	ProviderDaily Provider = "daily"
)

var knownProviders = map[string]Provider{
	"caldav":          ProviderCalDAV,
	"google_calendar": ProviderGoogle,
	"office365":       ProviderOffice365,
	"zoom":            ProviderZoom,
	"daily":           ProviderDaily,
}

// ResolveProvider maps a stored provider string to a known Provider tag.
// Returns (ProviderUnknown, false) for anything outside the closed set.
func ResolveProvider(name string) (Provider, bool) {
	p, ok := knownProviders[name]
	if !ok {
		return ProviderUnknown, false
	}
	return p, true
}

// KnownProviderNames returns the valid provider tags, for log hints when an
// unknown provider string is encountered.
func KnownProviderNames() []string {
	return []string{"caldav", "google_calendar", "office365", "zoom", "daily"}
}

// IsOAuth reports whether the provider authenticates with an OAuth token set
// rather than an API key or basic credentials.
func (p Provider) IsOAuth() bool {
	switch p {
	case ProviderGoogle, ProviderOffice365, ProviderZoom:
		return true
	default:
		return false
	}
}
