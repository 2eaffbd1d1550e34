// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Kinoray is the canonical application identifier used for filesystem paths and CLI branding.
	Kinoray = "kinoray"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the default HTTP User-Agent string used for network requests (update checks, remote sources).
	UserAgent = "kinoray/" + Version
)

// Build metadata injected at link time.
var (
	Revision = "unknown"
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
)
