package config

const (
	DefaultDashboardAddr = "127.0.0.1:8080"
	DefaultProxyAddr     = "127.0.0.1:8000"
	DefaultPageSize      = 20
	DefaultRecentLimit   = 10
)

// DefaultDatabasePath returns the default SQLite database location.
func DefaultDatabasePath() string {
	return "~/.reqwatch/requests.db"
}

// DefaultExcludedPaths returns the path prefixes that are never audited:
// static assets, media, browser noise and debug tooling.
func DefaultExcludedPaths() []string {
	return []string{
		"/static/",
		"/media/",
		"/favicon.ico",
		"/robots.txt",
		"/__debug__/",
	}
}
