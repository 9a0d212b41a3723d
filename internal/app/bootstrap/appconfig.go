// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to this portal lives: the Mongo
// connection, session and CSRF secrets, the analytics backend endpoint,
// and seed data for a fresh deployment.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: donorpulse-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Analytics backend configuration
	// The portal holds no donation data itself; every chart and export is
	// fetched from this service at request time.
	BackendURL     string        // Base URL of the donor analytics backend
	BackendAPIKey  string        // API key sent on every backend request
	BackendTimeout time.Duration // Per-request timeout for backend calls (default: 10s)

	// Reporting configuration
	DefaultOrgTimezone string // IANA timezone used when an org has none configured

	// Base URL for absolute links in rendered pages
	BaseURL string // e.g., "https://portal.example.com" or "http://localhost:8080"

	// Seed data for a fresh deployment
	SeedAdminEmail    string // Login of the admin user to create when no admin exists
	SeedAdminName     string // Display name of the seeded admin user
	SeedAdminPassword string // Temporary password for the seeded admin user
	SiteName          string // Site name written into settings on first boot
}
