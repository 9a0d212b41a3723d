// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/bluewavedigital/donorpulse/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "DONORPULSE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: DONORPULSE_MONGO_URI, DONORPULSE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "donorpulse", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "donorpulse-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Analytics backend configuration
	{Name: "backend_url", Default: "http://localhost:9000", Desc: "Base URL of the donor analytics backend"},
	{Name: "backend_api_key", Default: "", Desc: "API key for the donor analytics backend"},
	{Name: "backend_timeout", Default: "10s", Desc: "Per-request timeout for backend calls"},

	// Reporting configuration
	{Name: "default_org_timezone", Default: "America/New_York", Desc: "IANA timezone used when an org has none configured"},

	// Base URL for absolute links in rendered pages
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL of this portal"},

	// Seed data for a fresh deployment
	{Name: "seed_admin_email", Default: "", Desc: "Login of admin user to create on startup"},
	{Name: "seed_admin_name", Default: "Administrator", Desc: "Name of admin user to create on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Temporary password for the seeded admin user"},
	{Name: "site_name", Default: "DonorPulse", Desc: "Site name written into settings on first boot"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, DONORPULSE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		// Analytics backend
		BackendURL:     appValues.String("backend_url"),
		BackendAPIKey:  appValues.String("backend_api_key"),
		BackendTimeout: appValues.Duration("backend_timeout", 10*time.Second),

		// Reporting
		DefaultOrgTimezone: appValues.String("default_org_timezone"),

		// Base URL
		BaseURL: appValues.String("base_url"),

		// Seed data
		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminName:     appValues.String("seed_admin_name"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
		SiteName:          appValues.String("site_name"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}

	if !timezones.Valid(appCfg.DefaultOrgTimezone) {
		logger.Error("unknown default_org_timezone", zap.String("timezone", appCfg.DefaultOrgTimezone))
		return fmt.Errorf("unknown default_org_timezone %q", appCfg.DefaultOrgTimezone)
	}

	return nil
}
