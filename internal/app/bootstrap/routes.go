// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	dashboardfeature "github.com/bluewavedigital/donorpulse/internal/app/features/dashboard"
	devicesfeature "github.com/bluewavedigital/donorpulse/internal/app/features/devices"
	donorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/donors"
	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	healthfeature "github.com/bluewavedigital/donorpulse/internal/app/features/health"
	heatmapfeature "github.com/bluewavedigital/donorpulse/internal/app/features/heatmap"
	homefeature "github.com/bluewavedigital/donorpulse/internal/app/features/home"
	loginfeature "github.com/bluewavedigital/donorpulse/internal/app/features/login"
	logoutfeature "github.com/bluewavedigital/donorpulse/internal/app/features/logout"
	profilefeature "github.com/bluewavedigital/donorpulse/internal/app/features/profile"
	appresources "github.com/bluewavedigital/donorpulse/internal/app/resources"
	orgstore "github.com/bluewavedigital/donorpulse/internal/app/store/orgs"
	"github.com/bluewavedigital/donorpulse/internal/app/store/sessions"
	userstore "github.com/bluewavedigital/donorpulse/internal/app/store/users"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// This function should:
//  1. Create a router (chi, standard mux, etc.)
//  2. Mount feature routers for different parts of your application
//  3. Add any additional middleware needed for specific routes
//  4. Return the configured router as an http.Handler
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures role changes, disabled accounts, and org reassignments take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Initialize viewdata with the database for settings loading.
	viewdata.Init(deps.MongoDatabase)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Stores shared across features.
	sessionsStore := sessions.New(deps.MongoDatabase)
	usersStore := userstore.New(deps.MongoDatabase)
	orgsStore := orgstore.New(deps.MongoDatabase)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection middleware.
	// Cookie name is "donorpulse_csrf" to avoid collisions with other services
	// on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("donorpulse_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	trustedOrigins := []string{
		"localhost:8080",
		"localhost:3000",
		"127.0.0.1:8080",
		"127.0.0.1:3000",
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	// Wrap CSRF middleware to skip machine endpoints (health probes and the
	// JSON data APIs); they carry no forms and should not receive the CSRF
	// cookie.
	csrfMiddleware := func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.URL.Path {
			case "/health", "/health/ready", "/health/live", "/ready", "/readyz", "/livez",
				"/dashboard/data", "/heatmap/data", "/devices/data":
				next.ServeHTTP(w, req)
				return
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
	r.Use(csrfMiddleware)

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Backend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Static assets with pre-compressed file support (gzip/brotli)
	// /static/* serves files from disk (static directory)
	r.Handle("/static/*", fileserver.Handler("/static", "static"))

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// Public pages
	homeHandler := homefeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, sessionsStore, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, sessionsStore, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// User profile (any signed-in user)
	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, sessionsStore, errLog, logger)
	r.Route("/profile", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireAuth)
		sr.Mount("/", profilefeature.Routes(profileHandler, sessionMgr))
	})

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Donation analytics (dashboard, heatmap, donor roster)
	dashboardHandler := dashboardfeature.NewHandler(deps.Backend, orgsStore, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	heatmapHandler := heatmapfeature.NewHandler(deps.Backend, orgsStore, errLog, logger)
	r.Mount("/heatmap", heatmapfeature.Routes(heatmapHandler, sessionMgr))

	donorsHandler := donorsfeature.NewHandler(deps.Backend, orgsStore, errLog, logger)
	r.Mount("/donors", donorsfeature.Routes(donorsHandler, sessionMgr))

	// Portal session device breakdown (local data, no backend calls)
	devicesHandler := devicesfeature.NewHandler(usersStore, sessionsStore, errLog, logger)
	r.Mount("/devices", devicesfeature.Routes(devicesHandler, sessionMgr))

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
