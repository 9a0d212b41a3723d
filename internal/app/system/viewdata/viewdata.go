// internal/app/system/viewdata/viewdata.go
package viewdata

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"context"
	"html/template"
	"net/http"

	settingsstore "github.com/bluewavedigital/donorpulse/internal/app/store/settings"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authz"
	"github.com/bluewavedigital/donorpulse/internal/app/system/htmlsanitize"
	"github.com/bluewavedigital/donorpulse/internal/app/system/timeouts"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, db, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	// Site settings (from database)
	SiteName   string
	FooterHTML template.HTML

	// User context (from auth middleware)
	IsLoggedIn      bool
	UserID          string
	LoginID         string // User's login identifier (for per-user tracking)
	Role            string
	UserName        string
	CanViewPII      bool   // True for roles allowed unmasked donor PII
	ThemePreference string // light, dark, system (empty = system)

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)
}

// globalDB is set by Init and used by New() to load settings.
var globalDB *mongo.Database

// Init sets the database for viewdata.
// Call this once at startup from bootstrap.
func Init(db *mongo.Database) {
	globalDB = db
}

// NewBaseVM creates a fully populated BaseVM for a page.
// This is the preferred way to create a BaseVM for embedding in view models.
//
// Parameters:
//   - r: the HTTP request
//   - db: database for loading site settings (can be nil for defaults)
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, db *mongo.Database, title, backDefault string) BaseVM {
	vm := newUserVM(r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	loadSettings(r, db, &vm)
	return vm
}

// New creates a BaseVM with site settings loaded from the database.
// This is the standard way to create a BaseVM for most handlers.
func New(r *http.Request) BaseVM {
	vm := newUserVM(r)
	loadSettings(r, globalDB, &vm)
	return vm
}

// newUserVM builds the user and page-context portion of a BaseVM.
func newUserVM(r *http.Request) BaseVM {
	role, name, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:        models.DefaultSiteName,
		IsLoggedIn:      signedIn,
		UserID:          userID.Hex(),
		Role:            role,
		UserName:        name,
		CanViewPII:      signedIn && models.CanViewPII(role),
		ThemePreference: authz.ThemePreference(r),
		CurrentPath:     httpnav.CurrentPath(r),
		CSRFToken:       csrf.Token(r),
	}

	// Get LoginID from session if logged in
	if signedIn {
		if user, ok := auth.CurrentUser(r); ok {
			vm.LoginID = user.LoginID
		}
	}

	return vm
}

// loadSettings fills the site settings portion of a BaseVM.
func loadSettings(r *http.Request, db *mongo.Database, vm *BaseVM) {
	if db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := settingsstore.New(db)
	settings, err := store.Get(ctx)
	if err != nil || settings == nil {
		return
	}

	vm.SiteName = settings.SiteName
	footerHTML := settings.FooterHTML
	if footerHTML == "" {
		footerHTML = models.DefaultFooterHTML
	}
	vm.FooterHTML = htmlsanitize.SanitizeToHTML(footerHTML)
}

// GetSiteName returns the site name from settings, or the default if not available.
func GetSiteName(ctx context.Context, db *mongo.Database) string {
	if db == nil {
		return models.DefaultSiteName
	}

	store := settingsstore.New(db)
	settings, err := store.Get(ctx)
	if err != nil || settings == nil {
		return models.DefaultSiteName
	}
	return settings.SiteName
}

// GetSettings returns the full site settings, or defaults if not available.
func GetSettings(ctx context.Context, db *mongo.Database) models.SiteSettings {
	if db == nil {
		return models.SiteSettings{SiteName: models.DefaultSiteName}
	}

	store := settingsstore.New(db)
	settings, err := store.Get(ctx)
	if err != nil || settings == nil {
		return models.SiteSettings{SiteName: models.DefaultSiteName}
	}
	return *settings
}
