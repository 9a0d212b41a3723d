// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"net/http"
	"time"

	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	"github.com/bluewavedigital/donorpulse/internal/app/store/sessions"
	userstore "github.com/bluewavedigital/donorpulse/internal/app/store/users"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authutil"
	"github.com/bluewavedigital/donorpulse/internal/app/system/network"
	"github.com/bluewavedigital/donorpulse/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides login handlers.
type Handler struct {
	userStore     *userstore.Store
	sessionsStore *sessions.Store
	sessionMgr    *auth.SessionManager
	errLog        *errorsfeature.ErrorLogger
	logger        *zap.Logger
}

// NewHandler creates a new login Handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	sessionsStore *sessions.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:     userstore.New(db),
		sessionsStore: sessionsStore,
		sessionMgr:    sessionMgr,
		errLog:        errLog,
		logger:        logger,
	}
}

// LoginVM is the view model for the login page.
type LoginVM struct {
	viewdata.BaseVM
	Error     string
	LoginID   string
	ReturnURL string
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.showLogin)
	r.Post("/", h.handleLogin)

	return r
}

// showLogin displays the login page.
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	// Map error codes to user-friendly messages
	errorCode := r.URL.Query().Get("error")
	errorMsg := ""
	switch errorCode {
	case "account_disabled":
		errorMsg = "Account is disabled."
	case "service_unavailable":
		errorMsg = "Service temporarily unavailable. Please try again."
	case "":
		// No error
	default:
		// Show the error code as-is for unknown codes
		errorMsg = errorCode
	}

	vm := LoginVM{
		BaseVM:    viewdata.New(r),
		ReturnURL: query.Get(r, "return"),
		Error:     errorMsg,
	}
	vm.Title = "Login"

	templates.Render(w, r, "login/index", vm)
}

// handleLogin checks the credentials and starts a session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	loginID := r.FormValue("login_id")
	password := r.FormValue("password")
	returnURL := r.FormValue("return")

	if loginID == "" || password == "" {
		h.renderError(w, r, "Please enter your Login ID and password", loginID, returnURL)
		return
	}

	user, err := h.userStore.GetByLoginID(r.Context(), loginID)
	if err != nil {
		// Distinguish between "user not found" and database errors
		if err == mongo.ErrNoDocuments {
			h.renderError(w, r, "Invalid credentials", loginID, returnURL)
			return
		}
		// Database error (timeout, connection failure, etc.)
		h.errLog.Log(r, "database error during login lookup", err)
		h.renderError(w, r, "Service temporarily unavailable. Please try again.", loginID, returnURL)
		return
	}

	if user.Status != "active" {
		h.logger.Info("login refused for disabled user", zap.String("user_id", user.ID.Hex()))
		h.renderError(w, r, "Account is disabled", loginID, returnURL)
		return
	}

	if user.PasswordHash == nil || !authutil.CheckPassword(password, *user.PasswordHash) {
		h.logger.Info("login failed, wrong password", zap.String("user_id", user.ID.Hex()))
		h.renderError(w, r, "Invalid credentials", loginID, returnURL)
		return
	}

	if err := h.createTrackedSession(w, r, user.ID, user.Role); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", user.ID.Hex()))

	// Check if password change is required
	if user.PasswordTemp != nil && *user.PasswordTemp {
		http.Redirect(w, r, "/profile/change-password?required=1", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/dashboard"), http.StatusSeeOther)
}

// renderError re-renders the login form with an error message.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, msg, loginID, returnURL string) {
	vm := LoginVM{
		BaseVM:    viewdata.New(r),
		Error:     msg,
		LoginID:   loginID,
		ReturnURL: returnURL,
	}
	vm.Title = "Login"
	templates.Render(w, r, "login/index", vm)
}

// createTrackedSession creates a session in both the cookie and MongoDB for tracking.
// The Mongo record keeps the user agent, which feeds the device breakdown.
func (h *Handler) createTrackedSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, role string) error {
	// Generate token first so we can use it for both cookie and MongoDB tracking
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}

	// Create the cookie session with the generated token
	if err := h.sessionMgr.CreateSession(w, r, userID, role, token); err != nil {
		return err
	}

	// Store session in MongoDB for tracking
	now := time.Now()
	session := sessions.Session{
		Token:        token,
		UserID:       userID,
		IPAddress:    network.GetClientIP(r),
		UserAgent:    r.UserAgent(),
		LoginAt:      now,
		LastActivity: now,
		ExpiresAt:    now.Add(24 * 30 * time.Hour), // 30 days
	}

	// Best effort - don't fail login if tracking fails
	if err := h.sessionsStore.Create(r.Context(), session); err != nil {
		h.logger.Warn("failed to track session", zap.Error(err))
	}

	return nil
}
