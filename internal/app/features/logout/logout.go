// internal/app/features/logout/logout.go
package logout

import (
	"net/http"

	"github.com/bluewavedigital/donorpulse/internal/app/store/sessions"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides logout handlers.
type Handler struct {
	sessionMgr    *auth.SessionManager
	sessionsStore *sessions.Store
	logger        *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	sessionsStore *sessions.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessionMgr:    sessionMgr,
		sessionsStore: sessionsStore,
		logger:        logger,
	}
}

// Routes returns a chi.Router with logout routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAuth)
	r.Post("/", h.handleLogout)
	r.Get("/", h.handleLogout) // Allow GET for simple logout links
	return r
}

// handleLogout terminates the session.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.logger.Info("user logged out", zap.String("user_id", user.ID))

		// Close session in MongoDB tracking (records logout time and duration,
		// keeps the user_agent history for the device breakdown)
		if token := user.SessionToken(); token != "" {
			if err := h.sessionsStore.Close(r.Context(), token, sessions.EndReasonLogout); err != nil {
				h.logger.Warn("failed to close session in store", zap.Error(err))
			}
		}
	}

	h.sessionMgr.DestroySession(w, r)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
