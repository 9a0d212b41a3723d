// internal/app/features/donors/donors.go
package donors

import (
	"fmt"
	"net/http"
	"strconv"

	orgstore "github.com/bluewavedigital/donorpulse/internal/app/store/orgs"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authz"
	"github.com/bluewavedigital/donorpulse/internal/app/system/backendrpc"
	"github.com/bluewavedigital/donorpulse/internal/app/system/csvexport"
	"github.com/bluewavedigital/donorpulse/internal/app/system/piimask"
	"github.com/bluewavedigital/donorpulse/internal/app/system/viewdata"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Donor list limits.
const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler provides the donor list pages.
type Handler struct {
	backend *backendrpc.Client
	orgs    *orgstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a new donors Handler.
func NewHandler(backend *backendrpc.Client, orgs *orgstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		backend: backend,
		orgs:    orgs,
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a chi.Router with donor routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAuth)
	r.Get("/", h.listDonors)
	r.Get("/export", h.exportCSV)
	return r
}

// DonorVM is one donor row prepared for display.
type DonorVM struct {
	Name       string
	Email      string
	Phone      string
	City       string
	State      string
	Total      string
	GiftCount  int
	LastGiftAt string
}

// DonorsVM is the view model for the donor list page.
type DonorsVM struct {
	viewdata.BaseVM
	OrgName string
	Masked  bool
	Donors  []DonorVM
}

// listDonors renders the donor table. Analysts see the masked rendering;
// admins see records as stored.
func (h *Handler) listDonors(w http.ResponseWriter, r *http.Request) {
	records, org, ok := h.loadDonors(w, r)
	if !ok {
		return
	}

	masked := !authz.CanViewPII(r)
	donorVMs := make([]DonorVM, len(records))
	for i, rec := range records {
		donorVMs[i] = DonorVM{
			Name:       rec.DonorName,
			Email:      rec.DonorEmail,
			Phone:      rec.Phone,
			City:       rec.City,
			State:      rec.State,
			Total:      formatCents(rec.TotalCents),
			GiftCount:  rec.GiftCount,
			LastGiftAt: rec.LastGiftAt,
		}
	}

	vm := DonorsVM{
		BaseVM:  viewdata.New(r),
		OrgName: org.Name,
		Masked:  masked,
		Donors:  donorVMs,
	}
	vm.Title = "Donors"
	vm.BackURL = "/dashboard"

	templates.Render(w, r, "donors/index", vm)
}

// exportCSV downloads the donor list with the same masking the signed-in
// role sees on the page.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	records, _, ok := h.loadDonors(w, r)
	if !ok {
		return
	}

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = map[string]any{
			"name":         csvexport.SanitizeField(rec.DonorName),
			"email":        rec.DonorEmail,
			"phone":        rec.Phone,
			"city":         csvexport.SanitizeField(rec.City),
			"state":        rec.State,
			"total":        formatCents(rec.TotalCents),
			"gift_count":   rec.GiftCount,
			"last_gift_at": rec.LastGiftAt,
		}
	}

	csvexport.ServeDownload(w, h.logger, "donors.csv", rows, []csvexport.Column{
		{Key: "name", Label: "Donor"},
		{Key: "email", Label: "Email"},
		{Key: "phone", Label: "Phone"},
		{Key: "city", Label: "City"},
		{Key: "state", Label: "State"},
		{Key: "total", Label: "Total Given"},
		{Key: "gift_count", Label: "Gifts"},
		{Key: "last_gift_at", Label: "Last Gift"},
	})
}

// loadDonors resolves the org, fetches donor records from the backend,
// and applies role-based masking. On failure it writes the error response
// and returns ok=false.
func (h *Handler) loadDonors(w http.ResponseWriter, r *http.Request) ([]models.DonorRecord, *models.Org, bool) {
	org, ok := resolveOrg(w, r, h.orgs, h.errLog)
	if !ok {
		return nil, nil, false
	}

	limit := defaultLimit
	if p := query.Get(r, "limit"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	records, err := h.backend.ListDonors(r.Context(), org.BackendOrgID, limit)
	if err != nil {
		h.errLog.Log(r, "failed to fetch donors", err)
		http.Error(w, "Analytics data is temporarily unavailable", http.StatusBadGateway)
		return nil, nil, false
	}

	records = piimask.Records(records, !authz.CanViewPII(r))
	return records, org, true
}

// formatCents renders a cent total as dollars, e.g. 250050 -> "$2500.50".
func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// resolveOrg loads the signed-in user's org record. It writes the error
// response itself so callers can just bail on ok=false.
func resolveOrg(w http.ResponseWriter, r *http.Request, orgs *orgstore.Store, errLog *errorsfeature.ErrorLogger) (*models.Org, bool) {
	orgID, ok := authz.OrgCtx(r)
	if !ok {
		http.Error(w, "No organization is assigned to this account", http.StatusForbidden)
		return nil, false
	}

	org, err := orgs.GetByID(r.Context(), orgID)
	if err != nil {
		errLog.Log(r, "failed to load organization", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return org, true
}
