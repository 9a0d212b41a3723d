// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	orgstore "github.com/bluewavedigital/donorpulse/internal/app/store/orgs"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authz"
	"github.com/bluewavedigital/donorpulse/internal/app/system/backendrpc"
	"github.com/bluewavedigital/donorpulse/internal/app/system/barchart"
	"github.com/bluewavedigital/donorpulse/internal/app/system/csvexport"
	"github.com/bluewavedigital/donorpulse/internal/app/system/jsonutil"
	"github.com/bluewavedigital/donorpulse/internal/app/system/normalize"
	"github.com/bluewavedigital/donorpulse/internal/app/system/viewdata"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// defaultRangeDays is the reporting window when no dates are given.
const defaultRangeDays = 30

// Handler provides the donation overview dashboard.
type Handler struct {
	backend *backendrpc.Client
	orgs    *orgstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(backend *backendrpc.Client, orgs *orgstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		backend: backend,
		orgs:    orgs,
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAuth)
	r.Get("/", h.showDashboard)
	r.Get("/data", h.breakdownJSON)
	r.Get("/export", h.exportCSV)
	return r
}

// DashboardVM is the view model for the overview page.
type DashboardVM struct {
	viewdata.BaseVM
	OrgName        string
	RangeStart     string
	RangeEnd       string
	Items          []barchart.Row
	Other          barchart.Row
	MaxValue       float64
	TotalValue     float64
	OtherDominates bool
	ChartJSON      template.JS
}

// breakdownPayload is the JSON shape shared by /data and the page's
// embedded chart data.
type breakdownPayload struct {
	Start          string         `json:"start"`
	End            string         `json:"end"`
	Items          []barchart.Row `json:"items"`
	Other          barchart.Row   `json:"other,omitempty"`
	MaxValue       float64        `json:"max_value"`
	TotalValue     float64        `json:"total_value"`
	OtherDominates bool           `json:"other_dominates"`
}

// showDashboard renders the category breakdown for the signed-in org.
func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	result, start, end, org, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	payload := breakdownPayload{
		Start:          start.Format("2006-01-02"),
		End:            end.Format("2006-01-02"),
		Items:          result.Items,
		Other:          result.Other,
		MaxValue:       result.MaxValue,
		TotalValue:     result.TotalValue,
		OtherDominates: result.OtherDominates,
	}
	chartJSON, err := json.Marshal(payload)
	if err != nil {
		h.errLog.Log(r, "failed to encode chart data", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vm := DashboardVM{
		BaseVM:         viewdata.New(r),
		OrgName:        org.Name,
		RangeStart:     payload.Start,
		RangeEnd:       payload.End,
		Items:          result.Items,
		Other:          result.Other,
		MaxValue:       result.MaxValue,
		TotalValue:     result.TotalValue,
		OtherDominates: result.OtherDominates,
		ChartJSON:      template.JS(chartJSON),
	}
	vm.Title = "Dashboard"

	templates.Render(w, r, "dashboard/index", vm)
}

// breakdownJSON serves the category breakdown as JSON for chart refresh.
func (h *Handler) breakdownJSON(w http.ResponseWriter, r *http.Request) {
	result, start, end, _, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	payload := breakdownPayload{
		Start:          start.Format("2006-01-02"),
		End:            end.Format("2006-01-02"),
		Items:          result.Items,
		Other:          result.Other,
		MaxValue:       result.MaxValue,
		TotalValue:     result.TotalValue,
		OtherDominates: result.OtherDominates,
	}

	jsonutil.OK(w, payload)
}

// exportCSV downloads the category breakdown, Other bucket included.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	result, start, end, _, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	rows := make([]map[string]any, 0, len(result.Items)+1)
	for _, item := range result.Items {
		rows = append(rows, map[string]any{
			"name":  csvexport.SanitizeField(normalize.String(item["name"])),
			"value": item["value"],
		})
	}
	if result.Other != nil {
		rows = append(rows, map[string]any{
			"name":  normalize.String(result.Other["name"]),
			"value": result.Other["value"],
		})
	}

	filename := "donations_by_category_" + start.Format("2006-01-02") + "_" + end.Format("2006-01-02") + ".csv"
	csvexport.ServeDownload(w, h.logger, filename, rows, []csvexport.Column{
		{Key: "name", Label: "Category"},
		{Key: "value", Label: "Total"},
	})
}

// loadBreakdown resolves the org, fetches category totals from the
// backend, and reduces them. On failure it writes the error response and
// returns ok=false.
func (h *Handler) loadBreakdown(w http.ResponseWriter, r *http.Request) (barchart.Result, time.Time, time.Time, *models.Org, bool) {
	org, ok := resolveOrg(w, r, h.orgs, h.errLog)
	if !ok {
		return barchart.Result{}, time.Time{}, time.Time{}, nil, false
	}

	start, end := parseRange(r)

	totals, err := h.backend.GetDonationsByCategory(r.Context(), org.BackendOrgID, start, end)
	if err != nil {
		h.errLog.Log(r, "failed to fetch category totals", err)
		http.Error(w, "Analytics data is temporarily unavailable", http.StatusBadGateway)
		return barchart.Result{}, time.Time{}, time.Time{}, nil, false
	}

	rows := make([]map[string]any, len(totals))
	for i, t := range totals {
		rows[i] = map[string]any{"name": t.Name, "value": t.Value}
	}

	merged := normalize.MergeCategories(rows, "name", "value")
	result := barchart.Process(merged, barchart.Options{})

	return result, start, end, org, true
}

// parseRange reads start/end query params (2006-01-02), defaulting to the
// trailing 30 days. An end before start collapses to a single day.
func parseRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -defaultRangeDays)

	if p := query.Get(r, "start"); p != "" {
		if parsed, err := time.Parse("2006-01-02", p); err == nil {
			start = parsed
		}
	}
	if p := query.Get(r, "end"); p != "" {
		if parsed, err := time.Parse("2006-01-02", p); err == nil {
			end = parsed
		}
	}
	if end.Before(start) {
		end = start
	}
	return start, end
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
