// internal/app/features/heatmap/heatmap.go
package heatmap

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	orgstore "github.com/bluewavedigital/donorpulse/internal/app/store/orgs"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authz"
	"github.com/bluewavedigital/donorpulse/internal/app/system/backendrpc"
	"github.com/bluewavedigital/donorpulse/internal/app/system/csvexport"
	"github.com/bluewavedigital/donorpulse/internal/app/system/heatgrid"
	"github.com/bluewavedigital/donorpulse/internal/app/system/jsonutil"
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

// Handler provides the donation heatmap pages.
type Handler struct {
	backend *backendrpc.Client
	orgs    *orgstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a new heatmap Handler.
func NewHandler(backend *backendrpc.Client, orgs *orgstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		backend: backend,
		orgs:    orgs,
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a chi.Router with heatmap routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAuth)
	r.Get("/", h.showHeatmap)
	r.Get("/data", h.heatmapJSON)
	r.Get("/export", h.exportCSV)
	return r
}

// HeatmapVM is the view model for the heatmap page.
type HeatmapVM struct {
	viewdata.BaseVM
	OrgName    string
	Timezone   string
	RangeStart string
	RangeEnd   string
	Peaks      []heatgrid.Peak
	Hours      []int
	Days       []dayRow
	GridJSON   template.JS
}

// dayRow is one heatmap table row prepared for the template.
type dayRow struct {
	Label string
	Cells []heatgrid.Cell
}

// gridPayload is the JSON shape shared by /data and the page's embedded
// grid data.
type gridPayload struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Timezone string          `json:"timezone"`
	Cells    []heatgrid.Cell `json:"cells"`
	Peaks    []heatgrid.Peak `json:"peaks"`
}

// showHeatmap renders the 7x24 donation heatmap for the signed-in org.
func (h *Handler) showHeatmap(w http.ResponseWriter, r *http.Request) {
	payload, org, ok := h.loadGrid(w, r)
	if !ok {
		return
	}

	gridJSON, err := json.Marshal(payload)
	if err != nil {
		h.errLog.Log(r, "failed to encode grid data", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	hours := make([]int, heatgrid.Hours)
	for i := range hours {
		hours[i] = i
	}
	days := make([]dayRow, heatgrid.Days)
	for d := range days {
		days[d] = dayRow{
			Label: heatgrid.DayLabel(d),
			Cells: payload.Cells[d*heatgrid.Hours : (d+1)*heatgrid.Hours],
		}
	}

	vm := HeatmapVM{
		BaseVM:     viewdata.New(r),
		OrgName:    org.Name,
		Timezone:   payload.Timezone,
		RangeStart: payload.Start,
		RangeEnd:   payload.End,
		Peaks:      payload.Peaks,
		Hours:      hours,
		Days:       days,
		GridJSON:   template.JS(gridJSON),
	}
	vm.Title = "Donation Heatmap"
	vm.BackURL = "/dashboard"

	templates.Render(w, r, "heatmap/index", vm)
}

// heatmapJSON serves the filled grid and peaks as JSON.
func (h *Handler) heatmapJSON(w http.ResponseWriter, r *http.Request) {
	payload, _, ok := h.loadGrid(w, r)
	if !ok {
		return
	}

	jsonutil.OK(w, payload)
}

// exportCSV downloads the filled grid, one row per cell in day-major
// order, with display labels alongside the raw indexes.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	payload, _, ok := h.loadGrid(w, r)
	if !ok {
		return
	}

	rows := make([]map[string]any, len(payload.Cells))
	for i, cell := range payload.Cells {
		rows[i] = map[string]any{
			"day":        cell.DayOfWeek,
			"hour":       cell.Hour,
			"day_label":  heatgrid.DayLabel(cell.DayOfWeek),
			"hour_label": heatgrid.HourLabel(cell.Hour),
			"value":      cell.Value,
		}
	}

	filename := "donation_heatmap_" + payload.Start + "_" + payload.End + ".csv"
	csvexport.ServeDownload(w, h.logger, filename, rows, []csvexport.Column{
		{Key: "day", Label: "Day"},
		{Key: "hour", Label: "Hour"},
		{Key: "day_label", Label: "Day Name"},
		{Key: "hour_label", Label: "Time"},
		{Key: "value", Label: "Total"},
	})
}

// loadGrid resolves the org, fetches the sparse heatmap from the backend
// in the org's reporting timezone, and fills the dense grid. On failure
// it writes the error response and returns ok=false.
func (h *Handler) loadGrid(w http.ResponseWriter, r *http.Request) (gridPayload, *models.Org, bool) {
	org, ok := resolveOrg(w, r, h.orgs, h.errLog)
	if !ok {
		return gridPayload{}, nil, false
	}

	start, end := parseRange(r)
	tz := org.ReportingTimezone()

	sparse, err := h.backend.GetDonationHeatmap(r.Context(), org.BackendOrgID, start, end, tz)
	if err != nil {
		h.errLog.Log(r, "failed to fetch donation heatmap", err)
		http.Error(w, "Analytics data is temporarily unavailable", http.StatusBadGateway)
		return gridPayload{}, nil, false
	}

	sparseRows := make([]heatgrid.SparseRow, len(sparse))
	for i, row := range sparse {
		sparseRows[i] = heatgrid.SparseRow{
			DayOfWeek: row.DayOfWeek,
			Hour:      row.Hour,
			Value:     row.Value,
		}
	}

	grid := heatgrid.Fill(sparseRows)
	peaks := heatgrid.Peaks(grid, heatgrid.DefaultPeakCount)

	payload := gridPayload{
		Start:    start.Format("2006-01-02"),
		End:      end.Format("2006-01-02"),
		Timezone: tz,
		Cells:    grid,
		Peaks:    peaks,
	}
	return payload, org, true
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
