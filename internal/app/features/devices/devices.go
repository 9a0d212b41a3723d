// internal/app/features/devices/devices.go
package devices

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/bluewavedigital/donorpulse/internal/app/store/sessions"
	userstore "github.com/bluewavedigital/donorpulse/internal/app/store/users"
	"github.com/bluewavedigital/donorpulse/internal/app/system/auth"
	"github.com/bluewavedigital/donorpulse/internal/app/system/authz"
	"github.com/bluewavedigital/donorpulse/internal/app/system/barchart"
	"github.com/bluewavedigital/donorpulse/internal/app/system/csvexport"
	"github.com/bluewavedigital/donorpulse/internal/app/system/devinfo"
	"github.com/bluewavedigital/donorpulse/internal/app/system/jsonutil"
	"github.com/bluewavedigital/donorpulse/internal/app/system/normalize"
	"github.com/bluewavedigital/donorpulse/internal/app/system/viewdata"
	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// lookbackDays is how far back session user agents are scanned.
const lookbackDays = 90

// Handler provides the device/browser breakdown of portal sessions.
type Handler struct {
	users    *userstore.Store
	sessions *sessions.Store
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new devices Handler.
func NewHandler(users *userstore.Store, sessionsStore *sessions.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessionsStore,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns a chi.Router with device breakdown routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAuth)
	r.Get("/", h.showBreakdown)
	r.Get("/data", h.breakdownJSON)
	r.Get("/export", h.exportCSV)
	return r
}

// Chart is one reduced breakdown in a JSON-friendly shape.
type Chart struct {
	Items          []barchart.Row `json:"items"`
	Other          barchart.Row   `json:"other,omitempty"`
	MaxValue       float64        `json:"max_value"`
	TotalValue     float64        `json:"total_value"`
	OtherDominates bool           `json:"other_dominates"`
}

// Breakdown holds the three reduced charts for the org's sessions.
type Breakdown struct {
	Browsers    Chart `json:"browsers"`
	Systems     Chart `json:"systems"`
	DeviceTypes Chart `json:"device_types"`
	Sessions    int   `json:"sessions"`
}

// DevicesVM is the view model for the breakdown page.
type DevicesVM struct {
	viewdata.BaseVM
	Breakdown Breakdown
	ChartJSON template.JS
}

// showBreakdown renders the device/browser/OS charts.
func (h *Handler) showBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	chartJSON, err := json.Marshal(breakdown)
	if err != nil {
		h.errLog.Log(r, "failed to encode chart data", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	vm := DevicesVM{
		BaseVM:    viewdata.New(r),
		Breakdown: breakdown,
		ChartJSON: template.JS(chartJSON),
	}
	vm.Title = "Devices"
	vm.BackURL = "/dashboard"

	templates.Render(w, r, "devices/index", vm)
}

// breakdownJSON serves the reduced charts as JSON.
func (h *Handler) breakdownJSON(w http.ResponseWriter, r *http.Request) {
	breakdown, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	jsonutil.OK(w, breakdown)
}

// exportCSV downloads one chart as CSV, selected by ?chart=browser|os|device.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	breakdown, ok := h.loadBreakdown(w, r)
	if !ok {
		return
	}

	var result Chart
	var filename, label string
	switch query.Get(r, "chart") {
	case "os":
		result, filename, label = breakdown.Systems, "sessions_by_os.csv", "Operating System"
	case "device":
		result, filename, label = breakdown.DeviceTypes, "sessions_by_device.csv", "Device Type"
	default:
		result, filename, label = breakdown.Browsers, "sessions_by_browser.csv", "Browser"
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

	csvexport.ServeDownload(w, h.logger, filename, rows, []csvexport.Column{
		{Key: "name", Label: label},
		{Key: "value", Label: "Sessions"},
	})
}

// loadBreakdown collects session user agents for the signed-in org and
// reduces them into the three charts. On failure it writes the error
// response and returns ok=false.
func (h *Handler) loadBreakdown(w http.ResponseWriter, r *http.Request) (Breakdown, bool) {
	orgID, ok := authz.OrgCtx(r)
	if !ok {
		http.Error(w, "No organization is assigned to this account", http.StatusForbidden)
		return Breakdown{}, false
	}
	ctx := r.Context()

	orgUsers, err := h.users.ListByOrg(ctx, orgID)
	if err != nil {
		h.errLog.Log(r, "failed to list org users", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return Breakdown{}, false
	}

	userIDs := make([]primitive.ObjectID, len(orgUsers))
	for i, u := range orgUsers {
		userIDs[i] = u.ID
	}

	// An empty ID list would make the session scan unscoped.
	if len(userIDs) == 0 {
		return Breakdown{
			Browsers:    reduce(nil),
			Systems:     reduce(nil),
			DeviceTypes: reduce(nil),
		}, true
	}

	since := time.Now().AddDate(0, 0, -lookbackDays)
	agents, err := h.sessions.UserAgentsForUsers(ctx, userIDs, since)
	if err != nil {
		h.errLog.Log(r, "failed to collect session user agents", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return Breakdown{}, false
	}

	browsers := make(map[string]float64)
	systems := make(map[string]float64)
	deviceTypes := make(map[string]float64)
	for _, ua := range agents {
		info := devinfo.Parse(ua)
		browsers[info.Browser]++
		systems[info.OS]++
		deviceTypes[info.DeviceType]++
	}

	breakdown := Breakdown{
		Browsers:    reduce(browsers),
		Systems:     reduce(systems),
		DeviceTypes: reduce(deviceTypes),
		Sessions:    len(agents),
	}
	return breakdown, true
}

// reduce turns a count map into a sorted Top-N chart. Blank keys (an
// unrecognized browser or OS) surface as "Unknown" via the reducer.
func reduce(counts map[string]float64) Chart {
	rows := make([]barchart.Row, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, barchart.Row{"name": name, "value": count})
	}
	result := barchart.Process(rows, barchart.Options{})
	return Chart{
		Items:          result.Items,
		Other:          result.Other,
		MaxValue:       result.MaxValue,
		TotalValue:     result.TotalValue,
		OtherDominates: result.OtherDominates,
	}
}
