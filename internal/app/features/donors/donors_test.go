package donors

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	orgstore "github.com/bluewavedigital/donorpulse/internal/app/store/orgs"
	"github.com/bluewavedigital/donorpulse/internal/app/system/backendrpc"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	"github.com/bluewavedigital/donorpulse/internal/testutil"
	errorsfeature "github.com/bluewavedigital/donorpulse/internal/app/features/errors"
	"go.uber.org/zap"
)

const donorFixture = `[
	{
		"donor_name": "Jane Doe",
		"first_name": "Jane",
		"last_name": "Doe",
		"donor_email": "jane.doe@example.com",
		"phone": "(573) 555-1234",
		"addr1": "12 Elm St",
		"city": "Columbia",
		"state": "MO",
		"total_cents": 250050,
		"gift_count": 3,
		"last_gift_at": "2026-08-01"
	}
]`

func newTestHandler(t *testing.T, backendURL string) (*Handler, *orgstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	orgs := orgstore.New(db)
	backend := backendrpc.NewClient(backendURL, "test-key")
	errLog := errorsfeature.NewErrorLogger(zap.NewNop())
	return NewHandler(backend, orgs, errLog, zap.NewNop()), orgs
}

func createTestOrg(t *testing.T, orgs *orgstore.Store) models.Org {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, err := orgs.Create(ctx, models.Org{
		Name:         "Prairie Voters Project",
		BackendOrgID: "org-prairie",
	})
	if err != nil {
		t.Fatalf("failed to create org: %v", err)
	}
	return org
}

func donorBackend(t *testing.T, gotLimit *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotLimit != nil {
			*gotLimit = r.URL.Query().Get("limit")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(donorFixture))
	}))
}

func TestExportCSV_AdminSeesRawPII(t *testing.T) {
	var gotLimit string
	ts := donorBackend(t, &gotLimit)
	defer ts.Close()

	h, orgs := newTestHandler(t, ts.URL)
	org := createTestOrg(t, orgs)

	user := testutil.AdminUser()
	user.OrgID = org.ID.Hex()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/donors/export", user)
	rec := httptest.NewRecorder()

	h.exportCSV(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if gotLimit != "100" {
		t.Errorf("limit param = %q, want 100", gotLimit)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "jane.doe@example.com") {
		t.Error("admin export should contain the raw email")
	}
	if !strings.Contains(body, "Jane Doe") {
		t.Error("admin export should contain the raw name")
	}
	if !strings.Contains(body, "$2500.50") {
		t.Error("total should render as dollars")
	}
}

func TestExportCSV_AnalystSeesMaskedPII(t *testing.T) {
	ts := donorBackend(t, nil)
	defer ts.Close()

	h, orgs := newTestHandler(t, ts.URL)
	org := createTestOrg(t, orgs)

	user := testutil.AnalystUser()
	user.OrgID = org.ID.Hex()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/donors/export", user)
	rec := httptest.NewRecorder()

	h.exportCSV(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	if strings.Contains(body, "jane.doe@example.com") {
		t.Error("analyst export must not contain the raw email")
	}
	if !strings.Contains(body, "ja***@example.com") {
		t.Error("analyst export should contain the masked email")
	}
	if !strings.Contains(body, "J*** D***") {
		t.Error("analyst export should contain the masked name")
	}
	if !strings.Contains(body, "***-***-1234") {
		t.Error("analyst export should keep the last four phone digits")
	}
	// State survives masking; gift totals are not PII.
	if !strings.Contains(body, "MO") {
		t.Error("state should survive masking")
	}
	if !strings.Contains(body, "$2500.50") {
		t.Error("total should survive masking")
	}
}

func TestLoadDonors_LimitClamped(t *testing.T) {
	var gotLimit string
	ts := donorBackend(t, &gotLimit)
	defer ts.Close()

	h, orgs := newTestHandler(t, ts.URL)
	org := createTestOrg(t, orgs)

	user := testutil.AdminUser()
	user.OrgID = org.ID.Hex()
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/donors/export?limit=99999", user)
	rec := httptest.NewRecorder()

	h.exportCSV(rec, req)

	if gotLimit != "1000" {
		t.Errorf("limit param = %q, want clamped 1000", gotLimit)
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{100, "$1.00"},
		{250050, "$2500.50"},
	}

	for _, tt := range tests {
		if got := formatCents(tt.cents); got != tt.want {
			t.Errorf("formatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
