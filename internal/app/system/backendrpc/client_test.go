package backendrpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(t *testing.T, wantPath string, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestGetDonationHeatmap(t *testing.T) {
	srv, captured := testServer(t, "/v1/orgs/org-42/donations/heatmap", http.StatusOK,
		`[{"day_of_week":1,"hour":14,"value":"250.50"},{"day_of_week":2,"hour":19,"value":500}]`)

	c := NewClient(srv.URL, "test-key")
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	rows, err := c.GetDonationHeatmap(context.Background(), "org-42", start, end, "America/New_York")
	if err != nil {
		t.Fatalf("GetDonationHeatmap: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].DayOfWeek != 1 || rows[0].Hour != 14 || rows[0].Value != "250.50" {
		t.Errorf("rows[0] = %+v, want string value passed through", rows[0])
	}
	if rows[1].Value != float64(500) {
		t.Errorf("rows[1].Value = %v (%T), want 500", rows[1].Value, rows[1].Value)
	}

	q := captured.URL.Query()
	if q.Get("start") != "2026-07-01" || q.Get("end") != "2026-07-31" {
		t.Errorf("date params = %q / %q", q.Get("start"), q.Get("end"))
	}
	if q.Get("tz") != "America/New_York" {
		t.Errorf("tz param = %q", q.Get("tz"))
	}
	if captured.Header.Get("X-API-Key") != "test-key" {
		t.Error("missing X-API-Key header")
	}
	if captured.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestGetDonationsByCategory(t *testing.T) {
	srv, captured := testServer(t, "/v1/orgs/org-42/donations/by-category", http.StatusOK,
		`[{"name":"Email","value":1000},{"name":"","value":"42.5"}]`)

	c := NewClient(srv.URL, "test-key")
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	rows, err := c.GetDonationsByCategory(context.Background(), "org-42", start, end)
	if err != nil {
		t.Fatalf("GetDonationsByCategory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Name != "Email" || rows[0].Value != float64(1000) {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Name != "" || rows[1].Value != "42.5" {
		t.Errorf("rows[1] = %+v, want blank name and string value preserved", rows[1])
	}
	if captured.URL.Query().Get("tz") != "" {
		t.Error("category endpoint should not send tz")
	}
}

func TestListDonors(t *testing.T) {
	srv, captured := testServer(t, "/v1/orgs/org-42/donors", http.StatusOK,
		`[{"donor_name":"Jane Doe","donor_email":"jane.doe@example.org","state":"OH","total_cents":125000,"gift_count":4}]`)

	c := NewClient(srv.URL, "test-key")

	recs, err := c.ListDonors(context.Background(), "org-42", 200)
	if err != nil {
		t.Fatalf("ListDonors: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recs = %d, want 1", len(recs))
	}
	if recs[0].DonorName != "Jane Doe" || recs[0].State != "OH" || recs[0].TotalCents != 125000 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if captured.URL.Query().Get("limit") != "200" {
		t.Errorf("limit param = %q", captured.URL.Query().Get("limit"))
	}
}

func TestListDonorsOmitsNonPositiveLimit(t *testing.T) {
	srv, captured := testServer(t, "/v1/orgs/org-42/donors", http.StatusOK, `[]`)

	c := NewClient(srv.URL, "test-key")
	if _, err := c.ListDonors(context.Background(), "org-42", 0); err != nil {
		t.Fatalf("ListDonors: %v", err)
	}
	if captured.URL.RawQuery != "" {
		t.Errorf("query = %q, want empty", captured.URL.RawQuery)
	}
}

func TestPing(t *testing.T) {
	srv, _ := testServer(t, "/v1/ping", http.StatusOK, `{"status":"ok"}`)

	c := NewClient(srv.URL, "test-key")
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	srv, _ := testServer(t, "/v1/ping", http.StatusForbidden, `{"error":"invalid api key"}`)

	c := NewClient(srv.URL, "bad-key")
	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "invalid api key" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	srv, _ := testServer(t, "/v1/ping", http.StatusBadGateway, `upstream unavailable`)

	c := NewClient(srv.URL, "key")
	err := c.Ping(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "upstream unavailable" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
