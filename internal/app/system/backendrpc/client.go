// Package backendrpc is the typed client for the hosted donation
// analytics backend. The portal never talks to donor data stores
// directly; everything arrives through these three read-only calls.
//
// The backend buckets and aggregates server-side. Numeric values may
// arrive as JSON numbers or strings depending on the backend's column
// types, so row values are decoded as any and coerced downstream.
package backendrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bluewavedigital/donorpulse/internal/domain/models"
)

const defaultTimeout = 15 * time.Second

// Client is an HTTP client for the analytics backend.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets a custom HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a backend client. baseURL and apiKey come from
// configuration.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HeatmapRow is one sparse day/hour bucket. Value may be a number or a
// numeric string.
type HeatmapRow struct {
	DayOfWeek int `json:"day_of_week"`
	Hour      int `json:"hour"`
	Value     any `json:"value"`
}

// CategoryTotal is one (category, total) aggregate row. Value may be a
// number or a numeric string; Name may be blank or a missing-marker.
type CategoryTotal struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// GetDonationHeatmap fetches donation totals bucketed by day-of-week and
// hour, localized to tz (an IANA timezone name) by the backend. The
// result is sparse; cells with no donations are absent.
func (c *Client) GetDonationHeatmap(ctx context.Context, orgID string, start, end time.Time, tz string) ([]HeatmapRow, error) {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	q.Set("tz", tz)

	var rows []HeatmapRow
	if err := c.get(ctx, "/v1/orgs/"+url.PathEscape(orgID)+"/donations/heatmap", q, &rows); err != nil {
		return nil, fmt.Errorf("get donation heatmap: %w", err)
	}
	return rows, nil
}

// GetDonationsByCategory fetches donation totals grouped by source
// category for the date range.
func (c *Client) GetDonationsByCategory(ctx context.Context, orgID string, start, end time.Time) ([]CategoryTotal, error) {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))

	var rows []CategoryTotal
	if err := c.get(ctx, "/v1/orgs/"+url.PathEscape(orgID)+"/donations/by-category", q, &rows); err != nil {
		return nil, fmt.Errorf("get donations by category: %w", err)
	}
	return rows, nil
}

// ListDonors fetches up to limit donor records, most recent gift first.
// Records arrive unmasked; masking is applied portal-side per role.
func (c *Client) ListDonors(ctx context.Context, orgID string, limit int) ([]models.DonorRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var recs []models.DonorRecord
	if err := c.get(ctx, "/v1/orgs/"+url.PathEscape(orgID)+"/donors", q, &recs); err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	return recs, nil
}

// Ping checks backend reachability for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.get(ctx, "/v1/ping", nil, nil); err != nil {
		return fmt.Errorf("backend ping: %w", err)
	}
	return nil
}

// get performs an authenticated GET and decodes the JSON body into out
// (skipped when out is nil).
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("backend request",
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
