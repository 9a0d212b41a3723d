// Package heatgrid expands the sparse day-of-week × hour-of-day aggregates
// returned by the analytics backend into a dense 7×24 grid, and derives the
// ranked "peak times" summary shown on the heatmap dashboard.
//
// The backend buckets donations in the org's reporting timezone and returns
// already-localized integers; this package does no timezone math. It is a
// pure reshaping layer: every call yields exactly 168 cells, zero-filled,
// in day-major/hour-minor order.
package heatgrid

import (
	"fmt"
	"sort"

	"github.com/bluewavedigital/donorpulse/internal/app/system/normalize"
)

// Grid dimensions.
const (
	Days  = 7
	Hours = 24
	Cells = Days * Hours
)

// SparseRow is one pre-bucketed row from the backend RPC. Value arrives
// as float64 or string depending on the backend's numeric type.
type SparseRow struct {
	DayOfWeek int `json:"day_of_week"`
	Hour      int `json:"hour"`
	Value     any `json:"value"`
}

// Cell is one slot in the dense grid.
type Cell struct {
	DayOfWeek int     `json:"day_of_week"` // 0 (Sunday) .. 6 (Saturday)
	Hour      int     `json:"hour"`        // 0 .. 23
	Value     float64 `json:"value"`
}

// dayLabels maps DayOfWeek to its display name.
var dayLabels = [Days]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DayLabel returns the display name for a day index, or "" when out of range.
func DayLabel(day int) string {
	if day < 0 || day >= Days {
		return ""
	}
	return dayLabels[day]
}

// HourLabel returns the 12-hour clock label for an hour index
// ("12:00 AM" .. "11:00 PM"), or "" when out of range.
func HourLabel(hour int) string {
	if hour < 0 || hour >= Hours {
		return ""
	}
	suffix := "AM"
	h := hour
	if h >= 12 {
		suffix = "PM"
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:00 %s", h, suffix)
}

// Fill expands sparse rows into the dense 168-cell grid. Cells with no
// matching row default to 0; rows with out-of-range day or hour are
// ignored. Later duplicates overwrite earlier ones.
func Fill(sparse []SparseRow) []Cell {
	grid := make([]Cell, 0, Cells)
	for day := 0; day < Days; day++ {
		for hour := 0; hour < Hours; hour++ {
			grid = append(grid, Cell{DayOfWeek: day, Hour: hour})
		}
	}

	for _, row := range sparse {
		if row.DayOfWeek < 0 || row.DayOfWeek >= Days {
			continue
		}
		if row.Hour < 0 || row.Hour >= Hours {
			continue
		}
		grid[row.DayOfWeek*Hours+row.Hour].Value = normalize.Float(row.Value)
	}

	return grid
}

// Peak is one entry in the ranked peak-times summary.
type Peak struct {
	Cell
	DayLabel  string `json:"day_label"`
	HourLabel string `json:"hour_label"`
}

// DefaultPeakCount is how many peak slots the dashboard shows.
const DefaultPeakCount = 3

// Peaks returns the top n nonzero cells of a filled grid, descending by
// value. Zero-value cells never count as peaks; if fewer than n nonzero
// cells exist, only those are returned (possibly none).
func Peaks(grid []Cell, n int) []Peak {
	if n <= 0 {
		n = DefaultPeakCount
	}

	nonzero := make([]Cell, 0, len(grid))
	for _, c := range grid {
		if c.Value > 0 {
			nonzero = append(nonzero, c)
		}
	}

	// Stable so equal-value cells keep grid order.
	sort.SliceStable(nonzero, func(i, j int) bool {
		return nonzero[i].Value > nonzero[j].Value
	})

	if len(nonzero) > n {
		nonzero = nonzero[:n]
	}

	peaks := make([]Peak, len(nonzero))
	for i, c := range nonzero {
		peaks[i] = Peak{
			Cell:      c,
			DayLabel:  DayLabel(c.DayOfWeek),
			HourLabel: HourLabel(c.Hour),
		}
	}
	return peaks
}

// Describe formats a peak for display, e.g. "Tuesday 2:00 PM".
func (p Peak) Describe() string {
	return p.DayLabel + " " + p.HourLabel
}
