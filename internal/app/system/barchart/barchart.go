// Package barchart reduces long-tail (name, value) breakdowns into the
// Top-N entries plus a synthesized "Other" aggregate, ready for chart
// rendering and CSV export.
//
// The reducer is a pure function over generic rows: values are coerced
// leniently (non-numeric becomes 0), blank names become "Unknown", sorting
// is stable so ties keep their input order, and the true max/total are
// computed over the full filtered set so callers can show correct
// percentages against the Other bucket.
package barchart

import (
	"sort"

	"github.com/bluewavedigital/donorpulse/internal/app/system/normalize"
)

// Default option values.
const (
	DefaultTopN       = 10
	DefaultOtherLabel = "Other"
	DefaultValueKey   = "value"
	DefaultNameKey    = "name"
)

// Row is a single (name, value) record. Extra fields are carried through
// untouched.
type Row = map[string]any

// Options controls the reduction.
type Options struct {
	TopN          int     // max items to keep (default 10)
	MinValue      float64 // drop rows below this value (0 = no floor)
	HasMinValue   bool    // MinValue is only applied when set explicitly
	SortAscending bool    // default is descending
	ValueKey      string  // default "value"
	NameKey       string  // default "name"
	OtherLabel    string  // default "Other"
	IncludeZero   bool    // keep rows with value <= 0
}

// Result is the reduced breakdown.
type Result struct {
	// Items holds at most TopN rows in sorted order.
	Items []Row

	// Other is the synthesized aggregate of everything past TopN, or nil
	// when the filtered input fits within TopN. It carries _isOther=true
	// and _itemCount with the number of collapsed rows.
	Other Row

	// MaxValue and TotalValue are computed over the full filtered set,
	// not just Items.
	MaxValue   float64
	TotalValue float64

	// OtherDominates is set when the Other bucket outweighs half the
	// total. It is a layout signal for callers; the reducer itself does
	// not change behavior based on it.
	OtherDominates bool

	// valueKey is the resolved value key, kept so OtherValue works with
	// non-default options.
	valueKey string
}

// Process filters, sorts, and buckets rows into a Top-N breakdown.
// It never fails: malformed values coerce to 0 and blank names become
// "Unknown".
func Process(data []Row, opts Options) Result {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.ValueKey == "" {
		opts.ValueKey = DefaultValueKey
	}
	if opts.NameKey == "" {
		opts.NameKey = DefaultNameKey
	}
	if opts.OtherLabel == "" {
		opts.OtherLabel = DefaultOtherLabel
	}

	// Coerce and filter.
	filtered := make([]Row, 0, len(data))
	for _, row := range data {
		value := normalize.Float(row[opts.ValueKey])
		if value <= 0 && !opts.IncludeZero {
			continue
		}
		if opts.HasMinValue && value < opts.MinValue {
			continue
		}

		out := make(Row, len(row))
		for k, v := range row {
			out[k] = v
		}
		out[opts.ValueKey] = value
		if name := normalize.Name(normalize.String(row[opts.NameKey])); name != "" {
			out[opts.NameKey] = name
		} else {
			out[opts.NameKey] = "Unknown"
		}
		filtered = append(filtered, out)
	}

	// Stable sort so ties keep their input order.
	sort.SliceStable(filtered, func(i, j int) bool {
		a := filtered[i][opts.ValueKey].(float64)
		b := filtered[j][opts.ValueKey].(float64)
		if opts.SortAscending {
			return a < b
		}
		return a > b
	})

	result := Result{valueKey: opts.ValueKey}
	for _, row := range filtered {
		value := row[opts.ValueKey].(float64)
		result.TotalValue += value
		if value > result.MaxValue {
			result.MaxValue = value
		}
	}

	if len(filtered) <= opts.TopN {
		result.Items = filtered
		return result
	}

	result.Items = filtered[:opts.TopN]

	rest := filtered[opts.TopN:]
	otherValue := 0.0
	for _, row := range rest {
		otherValue += row[opts.ValueKey].(float64)
	}
	result.Other = Row{
		opts.NameKey:  opts.OtherLabel,
		opts.ValueKey: otherValue,
		"_isOther":    true,
		"_itemCount":  len(rest),
	}
	result.OtherDominates = otherValue > result.TotalValue*0.5

	return result
}

// OtherValue returns the Other bucket's value, or 0 when there is none.
func (r Result) OtherValue() float64 {
	if r.Other == nil {
		return 0
	}
	v, _ := r.Other[r.valueKey].(float64)
	return v
}
