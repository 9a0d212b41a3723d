// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Email normalizes an email address by trimming whitespace and converting to lowercase.
// This is the canonical way to normalize emails before storage or comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name normalizes a name by trimming whitespace.
// Use text.Fold() for case-insensitive comparison keys.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role normalizes a role value by trimming whitespace and converting to lowercase.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status normalizes a status value by trimming whitespace and converting to lowercase.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Canonical tokens produced by Category.
const (
	// NotProvided is the canonical label for values that explicitly mark
	// the field as missing ("n/a", "none", "-", ...).
	NotProvided = "Not Provided"

	// UnknownCategory is the label for blank or whitespace-only values.
	//
	// The asymmetry with NotProvided is deliberate: a blank field means the
	// data never arrived, while "n/a" means someone marked it missing. The
	// two buckets stay distinct in every breakdown.
	UnknownCategory = "Unknown"
)

// missingTokens are the trimmed, lowercased values recognized as an
// explicit "not provided" marker.
var missingTokens = map[string]struct{}{
	"not provided": {},
	"n/a":          {},
	"na":           {},
	"unknown":      {},
	"none":         {},
	"-":            {},
	"null":         {},
	"undefined":    {},
}

// Category canonicalizes a free-text category label (donation source,
// occupation, referrer, ...) for grouping and display.
//
// Blank input maps to UnknownCategory, explicit missing markers map to
// NotProvided, and everything else is trimmed with case preserved.
// Category is idempotent: Category(Category(x)) == Category(x).
func Category(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UnknownCategory
	}
	// The canonical "Unknown" token is a fixed point; without this the
	// blank bucket would collapse into NotProvided on a second pass.
	if trimmed == UnknownCategory {
		return UnknownCategory
	}
	if _, ok := missingTokens[strings.ToLower(trimmed)]; ok {
		return NotProvided
	}
	return trimmed
}

// MergeCategories groups rows by the lowercased canonical form of their
// name field, summing the value field. The surviving record keeps the
// canonical (not lowercased) display name of its first occurrence, and
// output order is first-occurrence order.
//
// Values are coerced leniently: numeric types pass through, numeric
// strings parse, anything else counts as 0 (see Float).
func MergeCategories(rows []map[string]any, nameKey, valueKey string) []map[string]any {
	merged := make([]map[string]any, 0, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		name := Category(String(row[nameKey]))
		key := strings.ToLower(name)

		if i, ok := index[key]; ok {
			merged[i][valueKey] = Float(merged[i][valueKey]) + Float(row[valueKey])
			continue
		}

		out := make(map[string]any, len(row))
		for k, v := range row {
			out[k] = v
		}
		out[nameKey] = name
		out[valueKey] = Float(row[valueKey])

		index[key] = len(merged)
		merged = append(merged, out)
	}

	return merged
}

// String coerces an arbitrary value to a string, mapping nil to "".
func String(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Float coerces an arbitrary value to a float64 with Number(...)||0
// semantics: numeric types pass through, numeric strings parse, and
// everything else (nil, empty string, garbage) becomes 0.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	case nil:
		return 0
	default:
		return 0
	}
}
