// Package csvexport turns generic row/column data into downloadable CSV.
//
// Serialize and ServeDownload are split so the string shape is testable
// without an HTTP response: Serialize is a pure function, ServeDownload
// adds the attachment headers and writes the bytes.
//
// The escaping contract is exact: a field is quoted, with internal quotes
// doubled, iff it contains a comma, double quote, CR, or LF; everything
// else is emitted bare. encoding/csv also quotes fields with leading
// spaces, which breaks byte-for-byte fixture comparisons, so the writer
// is implemented directly.
package csvexport

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// BOM is the UTF-8 byte-order mark prepended to every export so Excel
// detects the encoding.
const BOM = "\uFEFF"

// Column maps a row key to its header label.
type Column struct {
	Key   string
	Label string
}

// Serialize renders rows into a CSV string with CRLF line endings,
// prefixed with the UTF-8 BOM. The header row is always emitted, even
// for zero rows. Missing or nil fields degrade to empty strings; row
// order is preserved.
func Serialize(rows []map[string]any, columns []Column) string {
	var b strings.Builder
	b.WriteString(BOM)

	for i, col := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(col.Label))
	}
	b.WriteString("\r\n")

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = escapeField(fieldString(row[col.Key]))
		}
		b.WriteString(strings.Join(record, ","))
		b.WriteString("\r\n")
	}

	return b.String()
}

// ServeDownload writes rows as a CSV file attachment.
func ServeDownload(w http.ResponseWriter, log *zap.Logger, filename string, rows []map[string]any, columns []Column) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	if _, err := w.Write([]byte(Serialize(rows, columns))); err != nil {
		log.Error("CSV write failed", zap.String("filename", filename), zap.Error(err))
		return
	}

	log.Info("CSV exported", zap.String("filename", filename), zap.Int("rows", len(rows)))
}

// SanitizeField guards a user-supplied value against spreadsheet formula
// injection by prefixing a quote when the field starts with a formula
// trigger character. Apply to free-text fields before export.
func SanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// escapeField quotes s iff it contains a comma, quote, CR, or LF.
func escapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// fieldString renders a cell value. Floats drop trailing zeros so 250.50
// exports as "250.5" and 12.0 as "12".
func fieldString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}
