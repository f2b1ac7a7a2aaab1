// Package normalize post-processes query results: datetime coercion by column-name
// heuristic, boolean coercion of flag columns and per-column numeric casts.
//
// Coercion never fails as a whole. A cell that cannot be converted becomes null and the
// column is reported once in the returned warnings.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/schema"
)

// timeKeywords mark a column as date-like when they appear in its lowercase name
var timeKeywords = []string{"time", "date", "datetime"}

// dateLayouts are tried in order. Fractional seconds are accepted after any layout with seconds.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

var whitespace = regexp.MustCompile(`\s+`)

// IsTimeColumn reports whether the column name looks date-like
func IsTimeColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseDateTime converts a cell to a time. Strings are tried against the
// ISO-like layouts; time values pass through.
func ParseDateTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case []byte:
		return ParseDateTime(string(val))
	}
	return time.Time{}, false
}

// CoerceTimeColumns converts every non-numeric, date-like column to DATETIME
func CoerceTimeColumns(t *schema.Table) []string {
	var warnings []string
	for _, col := range t.Columns {
		if !IsTimeColumn(col.Name) || col.Type == schema.ColumnTypeNumeric {
			continue
		}
		if w := CoerceDatetime(t, col.Name); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

// CoerceDatetime converts one column to DATETIME.
// Returns a warning when some non-empty cells could not be parsed.
func CoerceDatetime(t *schema.Table, column string) string {
	if !t.HasColumn(column) {
		return ""
	}
	failed := 0
	for _, row := range t.Rows {
		v := row[column]
		if v == nil {
			continue
		}
		parsed, ok := ParseDateTime(v)
		if !ok {
			if s, isStr := v.(string); !isStr || strings.TrimSpace(s) != "" {
				failed++
			}
			row[column] = nil
			continue
		}
		row[column] = parsed
	}
	t.SetColumnType(column, schema.ColumnTypeDatetime)
	if failed > 0 {
		return fmt.Sprintf("Warning: %d value(s) in column '%s' could not be converted to datetime and were set to null", failed, column)
	}
	return ""
}

// CoerceBoolColumns converts the named flag columns from 'TRUE'/'FALSE' tokens to booleans.
// Columns absent from the table are skipped.
func CoerceBoolColumns(t *schema.Table, columns ...string) []string {
	var warnings []string
	for _, column := range columns {
		if !t.HasColumn(column) {
			continue
		}
		failed := 0
		for _, row := range t.Rows {
			v := row[column]
			if v == nil {
				continue
			}
			b, ok := toBool(v)
			if !ok {
				failed++
				row[column] = nil
				continue
			}
			row[column] = b
		}
		t.SetColumnType(column, schema.ColumnTypeBool)
		if failed > 0 {
			warnings = append(warnings, fmt.Sprintf("Warning: cannot convert %d value(s) of %s to boolean, set to null", failed, column))
		}
	}
	return warnings
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "TRUE":
			return true, true
		case "FALSE":
			return false, true
		}
	case int64:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	case int:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	case float64:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	}
	return false, false
}

// CoerceFloat casts a column to float64 values
func CoerceFloat(t *schema.Table, column string) string {
	if !t.HasColumn(column) {
		return ""
	}
	failed := 0
	for _, row := range t.Rows {
		switch v := row[column].(type) {
		case nil:
		case int64:
			row[column] = float64(v)
		case int:
			row[column] = float64(v)
		case float64:
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) {
				failed++
				row[column] = nil
				continue
			}
			row[column] = f
		default:
			failed++
			row[column] = nil
		}
	}
	t.SetColumnType(column, schema.ColumnTypeNumeric)
	if failed > 0 {
		return fmt.Sprintf("Warning: converting %s to float64 failed for %d value(s)", column, failed)
	}
	return ""
}

// StripWhitespace removes every whitespace character from string cells
func StripWhitespace(t *schema.Table) {
	for _, row := range t.Rows {
		for k, v := range row {
			if s, ok := v.(string); ok {
				row[k] = whitespace.ReplaceAllString(s, "")
			}
		}
	}
}
