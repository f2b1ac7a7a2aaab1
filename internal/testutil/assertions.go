package testutil

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/schema"
)

// AssertRowCount checks if the table has the expected number of rows
func AssertRowCount(t *testing.T, table *schema.Table, expected int, context string) {
	t.Helper()
	if table == nil {
		t.Errorf("%s: expected %d rows, got nil table", context, expected)
		return
	}
	if table.Len() != expected {
		t.Errorf("%s: expected %d rows, got %d", context, expected, table.Len())
	}
}

// AssertColumnExists checks if the table declares a column
func AssertColumnExists(t *testing.T, table *schema.Table, column, context string) {
	t.Helper()
	if !table.HasColumn(column) {
		t.Errorf("%s: expected column '%s' to exist, have %v", context, column, table.ColumnNames())
	}
}

// AssertColumnType checks the declared type of a column
func AssertColumnType(t *testing.T, table *schema.Table, column string, expected schema.ColumnType, context string) {
	t.Helper()
	col := table.Column(column)
	if col == nil {
		t.Errorf("%s: column '%s' does not exist", context, column)
		return
	}
	if col.Type != expected {
		t.Errorf("%s: expected column '%s' to be %s, got %s", context, column, expected, col.Type)
	}
}

// AssertNoError checks that an error is nil
func AssertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: expected no error, got: %v", context, err)
	}
}

// AssertNullValue checks if a value is nil
func AssertNullValue(t *testing.T, value interface{}, context string) {
	t.Helper()
	if value != nil {
		t.Errorf("%s: expected NULL value, got: %v", context, value)
	}
}

// AssertColumnValues checks a column's cells in row order
func AssertColumnValues(t *testing.T, table *schema.Table, column string, expected []interface{}, context string) {
	t.Helper()
	got := table.Values(column)
	if len(got) != len(expected) {
		t.Errorf("%s: expected %d values in '%s', got %d (%v)", context, len(expected), column, len(got), got)
		return
	}
	for i := range expected {
		if canonical(got[i]) != canonical(expected[i]) {
			t.Errorf("%s: row %d of '%s': expected %v, got %v", context, i, column, expected[i], got[i])
		}
	}
}

// AssertBagEqual checks that two tables hold the same columns and the same multiset of rows,
// ignoring row order
func AssertBagEqual(t *testing.T, got, want *schema.Table, context string) {
	t.Helper()
	gotCols, wantCols := sortedCopy(got.ColumnNames()), sortedCopy(want.ColumnNames())
	if strings.Join(gotCols, ",") != strings.Join(wantCols, ",") {
		t.Errorf("%s: columns differ: got %v, want %v", context, gotCols, wantCols)
		return
	}

	counts := make(map[string]int)
	for _, row := range want.Rows {
		counts[rowKey(row, wantCols)]++
	}
	for _, row := range got.Rows {
		counts[rowKey(row, gotCols)]--
	}
	for key, n := range counts {
		if n != 0 {
			t.Errorf("%s: row %s differs in multiplicity by %d", context, key, n)
		}
	}
}

func rowKey(row data.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + "=" + canonical(row[col])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func canonical(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return "time:" + val.UTC().Format(time.RFC3339Nano)
	}
	if f, ok := data.ToFloat(v); ok {
		return fmt.Sprintf("num:%v", f)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
