package data

import (
	"fmt"
	"strings"
)

// JoinedRow pairs a row of the left table with a matching row of the right table.
// Column lookups prefer the left side; a right-only column is visible under its own
// name, and a column present on both sides is reachable on the right via Suffix.
type JoinedRow struct {
	Left   Row
	Right  Row
	Suffix string
}

// NewJoinedRow creates a JoinedRow for one match of an inner join
func NewJoinedRow(left, right Row, suffix string) JoinedRow {
	return JoinedRow{Left: left, Right: right, Suffix: suffix}
}

// Get retrieves a value by column name
func (jr JoinedRow) Get(column string) (interface{}, bool) {
	if val, ok := jr.Left[column]; ok {
		return val, true
	}
	if jr.Suffix != "" && strings.HasSuffix(column, jr.Suffix) {
		if val, ok := jr.Right[strings.TrimSuffix(column, jr.Suffix)]; ok {
			return val, true
		}
	}
	val, ok := jr.Right[column]
	return val, ok
}

// Value is Get without the presence flag; absent columns read as null
func (jr JoinedRow) Value(column string) interface{} {
	val, _ := jr.Get(column)
	return val
}

// String returns a string representation for debugging
func (jr JoinedRow) String() string {
	return fmt.Sprintf("JoinedRow{left=%v right=%v}", jr.Left, jr.Right)
}
