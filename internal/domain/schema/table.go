package schema

import (
	"strings"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/data"
)

type ColumnType string

const (
	ColumnTypeNumeric  ColumnType = "NUMERIC"
	ColumnTypeText     ColumnType = "TEXT"
	ColumnTypeDatetime ColumnType = "DATETIME"
	ColumnTypeBool     ColumnType = "BOOL"
)

// ParseColumnType maps a declared SQL type token onto one of the four column kinds.
// Unknown tokens fall back to TEXT.
func ParseColumnType(token string) ColumnType {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL", "NUMBER":
		return ColumnTypeNumeric
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return ColumnTypeDatetime
	case "BOOL", "BOOLEAN":
		return ColumnTypeBool
	}
	return ColumnTypeText
}

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is a named, ordered collection of rows sharing a column schema.
// Row order is insertion order.
type Table struct {
	Name    string
	Columns []Column
	Rows    []data.Row
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []Column) *Table {
	return &Table{
		Name:    name,
		Columns: columns,
		Rows:    []data.Row{},
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in schema order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column definition with the given name, or nil
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the schema declares the column
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// AddColumn appends a column filled with nulls.
// Returns false if the column already exists.
func (t *Table) AddColumn(name string, typ ColumnType) bool {
	if t.HasColumn(name) {
		return false
	}
	t.Columns = append(t.Columns, Column{Name: name, Type: typ})
	for _, row := range t.Rows {
		row[name] = nil
	}
	return true
}

// SetColumnType changes the declared type of an existing column
func (t *Table) SetColumnType(name string, typ ColumnType) {
	if col := t.Column(name); col != nil {
		col.Type = typ
	}
}

// Append adds a row; columns missing from the row are stored as null
func (t *Table) Append(row data.Row) {
	for _, col := range t.Columns {
		if _, ok := row[col.Name]; !ok {
			row[col.Name] = nil
		}
	}
	t.Rows = append(t.Rows, row)
}

// Values returns the column's cells in row order
func (t *Table) Values(column string) []interface{} {
	values := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[column]
	}
	return values
}

// Delete removes rows that match the given predicate
// Returns the number of rows deleted
func (t *Table) Delete(predicate func(data.Row) bool) int {
	newRows := make([]data.Row, 0, len(t.Rows))
	deleted := 0

	for _, row := range t.Rows {
		if predicate(row) {
			deleted++
			continue
		}
		newRows = append(newRows, row)
	}

	if deleted > 0 {
		t.Rows = newRows
	}
	return deleted
}

// Clone returns a deep copy of the table (rows are copied, cell values are immutable)
func (t *Table) Clone() *Table {
	columns := make([]Column, len(t.Columns))
	copy(columns, t.Columns)
	rows := make([]data.Row, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row.Copy()
	}
	return &Table{Name: t.Name, Columns: columns, Rows: rows}
}

// InferColumnTypes sets every column's type from the values it holds.
// A column with no non-null values keeps TEXT.
func (t *Table) InferColumnTypes() {
	for i := range t.Columns {
		t.Columns[i].Type = InferType(t.Values(t.Columns[i].Name))
	}
}

// InferType picks the column kind shared by all non-null values
func InferType(values []interface{}) ColumnType {
	var kind ColumnType
	for _, v := range values {
		var k ColumnType
		switch v.(type) {
		case nil:
			continue
		case int, int32, int64, float32, float64:
			k = ColumnTypeNumeric
		case bool:
			k = ColumnTypeBool
		case time.Time:
			k = ColumnTypeDatetime
		default:
			k = ColumnTypeText
		}
		if kind == "" {
			kind = k
		} else if kind != k {
			return ColumnTypeText
		}
	}
	if kind == "" {
		return ColumnTypeText
	}
	return kind
}
