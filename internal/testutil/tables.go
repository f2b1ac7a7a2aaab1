package testutil

import (
	"time"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/store"
)

// BuildTable creates a table from positional rows; column types are inferred from the values
func BuildTable(name string, columns []string, rows ...[]interface{}) *schema.Table {
	cols := make([]schema.Column, len(columns))
	for i, c := range columns {
		cols[i] = schema.Column{Name: c, Type: schema.ColumnTypeText}
	}
	table := schema.NewTable(name, cols)
	for _, values := range rows {
		row := make(data.Row, len(columns))
		for i, c := range columns {
			if i < len(values) {
				row[c] = values[i]
			}
		}
		table.Append(row)
	}
	table.InferColumnTypes()
	return table
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StoreOf registers the tables in a new store under their own names
func StoreOf(tables ...*schema.Table) *store.Store {
	s := store.New()
	for _, t := range tables {
		s.Put(t.Name, t)
	}
	return s
}

// CreateMatchingTable creates temp_eighteen with cases and controls over (gender, age).
// Subjects 4 and 6 are controls with no case of the same gender and age.
func CreateMatchingTable() *schema.Table {
	return BuildTable("temp_eighteen",
		[]string{"subject_id", "gender", "age", "with_psychosis"},
		[]interface{}{int64(1), "F", int64(40), true},
		[]interface{}{int64(2), "M", int64(55), "TRUE"},
		[]interface{}{int64(3), "F", int64(40), false},
		[]interface{}{int64(4), "F", int64(41), false},
		[]interface{}{int64(5), "M", int64(55), "FALSE"},
		[]interface{}{int64(6), "M", nil, false},
		[]interface{}{int64(7), "F", int64(90), true},
	)
}

// CreatePrescriptionsTable creates a small drug-order extract
func CreatePrescriptionsTable() *schema.Table {
	return BuildTable("mimiciv_hosp_prescriptions",
		[]string{"subject_id", "hadm_id", "drug", "dose_val_rx", "dose_unit_rx", "starttime", "stoptime"},
		[]interface{}{int64(10), int64(100), "Aspirin 81mg", "0", "mg", time.Date(2150, 1, 1, 8, 0, 0, 0, time.UTC), time.Date(2150, 1, 2, 8, 0, 0, 0, time.UTC)},
		[]interface{}{int64(10), int64(100), "Aspirin", "325", "mg", time.Date(2150, 1, 3, 8, 0, 0, 0, time.UTC), time.Date(2150, 1, 4, 20, 0, 0, 0, time.UTC)},
		[]interface{}{int64(11), int64(101), "Heparin", "5000", "UNIT", time.Date(2151, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2151, 2, 1, 12, 0, 0, 0, time.UTC)},
	)
}
