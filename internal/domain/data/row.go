package data

// Row represents a single table row
// Key = column name, Value = cell value (nil, int64, float64, string, bool or time.Time)
type Row map[string]interface{}

// NewRow creates a new Row with the given data
func NewRow(values map[string]interface{}) Row {
	return Row(values)
}

// Copy creates a shallow copy of the row to prevent mutation
func (r Row) Copy() Row {
	copy := make(Row, len(r))
	for k, v := range r {
		copy[k] = v
	}
	return copy
}

// Get returns the value for a column and whether the column is present
func (r Row) Get(column string) (interface{}, bool) {
	val, ok := r[column]
	return val, ok
}
