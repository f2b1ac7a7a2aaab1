package storage

// TableSnapshot is the on-disk JSON form of one table
type TableSnapshot struct {
	Name    string                   `json:"name"`
	Columns []ColumnMeta             `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TableInfo is one line of the loaded-source summary
type TableInfo struct {
	Name  string `json:"name"`  // name as found in the source
	Alias string `json:"alias"` // store-safe identifier
	Rows  int    `json:"rows"`
}
