package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
)

// TableName returns the table name a snapshot file stands for: its base name without extension
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsSnapshot reports whether a file has a snapshot extension the loader reads
func IsSnapshot(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".csv":
		return true
	}
	return false
}

// LoadTable reads one snapshot file (.json or .csv)
func LoadTable(path string, logger *slog.Logger) (*schema.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var table *schema.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		table, err = decodeJSONTable(raw)
	case ".csv":
		table, err = decodeCSVTable(raw)
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if table.Name == "" {
		table.Name = TableName(path)
	}

	logger.Info("table loaded",
		slog.String("table", table.Name),
		slog.Int("rows", table.Len()),
	)
	return table, nil
}

func decodeJSONTable(raw []byte) (*schema.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var snap TableSnapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, len(snap.Columns))
	declared := make(map[string]bool)
	for _, c := range snap.Columns {
		var typ schema.ColumnType
		if c.Type != "" {
			typ = schema.ParseColumnType(c.Type)
		}
		columns = append(columns, schema.Column{Name: c.Name, Type: typ})
		declared[c.Name] = true
	}
	// columns only present in rows are appended in name order
	var extra []string
	for _, r := range snap.Rows {
		for k := range r {
			if !declared[k] {
				declared[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		columns = append(columns, schema.Column{Name: name})
	}

	table := schema.NewTable(snap.Name, columns)
	for _, r := range snap.Rows {
		row := make(data.Row, len(columns))
		for _, col := range columns {
			v, err := jsonCell(r[col.Name])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
			row[col.Name] = v
		}
		table.Append(row)
	}

	for i := range table.Columns {
		col := &table.Columns[i]
		switch col.Type {
		case schema.ColumnTypeDatetime:
			normalize.CoerceDatetime(table, col.Name)
		case "":
			col.Type = schema.InferType(table.Values(col.Name))
		}
	}
	return table, nil
}

func jsonCell(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case nil, string, bool:
		return val, nil
	}
	return nil, fmt.Errorf("unsupported JSON value %T", v)
}

func decodeCSVTable(raw []byte) (*schema.Table, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty CSV file")
		}
		return nil, err
	}

	columns := make([]schema.Column, len(header))
	for i, name := range header {
		columns[i] = schema.Column{Name: strings.TrimPrefix(name, "\ufeff"), Type: schema.ColumnTypeText}
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	table := schema.NewTable("", columns)
	for _, rec := range records {
		row := make(data.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) && rec[i] != "" {
				row[col.Name] = rec[i]
			} else {
				row[col.Name] = nil
			}
		}
		table.Append(row)
	}

	for i := range table.Columns {
		table.Columns[i].Type = inferCSVColumn(table, table.Columns[i].Name)
	}
	return table, nil
}

// inferCSVColumn converts a column of strings to int64 or float64 when every value parses
func inferCSVColumn(t *schema.Table, column string) schema.ColumnType {
	allInt, allFloat, any := true, true, false
	for _, row := range t.Rows {
		s, ok := row[column].(string)
		if !ok {
			continue
		}
		any = true
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			allFloat = false
		}
	}
	if !any || !allFloat {
		return schema.ColumnTypeText
	}
	for _, row := range t.Rows {
		s, ok := row[column].(string)
		if !ok {
			continue
		}
		if allInt {
			row[column], _ = strconv.ParseInt(s, 10, 64)
		} else {
			row[column], _ = strconv.ParseFloat(s, 64)
		}
	}
	return schema.ColumnTypeNumeric
}
