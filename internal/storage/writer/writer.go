package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/storage"
)

// exportTimeLayout is parsed back by the loader's datetime layouts
const exportTimeLayout = "2006-01-02 15:04:05.999999"

// SaveTable writes t as a JSON snapshot at path, atomically (temp + rename)
func SaveTable(t *schema.Table, path string) error {
	if t == nil || path == "" {
		return fmt.Errorf("cannot save table: nil or missing path")
	}

	snap := storage.TableSnapshot{
		Name:    t.Name,
		Columns: make([]storage.ColumnMeta, len(t.Columns)),
		Rows:    make([]map[string]interface{}, len(t.Rows)),
	}
	for i, col := range t.Columns {
		snap.Columns[i] = storage.ColumnMeta{Name: col.Name, Type: string(col.Type)}
	}
	for i, row := range t.Rows {
		out := make(map[string]interface{}, len(t.Columns))
		for _, col := range t.Columns {
			v := row[col.Name]
			if ts, ok := v.(time.Time); ok {
				v = ts.UTC().Format(exportTimeLayout)
			}
			out[col.Name] = v
		}
		snap.Rows[i] = out
	}

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table %s: %w", t.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", t.Name, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp file for table %s: %w", t.Name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp → %s for table %s: %w", filepath.Base(path), t.Name, err)
	}

	slog.Info("Table saved successfully",
		slog.String("table", t.Name),
		slog.String("path", path),
		slog.Int("row_count", len(t.Rows)),
	)
	return nil
}

// SaveTables writes each table to dir/<name>.json
func SaveTables(dir string, tables ...*schema.Table) error {
	for _, t := range tables {
		if t == nil {
			continue
		}
		if err := SaveTable(t, filepath.Join(dir, t.Name+".json")); err != nil {
			slog.Error("failed to save table",
				slog.String("table", t.Name),
				slog.Any("error", err),
			)
			return fmt.Errorf("failed to save table %s: %w", t.Name, err)
		}
	}
	return nil
}
