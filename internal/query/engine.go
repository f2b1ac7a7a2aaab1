// Package query runs the read-only SQL bodies of CREATE and SELECT statements.
//
// The store has no SQL engine of its own. For every query the referenced store tables are
// copied into a private in-memory SQLite database, the query runs there, and the result set
// is read back as a new table. Nothing written to SQLite survives the call.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leengari/cohort-sql/internal/domain/data"
	"github.com/leengari/cohort-sql/internal/domain/errors"
	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/store"
)

// Engine executes a query against the tables of a store and returns the result table
type Engine interface {
	Query(ctx context.Context, sqlText string, tables *store.Store) (*schema.Table, error)
}

// SQLiteEngine is an Engine backed by github.com/mattn/go-sqlite3
type SQLiteEngine struct {
	logger *slog.Logger
}

// NewSQLiteEngine creates a new SQLite-backed engine
func NewSQLiteEngine(logger *slog.Logger) *SQLiteEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteEngine{logger: logger}
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Query implements Engine
func (e *SQLiteEngine) Query(ctx context.Context, sqlText string, tables *store.Store) (*schema.Table, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	defer db.Close()

	// An in-memory database lives on one connection; pin it.
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sqlite connection: %w", err)
	}
	defer conn.Close()

	referenced := ReferencedTables(sqlText, tables.Names())
	for _, name := range referenced {
		t, _ := tables.Get(name)
		if err := Materialize(ctx, conn, name, t); err != nil {
			return nil, fmt.Errorf("failed to materialize table %s: %w", name, err)
		}
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &errors.QueryError{Query: sqlText, Err: err}
	}
	defer rows.Close()

	result, err := ReadTable(rows, e.logger)
	if err != nil {
		return nil, &errors.QueryError{Query: sqlText, Err: err}
	}

	e.logger.Debug("query executed",
		slog.Int("tables", len(referenced)),
		slog.Int("rows", result.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// ReferencedTables returns the subset of names that occur as identifiers in sqlText.
// Matching is case-insensitive, like SQLite's table name resolution.
func ReferencedTables(sqlText string, names []string) []string {
	words := make(map[string]struct{})
	for _, w := range identifierPattern.FindAllString(sqlText, -1) {
		words[strings.ToLower(w)] = struct{}{}
	}
	lowerText := strings.ToLower(sqlText)

	var found []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if identifierPattern.FindString(lower) == lower {
			if _, ok := words[lower]; ok {
				found = append(found, name)
			}
			continue
		}
		if strings.Contains(lowerText, lower) {
			found = append(found, name)
		}
	}
	return found
}

// Materialize creates table t in the SQLite connection under name and copies its rows
func Materialize(ctx context.Context, conn *sql.Conn, name string, t *schema.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}

	defs := make([]string, len(t.Columns))
	placeholders := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		defs[i] = fmt.Sprintf("%s %s", QuoteIdent(col.Name), sqliteType(t, col))
		placeholders[i] = "?"
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(name), strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			args[i] = bindValue(row[col.Name], col.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadTable drains a result set into a new table.
// Duplicate result column names get a numeric suffix.
func ReadTable(rows *sql.Rows, logger *slog.Logger) (*schema.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		unique := name
		if n, dup := seen[name]; dup {
			unique = fmt.Sprintf("%s_%d", name, n)
			if logger != nil {
				logger.Warn("duplicate result column renamed",
					slog.String("column", name),
					slog.String("renamed", unique),
				)
			}
		}
		seen[name]++
		columns[i] = schema.Column{Name: unique, Type: schema.ColumnTypeText}
	}

	result := schema.NewTable("", columns)
	values := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(data.Row, len(columns))
		for i, col := range columns {
			row[col.Name] = cellValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.InferColumnTypes()
	for i := range result.Columns {
		if result.Columns[i].Type != schema.ColumnTypeText || i >= len(colTypes) {
			continue
		}
		if allNull(result, result.Columns[i].Name) {
			result.Columns[i].Type = schema.ParseColumnType(colTypes[i].DatabaseTypeName())
		}
	}
	return result, nil
}

// QuoteIdent quotes an SQLite identifier
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteType(t *schema.Table, col schema.Column) string {
	switch col.Type {
	case schema.ColumnTypeNumeric:
		for _, row := range t.Rows {
			switch row[col.Name].(type) {
			case float64, float32:
				return "REAL"
			}
		}
		return "INTEGER"
	case schema.ColumnTypeDatetime:
		return "TIMESTAMP"
	case schema.ColumnTypeBool:
		return "BOOLEAN"
	}
	return "TEXT"
}

// sqliteTimeLayout is the text form datetimes take inside SQLite; date functions accept it
const sqliteTimeLayout = "2006-01-02 15:04:05.999999"

// bindValue converts a cell to a driver value. Booleans in a text column keep
// their token form so that mixed flag columns read back uniformly.
func bindValue(v interface{}, typ schema.ColumnType) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(sqliteTimeLayout)
	case bool:
		if typ == schema.ColumnTypeText {
			if val {
				return "TRUE"
			}
			return "FALSE"
		}
		if val {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(val)
	}
	return v
}

func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case time.Time:
		return val.UTC()
	}
	return v
}

func allNull(t *schema.Table, column string) bool {
	for _, row := range t.Rows {
		if row[column] != nil {
			return false
		}
	}
	return true
}
