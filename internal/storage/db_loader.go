package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
	"github.com/leengari/cohort-sql/internal/query"
	"github.com/leengari/cohort-sql/internal/store"
)

// LoadFromDB loads every table of a live database into s.
// driver selects how tables are listed: "sqlite3" or "mysql".
func LoadFromDB(ctx context.Context, db *sql.DB, driver string, s *store.Store, opts LoadOptions, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := listTables(ctx, db, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	catalog := &Catalog{Aliases: NewAliasMap()}
	for _, name := range names {
		table, err := readDBTable(ctx, db, driver, name, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", name, err)
		}
		if err := register(catalog, s, name, table, opts, logger); err != nil {
			return nil, err
		}
	}

	finishCatalog(catalog, logger)
	logger.Info("source tables loaded",
		slog.String("driver", driver),
		slog.Int("table_count", len(catalog.Tables)),
	)
	return catalog, nil
}

func listTables(ctx context.Context, db *sql.DB, driver string) ([]string, error) {
	var q string
	switch driver {
	case "sqlite3":
		q = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case "mysql":
		q = "SHOW TABLES"
	default:
		return nil, fmt.Errorf("unsupported source driver: %s", driver)
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func readDBTable(ctx context.Context, db *sql.DB, driver, name string, logger *slog.Logger) (*schema.Table, error) {
	quoted := query.QuoteIdent(name)
	if driver == "mysql" {
		quoted = "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	table, err := query.ReadTable(rows, logger)
	if err != nil {
		return nil, err
	}
	table.Name = name

	// text protocols hand back numbers and datetimes as strings
	for i, ct := range colTypes {
		if i >= len(table.Columns) || table.Columns[i].Type != schema.ColumnTypeText {
			continue
		}
		column := table.Columns[i].Name
		switch schema.ParseColumnType(ct.DatabaseTypeName()) {
		case schema.ColumnTypeNumeric:
			parseNumericStrings(table, column)
		case schema.ColumnTypeDatetime:
			if w := normalize.CoerceDatetime(table, column); w != "" {
				logger.Warn(w, slog.String("table", name))
			}
		}
	}
	return table, nil
}

func parseNumericStrings(t *schema.Table, column string) {
	for _, row := range t.Rows {
		s, ok := row[column].(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			row[column] = n
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			row[column] = f
		}
	}
	t.SetColumnType(column, schema.InferType(t.Values(column)))
}
