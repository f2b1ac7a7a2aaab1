package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leengari/cohort-sql/internal/domain/schema"
	"github.com/leengari/cohort-sql/internal/normalize"
	"github.com/leengari/cohort-sql/internal/store"
)

// LoadOptions are the per-pipeline rules applied while loading source tables
type LoadOptions struct {
	// Fold maps a source table name to its store identifier. Nil keeps names unchanged.
	Fold func(string) string

	// StripWhitespace removes all whitespace inside string cells
	StripWhitespace bool

	// CoerceTimeColumns converts time/date-named columns to datetime
	CoerceTimeColumns bool
}

func (o LoadOptions) alias(name string) string {
	if o.Fold == nil {
		return name
	}
	return o.Fold(name)
}

// Catalog describes what a load put into the store
type Catalog struct {
	Aliases *AliasMap
	Tables  []TableInfo
}

// LoadDirectory loads every snapshot file of dir into s under its folded name.
// The alias map covers every file stem, including names the fold leaves unchanged.
func LoadDirectory(dir string, s *store.Store, opts LoadOptions, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	catalog := &Catalog{Aliases: NewAliasMap()}
	for _, entry := range entries {
		if entry.IsDir() || !IsSnapshot(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		table, err := LoadTable(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", entry.Name(), err)
		}

		original := TableName(path)
		if err := register(catalog, s, original, table, opts, logger); err != nil {
			return nil, err
		}
	}

	finishCatalog(catalog, logger)
	logger.Info("source tables loaded",
		slog.String("path", dir),
		slog.Int("table_count", len(catalog.Tables)),
	)
	return catalog, nil
}

func register(catalog *Catalog, s *store.Store, original string, table *schema.Table, opts LoadOptions, logger *slog.Logger) error {
	alias := opts.alias(original)
	if prev, ok := catalog.Aliases.Lookup(original); ok {
		return fmt.Errorf("duplicate source table %s (already loaded as %s)", original, prev)
	}

	applyLoadRules(table, opts, logger)
	table.Name = alias
	catalog.Aliases.Add(original, alias)
	catalog.Tables = append(catalog.Tables, TableInfo{Name: original, Alias: alias, Rows: table.Len()})
	s.Put(alias, table)
	return nil
}

func applyLoadRules(table *schema.Table, opts LoadOptions, logger *slog.Logger) {
	// datetimes first: stripping would glue the date and time parts of a text cell
	if opts.CoerceTimeColumns {
		for _, w := range normalize.CoerceTimeColumns(table) {
			logger.Warn(w, slog.String("table", table.Name))
		}
	}
	if opts.StripWhitespace {
		normalize.StripWhitespace(table)
	}
}

func finishCatalog(catalog *Catalog, logger *slog.Logger) {
	SortSummary(catalog.Tables)
	for _, c := range catalog.Aliases.Collisions() {
		logger.Warn("alias key occurs inside another table name",
			slog.String("key", c.Key),
			slog.String("other", c.Other),
		)
	}
}

// Tier orders source tables for the summary: hospital tables first, then emergency
func Tier(name string) int {
	switch {
	case strings.Contains(name, "mimiciv_hosp"):
		return 0
	case strings.Contains(name, "mimic_ed"):
		return 1
	}
	return 2
}

// SortSummary orders the summary by tier, then name
func SortSummary(tables []TableInfo) {
	sort.SliceStable(tables, func(i, j int) bool {
		ti, tj := Tier(tables[i].Name), Tier(tables[j].Name)
		if ti != tj {
			return ti < tj
		}
		return tables[i].Name < tables[j].Name
	})
}
