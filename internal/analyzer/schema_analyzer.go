package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/connector"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
)

// SchemaAnalyzer lists the tables of a schema and validates table selections against them
type SchemaAnalyzer struct {
	DB       connector.QueryExecutor
	Dialect  dialect.Dialect
	Schema   string
	Tables   []string
	tableSet map[string]bool
	Logger   *logrus.Logger
}

// NewSchemaAnalyzer creates a new schema analyzer
func NewSchemaAnalyzer(db connector.QueryExecutor, d dialect.Dialect, schema string, logger *logrus.Logger) *SchemaAnalyzer {
	return &SchemaAnalyzer{
		DB:       db,
		Dialect:  d,
		Schema:   schema,
		tableSet: make(map[string]bool),
		Logger:   logger,
	}
}

// AnalyzeSchema loads the base tables of the schema, sorted ascending
func (sa *SchemaAnalyzer) AnalyzeSchema(ctx context.Context) error {
	tablesResult, err := sa.DB.ExecuteQuery(ctx, sa.Dialect.TablesQuery(), sa.Schema)
	if err != nil {
		sa.Logger.Errorf("Error getting tables of schema %s: %v", sa.Schema, err)
		return scanerr.NewSchemaError(sa.Schema, err)
	}

	tables := make([]string, 0, len(tablesResult))
	for _, row := range tablesResult {
		value, ok := row[dialect.ColTableName]
		if !ok || value == nil {
			return scanerr.NewSchemaError(sa.Schema, errors.Errorf("missing %s column in table listing", dialect.ColTableName))
		}
		tables = append(tables, fmt.Sprint(value))
	}
	sort.Strings(tables)

	sa.Tables = tables
	sa.tableSet = make(map[string]bool, len(tables))
	for _, table := range tables {
		sa.tableSet[table] = true
	}

	sa.Logger.Infof("Found %d tables in schema %s", len(tables), sa.Schema)
	return nil
}

// HasTable reports whether table was found by AnalyzeSchema
func (sa *SchemaAnalyzer) HasTable(table string) bool {
	return sa.tableSet[table]
}

// ResolveTables returns the tables to scan. An empty request selects every
// table of the schema; otherwise each requested name must exist and the
// caller's order is kept. Repeated names are scanned once.
func (sa *SchemaAnalyzer) ResolveTables(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), sa.Tables...), nil
	}

	resolved := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	var unknown []string

	for _, table := range requested {
		if seen[table] {
			continue
		}
		seen[table] = true
		if !sa.HasTable(table) {
			unknown = append(unknown, table)
			continue
		}
		resolved = append(resolved, table)
	}

	if len(unknown) > 0 {
		sa.Logger.Errorf("Tables not found in schema %s: %v", sa.Schema, unknown)
		return nil, scanerr.NewSchemaError(sa.Schema, errors.Errorf("unknown tables: %v", unknown))
	}

	return resolved, nil
}
