package analyzer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
)

// MockDatabaseConnector is a mock implementation of the query executor
type MockDatabaseConnector struct {
	ExecuteQueryFunc func(query string, params ...interface{}) ([]map[string]interface{}, error)
}

func (m *MockDatabaseConnector) ExecuteQuery(_ context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	return m.ExecuteQueryFunc(query, params...)
}

func newTestAnalyzer(rows []map[string]interface{}, err error) *SchemaAnalyzer {
	// Create a logger
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests

	db := &MockDatabaseConnector{
		ExecuteQueryFunc: func(query string, params ...interface{}) ([]map[string]interface{}, error) {
			return rows, err
		},
	}
	return NewSchemaAnalyzer(db, &dialect.Postgis{Columns: dialect.DefaultColumns()}, "public", logger)
}

func TestAnalyzeSchemaSortsTables(t *testing.T) {
	var gotParams []interface{}
	analyzer := newTestAnalyzer(nil, nil)
	analyzer.DB = &MockDatabaseConnector{
		ExecuteQueryFunc: func(query string, params ...interface{}) ([]map[string]interface{}, error) {
			gotParams = params
			return []map[string]interface{}{
				{"table_name": "rivers"},
				{"table_name": "buildings"},
				{"table_name": "roads"},
			}, nil
		},
	}

	if err := analyzer.AnalyzeSchema(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{"buildings", "rivers", "roads"}
	if len(analyzer.Tables) != len(expected) {
		t.Fatalf("Expected %d tables, got %d", len(expected), len(analyzer.Tables))
	}
	for i, table := range expected {
		if analyzer.Tables[i] != table {
			t.Errorf("Expected table %d to be '%s', got '%s'", i, table, analyzer.Tables[i])
		}
	}
	if len(gotParams) != 1 || gotParams[0] != "public" {
		t.Errorf("Expected schema 'public' as the only parameter, got %v", gotParams)
	}
}

func TestAnalyzeSchemaEmpty(t *testing.T) {
	analyzer := newTestAnalyzer(nil, nil)

	if err := analyzer.AnalyzeSchema(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(analyzer.Tables) != 0 {
		t.Errorf("Expected no tables, got %v", analyzer.Tables)
	}
}

func TestAnalyzeSchemaFailureIsFatal(t *testing.T) {
	analyzer := newTestAnalyzer(nil, errors.New("permission denied for schema public"))

	err := analyzer.AnalyzeSchema(context.Background())
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if !scanerr.IsFatal(err) {
		t.Errorf("Expected a fatal schema error, got %T", err)
	}
}

func TestAnalyzeSchemaMissingColumn(t *testing.T) {
	analyzer := newTestAnalyzer([]map[string]interface{}{{"name": "roads"}}, nil)

	err := analyzer.AnalyzeSchema(context.Background())
	if !scanerr.IsFatal(err) {
		t.Errorf("Expected a fatal schema error, got %v", err)
	}
}

func TestResolveTables(t *testing.T) {
	analyzer := newTestAnalyzer([]map[string]interface{}{
		{"table_name": "a"},
		{"table_name": "b"},
		{"table_name": "c"},
	}, nil)
	if err := analyzer.AnalyzeSchema(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tests := []struct {
		name      string
		requested []string
		expected  []string
		wantErr   bool
	}{
		{name: "all tables", requested: nil, expected: []string{"a", "b", "c"}},
		{name: "caller order kept", requested: []string{"c", "a"}, expected: []string{"c", "a"}},
		{name: "duplicates dropped", requested: []string{"b", "b", "a"}, expected: []string{"b", "a"}},
		{name: "unknown table", requested: []string{"a", "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := analyzer.ResolveTables(tt.requested)
			if tt.wantErr {
				if !scanerr.IsFatal(err) {
					t.Errorf("Expected a fatal schema error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(resolved) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, resolved)
			}
			for i := range tt.expected {
				if resolved[i] != tt.expected[i] {
					t.Errorf("Expected %v, got %v", tt.expected, resolved)
				}
			}
		})
	}
}
