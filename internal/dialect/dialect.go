// Package dialect builds the SQL a scan issues against a spatial database.
//
// Every query is built from identifiers that have already been validated
// against the introspected table list, and every identifier is quoted with
// the engine's own escaping before it reaches the statement text.
package dialect

import (
	"fmt"
	"strings"
)

// Column aliases shared by every dialect's queries. Result rows are read by these names.
const (
	ColTableName = "table_name"

	ColFID      = "fid"
	ColReason   = "reason"
	ColLocation = "location"
	ColNumber   = "number"

	ColFID1            = "t1id"
	ColFID2            = "t2id"
	ColIntersection    = "gi_json"
	ColGeometry1       = "g1_json"
	ColGeometry2       = "g2_json"
	ColIntersectionWKT = "gi_wkt"
	ColCrosses         = "t1_crosses_t2"
	ColDimension       = "gi_dim"
)

// GeoJSONPrecision is the number of decimals geometries are serialized with.
// Endpoint matching compares coordinates at this precision.
const GeoJSONPrecision = 3

// ConnectionParams holds what is needed to reach a database
type ConnectionParams struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Columns names the feature id and geometry columns every scanned table shares
type Columns struct {
	ID   string
	Geom string
}

// DefaultColumns returns the id/geom naming convention
func DefaultColumns() Columns {
	return Columns{ID: "id", Geom: "geom"}
}

// Dialect produces engine specific SQL for a scan
type Dialect interface {
	// Name returns the dialect name used in configuration
	Name() string
	// DriverName returns the database/sql driver to open
	DriverName() string
	// DefaultPort returns the engine's usual port
	DefaultPort() string
	// DefaultUser returns the engine's usual superuser
	DefaultUser() string
	// DSN builds the driver connection string
	DSN(params ConnectionParams) string
	// QuoteIdentifier quotes and joins a qualified identifier
	QuoteIdentifier(parts ...string) string
	// TablesQuery lists base tables of the schema bound to the first parameter
	TablesQuery() string
	InvalidGeomsQuery(schema, table string) string
	DuplicateGeomsQuery(schema, table string) string
	MultipartGeomsQuery(schema, table string) string
	NullGeomsQuery(schema, table string) string
	IntersectionQuery(schema, table1, table2 string) string
}

// New returns the dialect registered under name
func New(name string, columns Columns) (Dialect, error) {
	if columns.ID == "" {
		columns.ID = DefaultColumns().ID
	}
	if columns.Geom == "" {
		columns.Geom = DefaultColumns().Geom
	}

	switch strings.ToLower(name) {
	case "", "postgis", "postgres", "postgresql":
		return &Postgis{Columns: columns}, nil
	case "mysql":
		return &MySQL{Columns: columns}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
}

// Names lists the accepted dialect names
func Names() []string {
	return []string{"postgis", "mysql"}
}
