package dialect

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgis builds queries for PostgreSQL with the PostGIS extension
type Postgis struct {
	Columns Columns
}

func (d *Postgis) Name() string        { return "postgis" }
func (d *Postgis) DriverName() string  { return "pgx" }
func (d *Postgis) DefaultPort() string { return "5432" }
func (d *Postgis) DefaultUser() string { return "postgres" }

// DSN builds a key=value connection string
func (d *Postgis) DSN(params ConnectionParams) string {
	host := params.Host
	if host == "" {
		host = "localhost"
	}
	port := params.Port
	if port == "" {
		port = d.DefaultPort()
	}

	dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=disable",
		dsnValue(host), dsnValue(port), dsnValue(params.Database))
	if params.User != "" {
		dsn += " user=" + dsnValue(params.User)
	}
	if params.Password != "" {
		dsn += " password=" + dsnValue(params.Password)
	}
	return dsn
}

// dsnValue quotes a libpq keyword value
func dsnValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// QuoteIdentifier uses pgx's identifier sanitizing
func (d *Postgis) QuoteIdentifier(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

func (d *Postgis) TablesQuery() string {
	return "SELECT tablename AS " + ColTableName + " " +
		"FROM pg_tables " +
		"WHERE schemaname = $1 " +
		"ORDER BY tablename"
}

func (d *Postgis) InvalidGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s, "+
			"reason(ST_IsValidDetail(%[2]s)) AS %[5]s, "+
			"ST_AsText(location(ST_IsValidDetail(%[2]s))) AS %[6]s "+
			"FROM %[3]s "+
			"WHERE ST_IsValid(%[2]s) = false "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColReason, ColLocation)
}

func (d *Postgis) DuplicateGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[4]s, dup_row AS %[5]s "+
			"FROM ("+
			"SELECT %[1]s AS %[4]s, ROW_NUMBER() OVER(PARTITION BY %[2]s ORDER BY %[1]s ASC) AS dup_row "+
			"FROM ONLY %[3]s "+
			"WHERE %[2]s IS NOT NULL"+
			") dups "+
			"WHERE dups.dup_row > 1 "+
			"ORDER BY %[4]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColNumber)
}

func (d *Postgis) MultipartGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s, ST_NumGeometries(%[2]s) AS %[5]s "+
			"FROM %[3]s "+
			"WHERE ST_NumGeometries(%[2]s) > 1 "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColNumber)
}

func (d *Postgis) NullGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s "+
			"FROM %[3]s "+
			"WHERE %[2]s IS NULL "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID)
}

// IntersectionQuery returns every feature pair of table1 and table2 that
// intersects without merely touching, ordered by the first then second id.
func (d *Postgis) IntersectionQuery(schema, table1, table2 string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT "+
			"%[5]s, "+
			"%[6]s, "+
			"ST_AsGeoJSON(gi, %[13]d) AS %[7]s, "+
			"ST_AsGeoJSON(g1, %[13]d) AS %[8]s, "+
			"ST_AsGeoJSON(g2, %[13]d) AS %[9]s, "+
			"ST_AsText(ST_Multi(gi)) AS %[10]s, "+
			"%[11]s, "+
			"ST_Dimension(gi) AS %[12]s "+
			"FROM ("+
			"SELECT "+
			"t1.%[1]s AS %[5]s, "+
			"t2.%[1]s AS %[6]s, "+
			"t1.%[2]s AS g1, "+
			"t2.%[2]s AS g2, "+
			"ST_Intersection(t1.%[2]s, t2.%[2]s) AS gi, "+
			"ST_Crosses(t1.%[2]s, t2.%[2]s) AS %[11]s "+
			"FROM %[3]s AS t1, %[4]s AS t2 "+
			"WHERE ST_Intersects(t1.%[2]s, t2.%[2]s) AND NOT ST_Touches(t1.%[2]s, t2.%[2]s)"+
			") AS candidates "+
			"ORDER BY %[5]s, %[6]s",
		id, geom,
		d.QuoteIdentifier(schema, table1), d.QuoteIdentifier(schema, table2),
		ColFID1, ColFID2, ColIntersection, ColGeometry1, ColGeometry2,
		ColIntersectionWKT, ColCrosses, ColDimension, GeoJSONPrecision)
}
