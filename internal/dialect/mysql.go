package dialect

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL builds queries for MySQL 8 spatial tables. MySQL has no schema level
// below the database, so the scanned schema is the database name.
type MySQL struct {
	Columns Columns
}

func (d *MySQL) Name() string        { return "mysql" }
func (d *MySQL) DriverName() string  { return "mysql" }
func (d *MySQL) DefaultPort() string { return "3306" }
func (d *MySQL) DefaultUser() string { return "root" }

// DSN builds a go-sql-driver connection string
func (d *MySQL) DSN(params ConnectionParams) string {
	host := params.Host
	if host == "" {
		host = "localhost"
	}
	port := params.Port
	if port == "" {
		port = d.DefaultPort()
	}

	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = params.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// QuoteIdentifier quotes each part in backticks, doubling embedded backticks
func (d *MySQL) QuoteIdentifier(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}
	return strings.Join(quoted, ".")
}

func (d *MySQL) TablesQuery() string {
	return "SELECT table_name AS " + ColTableName + " " +
		"FROM information_schema.tables " +
		"WHERE table_schema = ? " +
		"AND table_type = 'BASE TABLE' " +
		"ORDER BY table_name"
}

// InvalidGeomsQuery reports a fixed reason; MySQL has no ST_IsValidDetail
func (d *MySQL) InvalidGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s, "+
			"'Invalid geometry' AS %[5]s, "+
			"NULL AS %[6]s "+
			"FROM %[3]s "+
			"WHERE ST_IsValid(%[2]s) = 0 "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColReason, ColLocation)
}

func (d *MySQL) DuplicateGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[4]s, dup_row AS %[5]s "+
			"FROM ("+
			"SELECT %[1]s AS %[4]s, ROW_NUMBER() OVER(PARTITION BY ST_AsWKB(%[2]s) ORDER BY %[1]s ASC) AS dup_row "+
			"FROM %[3]s "+
			"WHERE %[2]s IS NOT NULL"+
			") dups "+
			"WHERE dups.dup_row > 1 "+
			"ORDER BY %[4]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColNumber)
}

// MultipartGeomsQuery only counts parts of multi geometries, where MySQL defines ST_NumGeometries
func (d *MySQL) MultipartGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s, ST_NumGeometries(%[2]s) AS %[5]s "+
			"FROM %[3]s "+
			"WHERE ST_GeometryType(%[2]s) IN ('MULTIPOINT', 'MULTILINESTRING', 'MULTIPOLYGON', 'GEOMCOLLECTION') "+
			"AND ST_NumGeometries(%[2]s) > 1 "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID, ColNumber)
}

func (d *MySQL) NullGeomsQuery(schema, table string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT %[1]s AS %[4]s "+
			"FROM %[3]s "+
			"WHERE %[2]s IS NULL "+
			"ORDER BY %[1]s",
		id, geom, d.QuoteIdentifier(schema, table), ColFID)
}

func (d *MySQL) IntersectionQuery(schema, table1, table2 string) string {
	id, geom := d.QuoteIdentifier(d.Columns.ID), d.QuoteIdentifier(d.Columns.Geom)
	return fmt.Sprintf(
		"SELECT "+
			"%[5]s, "+
			"%[6]s, "+
			"ST_AsGeoJSON(gi, %[13]d) AS %[7]s, "+
			"ST_AsGeoJSON(g1, %[13]d) AS %[8]s, "+
			"ST_AsGeoJSON(g2, %[13]d) AS %[9]s, "+
			"ST_AsText(gi) AS %[10]s, "+
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
