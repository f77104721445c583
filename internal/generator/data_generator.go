package generator

import (
	"fmt"
	"math"
	"strings"

	"github.com/jaswdr/faker"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/dialect"
)

// Fixture table names
const (
	LinesA   = "lines_a"
	LinesB   = "lines_b"
	Polygons = "polygons"
)

// FixtureTables lists the tables a fixture script creates
var FixtureTables = []string{LinesA, LinesB, Polygons}

// Feature is one row of a fixture table. A nil Shape inserts a NULL geometry.
type Feature struct {
	ID    int
	Shape orb.Geometry
}

// FixtureGenerator writes SQL scripts that seed a schema with features
// exercising every rule of a scan
type FixtureGenerator struct {
	Faker   faker.Faker
	Dialect dialect.Dialect
	Columns dialect.Columns
	Logger  *logrus.Logger
}

// NewFixtureGenerator creates a new fixture generator
func NewFixtureGenerator(d dialect.Dialect, columns dialect.Columns, logger *logrus.Logger) *FixtureGenerator {
	return &FixtureGenerator{
		Faker:   faker.New(),
		Dialect: d,
		Columns: columns,
		Logger:  logger,
	}
}

// KnownFeatures returns the hand made cases of each table: crossing lines,
// overlapping polygons, a line touching a polygon at a shared vertex, a
// self-intersecting polygon, a duplicate, a multipart line and a NULL geometry.
func KnownFeatures() map[string][]Feature {
	return map[string][]Feature{
		LinesA: {
			{ID: 1, Shape: orb.LineString{{0, 0}, {2, 2}}},
			{ID: 2, Shape: orb.LineString{{4, 4}, {5, 5}}},
			{ID: 3, Shape: orb.MultiLineString{{{10, 10}, {11, 11}}, {{12, 12}, {13, 13}}}},
		},
		LinesB: {
			{ID: 1, Shape: orb.LineString{{0, 2}, {2, 0}}},
			{ID: 2, Shape: orb.LineString{{0, 2}, {2, 0}}},
			{ID: 3, Shape: nil},
		},
		Polygons: {
			{ID: 1, Shape: orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}},
			{ID: 2, Shape: orb.Polygon{{{1, 1}, {3, 1}, {3, 3}, {1, 3}, {1, 1}}}},
			{ID: 3, Shape: orb.Polygon{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}}},
			{ID: 4, Shape: orb.Polygon{{{7, 7}, {9, 9}, {9, 7}, {7, 9}, {7, 7}}}},
		},
	}
}

// GenerateScript returns a SQL script creating the fixture tables in schema
// and filling them with the known cases plus featuresPerTable random features
// around a random location. The script is meant to be run by hand.
func (fg *FixtureGenerator) GenerateScript(schema string, featuresPerTable int) string {
	if featuresPerTable < 0 {
		featuresPerTable = 0
	}

	center := orb.Point{
		round(fg.Faker.Address().Longitude()),
		round(fg.Faker.Address().Latitude()),
	}
	fg.Logger.Debugf("Random features centered on %v", center)

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- spatial-qa fixtures for %s\n", fg.Dialect.Name())
	fmt.Fprintf(&sb, "CREATE SCHEMA IF NOT EXISTS %s;\n", fg.Dialect.QuoteIdentifier(schema))

	known := KnownFeatures()
	for _, table := range FixtureTables {
		features := known[table]
		nextID := len(features) + 1
		for i := 0; i < featuresPerTable; i++ {
			features = append(features, Feature{ID: nextID + i, Shape: fg.randomShape(table, center)})
		}

		sb.WriteString("\n")
		sb.WriteString(fg.createTable(schema, table))
		for _, feature := range features {
			sb.WriteString(fg.insert(schema, table, feature))
		}
		fg.Logger.Debugf("Table %s: %d features", table, len(features))
	}

	return sb.String()
}

func (fg *FixtureGenerator) createTable(schema, table string) string {
	geomType := "geometry(Geometry, 4326)"
	if fg.Dialect.Name() == "mysql" {
		geomType = "GEOMETRY"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s INTEGER PRIMARY KEY, %s %s);\n",
		fg.Dialect.QuoteIdentifier(schema, table),
		fg.Dialect.QuoteIdentifier(fg.Columns.ID),
		fg.Dialect.QuoteIdentifier(fg.Columns.Geom),
		geomType)
}

func (fg *FixtureGenerator) insert(schema, table string, feature Feature) string {
	value := "NULL"
	if feature.Shape != nil {
		value = fmt.Sprintf("ST_GeomFromText('%s', %d)", wkt.MarshalString(feature.Shape), fg.srid())
	}
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%d, %s);\n",
		fg.Dialect.QuoteIdentifier(schema, table),
		fg.Dialect.QuoteIdentifier(fg.Columns.ID),
		fg.Dialect.QuoteIdentifier(fg.Columns.Geom),
		feature.ID, value)
}

// srid is 0 on MySQL, where 4326 would swap the axis order
func (fg *FixtureGenerator) srid() int {
	if fg.Dialect.Name() == "mysql" {
		return 0
	}
	return 4326
}

// randomShape generates a line or a rectangle within a few kilometres of center
func (fg *FixtureGenerator) randomShape(table string, center orb.Point) orb.Geometry {
	if table == Polygons {
		a, b := fg.randomPoint(center), fg.randomPoint(center)
		bound := orb.Bound{Min: a, Max: a}.Extend(b)
		if bound.Min[0] == bound.Max[0] || bound.Min[1] == bound.Max[1] {
			bound = bound.Pad(0.001)
		}
		return bound.ToPolygon()
	}

	numPoints := fg.Faker.IntBetween(2, 5)
	line := make(orb.LineString, 0, numPoints)
	for len(line) < numPoints {
		p := fg.randomPoint(center)
		if len(line) > 0 && line[len(line)-1].Equal(p) {
			continue
		}
		line = append(line, p)
	}
	return line
}

func (fg *FixtureGenerator) randomPoint(center orb.Point) orb.Point {
	return orb.Point{
		round(center[0] + float64(fg.Faker.IntBetween(-500, 500))/10000),
		round(center[1] + float64(fg.Faker.IntBetween(-500, 500))/10000),
	}
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
