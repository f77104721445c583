// Package classifier decides which intersections between features of two
// tables are data quality violations.
package classifier

import (
	"github.com/pkg/errors"
	"github.com/vitebski/spatial-qa/internal/admissible"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
	"github.com/vitebski/spatial-qa/internal/utils"
	"github.com/vitebski/spatial-qa/pkg/geometry"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// Violation messages. They double as message catalog keys.
const (
	MsgNotAdmissible     = "not addmissible intersection"
	MsgCrosses           = "crosses"
	MsgNotPointOrLine    = "result intersection is not point or line"
	MsgInvalidAdmissible = "invalid addmissible intersection"
	MsgNotLineOrPolygon  = "not a line-line or line-polygon intersection"
)

// Messages lists every message Classify can return
var Messages = []string{
	MsgNotAdmissible,
	MsgCrosses,
	MsgNotPointOrLine,
	MsgInvalidAdmissible,
	MsgNotLineOrPolygon,
}

// Classify returns the violation message for an intersection between a
// feature of table1 and a feature of table2, or "" when the intersection is
// a legitimate shared vertex between admissible tables.
func Classify(table1, table2 string, row models.CandidateIntersection, admissibles *admissible.Map) string {
	if !admissibles.Allows(table1, table2) {
		return MsgNotAdmissible
	}
	if row.Crosses {
		return MsgCrosses
	}

	switch row.Intersection.Kind {
	case geometry.Point, geometry.LineString:
	default:
		return MsgNotPointOrLine
	}

	if !lineLineOrLinePolygon(row.Geometry1.Kind, row.Geometry2.Kind) {
		return MsgNotLineOrPolygon
	}

	for _, p := range row.Intersection.CheckPoints() {
		if !row.Geometry1.HasVertex(p) && !row.Geometry2.HasVertex(p) {
			return MsgInvalidAdmissible
		}
	}
	return ""
}

func lineLineOrLinePolygon(k1, k2 geometry.Kind) bool {
	f1, f2 := k1.Family(), k2.Family()
	switch {
	case f1 == geometry.LineFamily && f2 == geometry.LineFamily:
		return true
	case f1 == geometry.LineFamily && f2 == geometry.PolygonFamily:
		return true
	case f1 == geometry.PolygonFamily && f2 == geometry.LineFamily:
		return true
	}
	return false
}

// candidateFromRow decodes one row of the intersection query
func candidateFromRow(table1, table2 string, row map[string]interface{}) (models.CandidateIntersection, error) {
	fid1, _ := utils.ToString(row[dialect.ColFID1])
	fid2, _ := utils.ToString(row[dialect.ColFID2])
	fail := func(err error) (models.CandidateIntersection, error) {
		return models.CandidateIntersection{}, &scanerr.ClassificationError{
			Table1: table1, Table2: table2, FID1: fid1, FID2: fid2, Err: err,
		}
	}

	if fid1 == "" || fid2 == "" {
		return fail(errors.New("missing feature id"))
	}

	intersection, err := parseColumn(row, dialect.ColIntersection)
	if err != nil {
		return fail(err)
	}
	if len(intersection.Vertices()) == 0 {
		return fail(errors.New("empty intersection geometry"))
	}
	geometry1, err := parseColumn(row, dialect.ColGeometry1)
	if err != nil {
		return fail(err)
	}
	geometry2, err := parseColumn(row, dialect.ColGeometry2)
	if err != nil {
		return fail(err)
	}

	crosses, err := utils.ToBool(row[dialect.ColCrosses])
	if err != nil {
		return fail(errors.Wrap(err, dialect.ColCrosses))
	}
	dimension, err := utils.ToInt64(row[dialect.ColDimension])
	if err != nil {
		return fail(errors.Wrap(err, dialect.ColDimension))
	}

	wkt, ok := utils.ToString(row[dialect.ColIntersectionWKT])
	if !ok {
		wkt = intersection.WKT()
	}

	return models.CandidateIntersection{
		FID1:            fid1,
		FID2:            fid2,
		Intersection:    intersection,
		Geometry1:       geometry1,
		Geometry2:       geometry2,
		IntersectionWKT: wkt,
		Crosses:         crosses,
		Dimension:       int(dimension),
	}, nil
}

func parseColumn(row map[string]interface{}, column string) (geometry.Geometry, error) {
	payload, ok := utils.ToString(row[column])
	if !ok {
		return geometry.Geometry{}, errors.Errorf("%s is NULL", column)
	}
	g, err := geometry.ParseGeoJSON(payload)
	if err != nil {
		return geometry.Geometry{}, errors.Wrap(err, column)
	}
	return g, nil
}
