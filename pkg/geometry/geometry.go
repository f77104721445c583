// Package geometry models the geometries returned by the spatial engine as a
// tagged union over the GeoJSON types the scanner needs to reason about.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// Kind is the GeoJSON type of a geometry
type Kind int

const (
	Unknown Kind = iota
	Point
	MultiPoint
	LineString
	MultiLineString
	Polygon
	MultiPolygon
	GeometryCollection
)

var kindNames = map[Kind]string{
	Unknown:            "Unknown",
	Point:              "Point",
	MultiPoint:         "MultiPoint",
	LineString:         "LineString",
	MultiLineString:    "MultiLineString",
	Polygon:            "Polygon",
	MultiPolygon:       "MultiPolygon",
	GeometryCollection: "GeometryCollection",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// Family groups a Kind with its Multi variant
type Family int

const (
	OtherFamily Family = iota
	PointFamily
	LineFamily
	PolygonFamily
)

// Family returns the base type of k, counting Multi variants as their base
func (k Kind) Family() Family {
	switch k {
	case Point, MultiPoint:
		return PointFamily
	case LineString, MultiLineString:
		return LineFamily
	case Polygon, MultiPolygon:
		return PolygonFamily
	default:
		return OtherFamily
	}
}

// Geometry is a decoded geometry payload
type Geometry struct {
	Kind  Kind
	Shape orb.Geometry
}

// New wraps an orb geometry, deriving its Kind
func New(shape orb.Geometry) Geometry {
	return Geometry{Kind: kindOf(shape), Shape: shape}
}

func kindOf(shape orb.Geometry) Kind {
	switch shape.(type) {
	case orb.Point:
		return Point
	case orb.MultiPoint:
		return MultiPoint
	case orb.LineString:
		return LineString
	case orb.MultiLineString:
		return MultiLineString
	case orb.Polygon:
		return Polygon
	case orb.MultiPolygon:
		return MultiPolygon
	case orb.Collection:
		return GeometryCollection
	default:
		return Unknown
	}
}

// ParseGeoJSON decodes a GeoJSON geometry object such as the output of ST_AsGeoJSON
func ParseGeoJSON(data string) (Geometry, error) {
	if data == "" {
		return Geometry{}, errors.New("empty geometry payload")
	}

	decoded, err := geojson.UnmarshalGeometry([]byte(data))
	if err != nil {
		return Geometry{}, errors.Wrap(err, "invalid GeoJSON geometry")
	}

	shape := decoded.Geometry()
	if shape == nil {
		return Geometry{}, errors.Errorf("unsupported GeoJSON geometry type %q", decoded.Type)
	}

	g := New(shape)
	if g.Kind == Unknown || g.Kind.String() != decoded.Type {
		return Geometry{}, errors.Errorf("unsupported GeoJSON geometry type %q", decoded.Type)
	}
	return g, nil
}

// Vertices returns every coordinate of the geometry, rings and parts flattened in order
func (g Geometry) Vertices() []orb.Point {
	return appendVertices(nil, g.Shape)
}

func appendVertices(dst []orb.Point, shape orb.Geometry) []orb.Point {
	switch s := shape.(type) {
	case orb.Point:
		dst = append(dst, s)
	case orb.MultiPoint:
		dst = append(dst, s...)
	case orb.LineString:
		dst = append(dst, s...)
	case orb.MultiLineString:
		for _, ls := range s {
			dst = append(dst, ls...)
		}
	case orb.Polygon:
		for _, ring := range s {
			dst = append(dst, ring...)
		}
	case orb.MultiPolygon:
		for _, polygon := range s {
			for _, ring := range polygon {
				dst = append(dst, ring...)
			}
		}
	case orb.Collection:
		for _, part := range s {
			dst = appendVertices(dst, part)
		}
	}
	return dst
}

// HasVertex reports whether p is exactly one of the geometry's vertices
func (g Geometry) HasVertex(p orb.Point) bool {
	for _, v := range g.Vertices() {
		if v == p {
			return true
		}
	}
	return false
}

// CheckPoints returns the coordinate of a Point, or the first and last
// coordinates of a LineString. Other kinds have no check points.
func (g Geometry) CheckPoints() []orb.Point {
	switch s := g.Shape.(type) {
	case orb.Point:
		return []orb.Point{s}
	case orb.LineString:
		if len(s) == 0 {
			return nil
		}
		return []orb.Point{s[0], s[len(s)-1]}
	default:
		return nil
	}
}

// WKT renders the geometry as well-known text
func (g Geometry) WKT() string {
	if g.Shape == nil {
		return ""
	}
	return wkt.MarshalString(g.Shape)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%s(%d vertices)", g.Kind, len(g.Vertices()))
}
