package models

import (
	"strconv"
	"time"

	"github.com/vitebski/spatial-qa/pkg/geometry"
)

// Rule represents a quality control rule that can be run over a schema
type Rule string

const (
	RuleInvalid   Rule = "invalid"
	RuleDuplicate Rule = "duplicate"
	RuleMultipart Rule = "multipart"
	RuleIntersect Rule = "intersect"
	RuleNull      Rule = "null"
	RuleAll       Rule = "all"
)

// Rules lists every selectable rule in CLI order
var Rules = []Rule{RuleInvalid, RuleDuplicate, RuleMultipart, RuleIntersect, RuleNull, RuleAll}

// SingleTableRules lists the rules that "all" expands to
var SingleTableRules = []Rule{RuleInvalid, RuleDuplicate, RuleMultipart, RuleNull}

// ParseRule returns the Rule named by s
func ParseRule(s string) (Rule, bool) {
	for _, r := range Rules {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Includes reports whether selecting r runs the rule other
func (r Rule) Includes(other Rule) bool {
	if r == other {
		return true
	}
	if r != RuleAll {
		return false
	}
	for _, single := range SingleTableRules {
		if single == other {
			return true
		}
	}
	return false
}

// InvalidGeomResult represents a feature whose geometry is not valid
type InvalidGeomResult struct {
	FID      string
	Reason   string
	Location string
}

// ToRecord returns the result as a CSV record
func (r InvalidGeomResult) ToRecord() []string {
	return []string{r.FID, r.Reason, r.Location}
}

// DuplicateGeomResult represents a feature whose geometry repeats an earlier one
type DuplicateGeomResult struct {
	FID    string
	Number int64
}

// ToRecord returns the result as a CSV record
func (r DuplicateGeomResult) ToRecord() []string {
	return []string{r.FID, strconv.FormatInt(r.Number, 10)}
}

// MultipartGeomResult represents a feature with more than one geometry part
type MultipartGeomResult struct {
	FID    string
	Number int64
}

// ToRecord returns the result as a CSV record
func (r MultipartGeomResult) ToRecord() []string {
	return []string{r.FID, strconv.FormatInt(r.Number, 10)}
}

// NullGeomResult represents a feature without geometry
type NullGeomResult struct {
	FID string
}

// ToRecord returns the result as a CSV record
func (r NullGeomResult) ToRecord() []string {
	return []string{r.FID}
}

// CandidateIntersection is one pair of features that intersect without merely touching
type CandidateIntersection struct {
	FID1            string
	FID2            string
	Intersection    geometry.Geometry
	Geometry1       geometry.Geometry
	Geometry2       geometry.Geometry
	IntersectionWKT string
	Crosses         bool
	Dimension       int
}

// IntersectionViolation represents a classified, not allowed intersection
type IntersectionViolation struct {
	Table1       string
	FID1         string
	Table2       string
	FID2         string
	Intersection string
	Message      string
}

// ToRecord returns the violation as a CSV record
func (v IntersectionViolation) ToRecord() []string {
	return []string{v.Table1, v.FID1, v.Table2, v.FID2, v.Intersection, v.Message}
}

// BucketKind is the topology an intersection violation is filed under
type BucketKind string

const (
	BucketPoint      BucketKind = "point"
	BucketLine       BucketKind = "line"
	BucketPolygon    BucketKind = "polygon"
	BucketCollection BucketKind = "collection"
)

// BucketKinds lists the buckets in output order
var BucketKinds = []BucketKind{BucketPoint, BucketLine, BucketPolygon, BucketCollection}

// IntersectionBuckets holds the violations found for one base table
type IntersectionBuckets struct {
	Point      []IntersectionViolation
	Line       []IntersectionViolation
	Polygon    []IntersectionViolation
	Collection []IntersectionViolation
}

// Get returns the violations filed under kind
func (b *IntersectionBuckets) Get(kind BucketKind) []IntersectionViolation {
	switch kind {
	case BucketPoint:
		return b.Point
	case BucketLine:
		return b.Line
	case BucketPolygon:
		return b.Polygon
	case BucketCollection:
		return b.Collection
	}
	return nil
}

// Append files v under kind
func (b *IntersectionBuckets) Append(kind BucketKind, v IntersectionViolation) {
	switch kind {
	case BucketPoint:
		b.Point = append(b.Point, v)
	case BucketLine:
		b.Line = append(b.Line, v)
	case BucketCollection:
		b.Collection = append(b.Collection, v)
	default:
		b.Polygon = append(b.Polygon, v)
	}
}

// Len returns the number of violations across all buckets
func (b *IntersectionBuckets) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Point) + len(b.Line) + len(b.Polygon) + len(b.Collection)
}

// TableResult holds every finding for one table of the scan
type TableResult struct {
	Table         string
	Invalid       []InvalidGeomResult
	Duplicate     []DuplicateGeomResult
	Multipart     []MultipartGeomResult
	Null          []NullGeomResult
	Intersections *IntersectionBuckets
	SkippedPairs  []string
}

// HasFindings reports whether rule produced anything for the table
func (r *TableResult) HasFindings(rule Rule) bool {
	switch rule {
	case RuleInvalid:
		return len(r.Invalid) > 0
	case RuleDuplicate:
		return len(r.Duplicate) > 0
	case RuleMultipart:
		return len(r.Multipart) > 0
	case RuleNull:
		return len(r.Null) > 0
	case RuleIntersect:
		return r.Intersections.Len() > 0
	}
	return false
}

// ScanSummary represents the outcome of a whole scan
type ScanSummary struct {
	Parameters   string
	Schema       string
	NumTables    int
	TablesByRule map[Rule][]string
	FailedTables []string
	SkippedPairs []string
	StartTime    time.Time
	EndTime      time.Time
}
