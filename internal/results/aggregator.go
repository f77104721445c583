// Package results collects intersection violations per base table.
package results

import (
	"sync"

	"github.com/vitebski/spatial-qa/pkg/geometry"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// BucketFor returns the bucket an intersection of the given kind and
// dimension is filed under. Collections always go to the collection bucket.
func BucketFor(kind geometry.Kind, dimension int) models.BucketKind {
	if kind == geometry.GeometryCollection {
		return models.BucketCollection
	}
	switch dimension {
	case 0:
		return models.BucketPoint
	case 1:
		return models.BucketLine
	default:
		return models.BucketPolygon
	}
}

// Aggregator keeps one set of buckets per base table, in arrival order.
// It is safe for concurrent use as long as each table is fed by a single goroutine.
type Aggregator struct {
	mu      sync.Mutex
	buckets map[string]*models.IntersectionBuckets
	order   []string
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[string]*models.IntersectionBuckets)}
}

// Add files v under the buckets of its first table
func (a *Aggregator) Add(kind models.BucketKind, v models.IntersectionViolation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.buckets[v.Table1]
	if !ok {
		b = &models.IntersectionBuckets{}
		a.buckets[v.Table1] = b
		a.order = append(a.order, v.Table1)
	}
	b.Append(kind, v)
}

// Buckets returns the buckets of table, or nil when it has no violations
func (a *Aggregator) Buckets(table string) *models.IntersectionBuckets {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buckets[table]
}

// Tables returns the tables with violations in the order they first got one
func (a *Aggregator) Tables() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.order...)
}

// Len returns the number of violations across all tables
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, b := range a.buckets {
		n += b.Len()
	}
	return n
}
