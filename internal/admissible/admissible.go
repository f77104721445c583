// Package admissible holds the directional table pairs whose intersections are allowed.
package admissible

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/yourbasic/graph"
)

// Map records which tables a table may intersect. An edge t1 -> t2 allows
// features of t1 to intersect features of t2; the reverse direction needs
// its own edge.
type Map struct {
	index map[string]int
	names []string
	graph *graph.Mutable
}

// New builds a Map from a table -> allowed tables listing
func New(allowed map[string][]string) *Map {
	seen := make(map[string]bool)
	for table, others := range allowed {
		seen[table] = true
		for _, other := range others {
			seen[other] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &Map{
		index: make(map[string]int, len(names)),
		names: names,
		graph: graph.New(len(names)),
	}
	for i, name := range names {
		m.index[name] = i
	}

	for table, others := range allowed {
		for _, other := range others {
			m.graph.Add(m.index[table], m.index[other])
		}
	}

	return m
}

// Load reads a JSON object of the form {"table": ["other", ...]}.
// An empty path yields an empty map, under which no intersection is admissible.
func Load(path string) (*Map, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading admissibles file %s", path)
	}

	var allowed map[string][]string
	if err := json.Unmarshal(data, &allowed); err != nil {
		return nil, errors.Wrapf(err, "parsing admissibles file %s", path)
	}

	return New(allowed), nil
}

// Allows reports whether features of table1 may intersect features of table2
func (m *Map) Allows(table1, table2 string) bool {
	if m == nil {
		return false
	}
	from, ok := m.index[table1]
	if !ok {
		return false
	}
	to, ok := m.index[table2]
	if !ok {
		return false
	}
	return m.graph.Edge(from, to)
}

// Empty reports whether no pair is allowed at all
func (m *Map) Empty() bool {
	if m == nil {
		return true
	}
	for v := 0; v < m.graph.Order(); v++ {
		if m.graph.Degree(v) > 0 {
			return false
		}
	}
	return true
}

// Targets returns the tables table may intersect, sorted
func (m *Map) Targets(table string) []string {
	if m == nil {
		return nil
	}
	from, ok := m.index[table]
	if !ok {
		return nil
	}

	var targets []string
	m.graph.Visit(from, func(w int, _ int64) bool {
		targets = append(targets, m.names[w])
		return false
	})
	sort.Strings(targets)
	return targets
}
