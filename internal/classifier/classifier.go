package classifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/admissible"
	"github.com/vitebski/spatial-qa/internal/connector"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/i18n"
	"github.com/vitebski/spatial-qa/internal/results"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// Classifier compares tables pairwise and files their violations
type Classifier struct {
	Dialect     dialect.Dialect
	Admissibles *admissible.Map
	Catalog     *i18n.Catalog
	Aggregator  *results.Aggregator
	Logger      *logrus.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(d dialect.Dialect, admissibles *admissible.Map, catalog *i18n.Catalog, aggregator *results.Aggregator, logger *logrus.Logger) *Classifier {
	return &Classifier{
		Dialect:     d,
		Admissibles: admissibles,
		Catalog:     catalog,
		Aggregator:  aggregator,
		Logger:      logger,
	}
}

// PairName identifies a table pair in logs and summaries
func PairName(table1, table2 string) string {
	return fmt.Sprintf("%s - %s", table1, table2)
}

// CompareTables compares table with each of the later tables in others, one
// query per pair. Pairs whose query fails are logged and returned; the
// remaining pairs are still compared.
func (c *Classifier) CompareTables(ctx context.Context, exec connector.QueryExecutor, schema, table string, others []string) []string {
	var skipped []string
	for _, other := range others {
		if other == table {
			continue
		}
		if err := c.ComparePair(ctx, exec, schema, table, other); err != nil {
			c.Logger.Errorf("Cannot retrieve intersection geometries between tables %s.%s %s.%s: %v",
				schema, table, schema, other, err)
			skipped = append(skipped, PairName(table, other))
		}
	}
	return skipped
}

// ComparePair classifies every candidate intersection between table1 and
// table2. Only a failing query is returned; undecodable rows are logged and
// skipped.
func (c *Classifier) ComparePair(ctx context.Context, exec connector.QueryExecutor, schema, table1, table2 string) error {
	c.Logger.Debugf("Intersection: %s - %s", table1, table2)

	rows, err := exec.ExecuteQuery(ctx, c.Dialect.IntersectionQuery(schema, table1, table2))
	if err != nil {
		return err
	}

	for _, row := range rows {
		candidate, err := candidateFromRow(table1, table2, row)
		if err != nil {
			c.Logger.Warningf("Skipping row: %v", err)
			continue
		}

		msg := Classify(table1, table2, candidate, c.Admissibles)
		if msg == "" {
			continue
		}

		c.Aggregator.Add(
			results.BucketFor(candidate.Intersection.Kind, candidate.Dimension),
			models.IntersectionViolation{
				Table1:       table1,
				FID1:         candidate.FID1,
				Table2:       table2,
				FID2:         candidate.FID2,
				Intersection: candidate.IntersectionWKT,
				Message:      c.Catalog.T(msg),
			},
		)
	}
	return nil
}
