// Package scanner runs the selected rules over every table of a schema.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/checker"
	"github.com/vitebski/spatial-qa/internal/classifier"
	"github.com/vitebski/spatial-qa/internal/connector"
	"github.com/vitebski/spatial-qa/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Session is a query executor bound to one read-only transaction
type Session interface {
	connector.QueryExecutor
	Close() error
}

// SessionOpener opens a new session on its own connection
type SessionOpener func(ctx context.Context) (Session, error)

// DatabaseScanner checks the tables of a schema and collects their findings
type DatabaseScanner struct {
	Schema       string
	Tables       []string
	Rule         models.Rule
	Open         SessionOpener
	Checker      *checker.Checker
	Classifier   *classifier.Classifier
	Workers      int
	Results      map[string]*models.TableResult
	FailedTables map[string]bool
	Logger       *logrus.Logger

	mu sync.Mutex
}

// NewDatabaseScanner creates a new database scanner
func NewDatabaseScanner(
	schema string,
	tables []string,
	rule models.Rule,
	open SessionOpener,
	check *checker.Checker,
	classify *classifier.Classifier,
	workers int,
	logger *logrus.Logger,
) *DatabaseScanner {
	if workers < 1 {
		workers = 1
	}
	return &DatabaseScanner{
		Schema:       schema,
		Tables:       tables,
		Rule:         rule,
		Open:         open,
		Checker:      check,
		Classifier:   classify,
		Workers:      workers,
		Results:      make(map[string]*models.TableResult),
		FailedTables: make(map[string]bool),
		Logger:       logger,
	}
}

// ScanDatabase runs the rule over every table. Only failures that stop the
// whole scan are returned: opening a session or cancellation. Tables and
// table pairs that fail are recorded and the scan goes on.
func (ds *DatabaseScanner) ScanDatabase(ctx context.Context) error {
	if ds.Workers <= 1 || len(ds.Tables) <= 1 {
		return ds.scanSequential(ctx)
	}
	return ds.scanParallel(ctx)
}

func (ds *DatabaseScanner) scanSequential(ctx context.Context) error {
	session, err := ds.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	for i := range ds.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds.scanTable(ctx, session, i)
	}
	return nil
}

// scanParallel hands tables to workers that each own a session. Pairs of
// one base table are always compared by the same worker, in order.
func (ds *DatabaseScanner) scanParallel(ctx context.Context) error {
	workers := ds.Workers
	if workers > len(ds.Tables) {
		workers = len(ds.Tables)
	}

	g, ctx := errgroup.WithContext(ctx)
	indices := make(chan int)

	g.Go(func() error {
		defer close(indices)
		for i := range ds.Tables {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			session, err := ds.Open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			for i := range indices {
				ds.scanTable(ctx, session, i)
			}
			return nil
		})
	}

	return g.Wait()
}

func (ds *DatabaseScanner) scanTable(ctx context.Context, exec connector.QueryExecutor, index int) {
	table := ds.Tables[index]
	ds.Logger.Infof("Processing table: %s", table)

	result := &models.TableResult{Table: table}
	failed := false

	if err := ds.Checker.Run(ctx, exec, ds.Schema, ds.Rule, result); err != nil {
		ds.Logger.Errorf("Error checking table %s: %v", table, err)
		failed = true
	}

	if ds.Rule == models.RuleIntersect {
		result.SkippedPairs = ds.Classifier.CompareTables(ctx, exec, ds.Schema, table, ds.Tables[index+1:])
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.Results[table] = result
	if failed {
		ds.FailedTables[table] = true
	}
}

// TableResults returns the results in table order, with intersection buckets attached
func (ds *DatabaseScanner) TableResults() []*models.TableResult {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	out := make([]*models.TableResult, 0, len(ds.Tables))
	for _, table := range ds.Tables {
		result, ok := ds.Results[table]
		if !ok {
			continue
		}
		if ds.Classifier != nil && ds.Classifier.Aggregator != nil {
			result.Intersections = ds.Classifier.Aggregator.Buckets(table)
		}
		out = append(out, result)
	}
	return out
}

// SelectedRules returns the rules a scan with rule runs
func SelectedRules(rule models.Rule) []models.Rule {
	if rule == models.RuleAll {
		return models.SingleTableRules
	}
	return []models.Rule{rule}
}

// Summary describes the finished scan
func (ds *DatabaseScanner) Summary(parameters string, start, end time.Time) models.ScanSummary {
	results := ds.TableResults()

	summary := models.ScanSummary{
		Parameters:   parameters,
		Schema:       ds.Schema,
		NumTables:    len(ds.Tables),
		TablesByRule: make(map[models.Rule][]string),
		StartTime:    start,
		EndTime:      end,
	}

	for _, rule := range SelectedRules(ds.Rule) {
		tables := []string{}
		for _, result := range results {
			if result.HasFindings(rule) {
				tables = append(tables, result.Table)
			}
		}
		summary.TablesByRule[rule] = tables
	}

	for _, result := range results {
		if ds.FailedTables[result.Table] {
			summary.FailedTables = append(summary.FailedTables, result.Table)
		}
		summary.SkippedPairs = append(summary.SkippedPairs, result.SkippedPairs...)
	}

	return summary
}
