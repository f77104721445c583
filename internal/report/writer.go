package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/i18n"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// TimeLayout formats start and end times in the summary
const TimeLayout = time.DateTime

// Writer maps table results to CSV files, one folder per rule
type Writer struct {
	Files   *FileManager
	Catalog *i18n.Catalog
	Logger  *logrus.Logger
}

// NewWriter creates a new result writer
func NewWriter(files *FileManager, catalog *i18n.Catalog, logger *logrus.Logger) *Writer {
	return &Writer{Files: files, Catalog: catalog, Logger: logger}
}

// Header returns the translated CSV header of rule
func (w *Writer) Header(rule models.Rule) []string {
	switch rule {
	case models.RuleInvalid:
		return w.Catalog.Ts("id", "reason", "location")
	case models.RuleDuplicate:
		return w.Catalog.Ts("id", "amount")
	case models.RuleMultipart:
		return w.Catalog.Ts("id", "number")
	case models.RuleNull:
		return w.Catalog.Ts("id")
	case models.RuleIntersect:
		return w.Catalog.Ts("table-1", "table-1-id", "table-2", "table-2-id", "intersection", "message")
	}
	return nil
}

// WriteResults writes every result for the given rules
func (w *Writer) WriteResults(rules []models.Rule, results []*models.TableResult) error {
	for _, rule := range rules {
		if _, err := w.Files.AddDir(string(rule)); err != nil {
			return err
		}
		for _, result := range results {
			if err := w.WriteTableResult(rule, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTableResult writes the findings of one rule for one table. Nothing is
// written when the table has none.
func (w *Writer) WriteTableResult(rule models.Rule, result *models.TableResult) error {
	if !result.HasFindings(rule) {
		return nil
	}

	dir := string(rule)
	header := w.Header(rule)
	fileName := result.Table + ".csv"

	switch rule {
	case models.RuleInvalid:
		return w.Files.WriteCSV(dir, fileName, header, records(result.Invalid))
	case models.RuleDuplicate:
		return w.Files.WriteCSV(dir, fileName, header, records(result.Duplicate))
	case models.RuleMultipart:
		return w.Files.WriteCSV(dir, fileName, header, records(result.Multipart))
	case models.RuleNull:
		return w.Files.WriteCSV(dir, fileName, header, records(result.Null))
	case models.RuleIntersect:
		for _, kind := range models.BucketKinds {
			violations := result.Intersections.Get(kind)
			if len(violations) == 0 {
				continue
			}
			name := fmt.Sprintf("%s_%s.csv", result.Table, kind)
			if err := w.Files.WriteCSV(dir, name, header, records(violations)); err != nil {
				return err
			}
		}
	}
	return nil
}

type recorder interface {
	ToRecord() []string
}

func records[T recorder](items []T) [][]string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = item.ToRecord()
	}
	return rows
}

// SummaryLines renders the summary as "label: value" lines
func (w *Writer) SummaryLines(summary models.ScanSummary) []string {
	line := func(label string, value interface{}) string {
		return fmt.Sprintf("%s: %v", w.Catalog.T(label), value)
	}

	lines := []string{
		line("Parameters", summary.Parameters),
		line("Schema", summary.Schema),
		line("Number of tables", summary.NumTables),
	}
	for _, rule := range models.Rules {
		tables, ok := summary.TablesByRule[rule]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", rule, strings.Join(tables, ", ")))
	}
	lines = append(lines,
		line("Failed tables", strings.Join(summary.FailedTables, ", ")),
		line("Skipped pairs", strings.Join(summary.SkippedPairs, ", ")),
		line("Start time", summary.StartTime.Format(TimeLayout)),
		line("End time", summary.EndTime.Format(TimeLayout)),
	)
	return lines
}

// WriteSummary writes the summary text file to the output directory
func (w *Writer) WriteSummary(fileName string, summary models.ScanSummary) error {
	if err := w.Files.WriteText(fileName, w.SummaryLines(summary)); err != nil {
		return err
	}
	w.Logger.Infof("Summary written to %s", w.Files.Path(fileName))
	return nil
}
