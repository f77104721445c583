package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vitebski/spatial-qa/internal/i18n"
	"github.com/vitebski/spatial-qa/pkg/models"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// PrintSummary prints a summary of the scan
func PrintSummary(w io.Writer, summary models.ScanSummary, results []*models.TableResult, catalog *i18n.Catalog) {
	rules := make([]models.Rule, 0, len(summary.TablesByRule))
	for _, rule := range models.Rules {
		if _, ok := summary.TablesByRule[rule]; ok {
			rules = append(rules, rule)
		}
	}

	_, _ = fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	_, _ = fmt.Fprintln(w, "SPATIAL QA SUMMARY")
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 50))
	_, _ = fmt.Fprintf(w, "%s: %s\n", catalog.T("Schema"), summary.Schema)
	_, _ = fmt.Fprintf(w, "%s: %d\n", catalog.T("Number of tables"), summary.NumTables)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{catalog.T("Tables")}
	for _, rule := range rules {
		header = append(header, string(rule))
	}
	t.AppendHeader(header)

	for _, result := range results {
		row := table.Row{result.Table}
		for _, rule := range rules {
			row = append(row, findings(result, rule))
		}
		t.AppendRow(row)
	}
	t.Render()

	total := 0
	for _, tables := range summary.TablesByRule {
		total += len(tables)
	}
	if total == 0 {
		_, _ = okColor.Fprintln(w, "No findings")
	} else {
		_, _ = warnColor.Fprintf(w, "%d table/rule combinations with findings\n", total)
	}

	if len(summary.FailedTables) > 0 {
		_, _ = failColor.Fprintf(w, "%s: %s\n", catalog.T("Failed tables"), strings.Join(summary.FailedTables, ", "))
	}
	if len(summary.SkippedPairs) > 0 {
		_, _ = failColor.Fprintf(w, "%s: %s\n", catalog.T("Skipped pairs"), strings.Join(summary.SkippedPairs, ", "))
	}

	_, _ = fmt.Fprintln(w, strings.Repeat("=", 50))
}

// findings counts what rule found in the table
func findings(result *models.TableResult, rule models.Rule) int {
	switch rule {
	case models.RuleInvalid:
		return len(result.Invalid)
	case models.RuleDuplicate:
		return len(result.Duplicate)
	case models.RuleMultipart:
		return len(result.Multipart)
	case models.RuleNull:
		return len(result.Null)
	case models.RuleIntersect:
		return result.Intersections.Len()
	}
	return 0
}
