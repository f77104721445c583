// Package checker runs the single-table geometry rules: invalid, duplicate,
// multipart and null geometries.
package checker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/connector"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/utils"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// Checker issues one query per table and rule
type Checker struct {
	Dialect dialect.Dialect
	Logger  *logrus.Logger
}

// NewChecker creates a new checker
func NewChecker(d dialect.Dialect, logger *logrus.Logger) *Checker {
	return &Checker{Dialect: d, Logger: logger}
}

// InvalidGeoms returns the features of table whose geometry is not valid
func (c *Checker) InvalidGeoms(ctx context.Context, exec connector.QueryExecutor, schema, table string) ([]models.InvalidGeomResult, error) {
	rows, err := c.run(ctx, exec, models.RuleInvalid, table, c.Dialect.InvalidGeomsQuery(schema, table))
	if err != nil {
		return nil, err
	}

	results := make([]models.InvalidGeomResult, 0, len(rows))
	for _, row := range rows {
		fid, err := fidOf(row, dialect.ColFID)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", table)
		}
		reason, _ := utils.ToString(row[dialect.ColReason])
		location, _ := utils.ToString(row[dialect.ColLocation])
		results = append(results, models.InvalidGeomResult{FID: fid, Reason: reason, Location: location})
	}
	return results, nil
}

// DuplicateGeoms returns every repetition of an earlier feature's geometry.
// Number is the occurrence rank, so the second copy reports 2.
func (c *Checker) DuplicateGeoms(ctx context.Context, exec connector.QueryExecutor, schema, table string) ([]models.DuplicateGeomResult, error) {
	rows, err := c.run(ctx, exec, models.RuleDuplicate, table, c.Dialect.DuplicateGeomsQuery(schema, table))
	if err != nil {
		return nil, err
	}

	results := make([]models.DuplicateGeomResult, 0, len(rows))
	for _, row := range rows {
		fid, number, err := fidAndNumber(row)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", table)
		}
		results = append(results, models.DuplicateGeomResult{FID: fid, Number: number})
	}
	return results, nil
}

// MultipartGeoms returns the features made of more than one part
func (c *Checker) MultipartGeoms(ctx context.Context, exec connector.QueryExecutor, schema, table string) ([]models.MultipartGeomResult, error) {
	rows, err := c.run(ctx, exec, models.RuleMultipart, table, c.Dialect.MultipartGeomsQuery(schema, table))
	if err != nil {
		return nil, err
	}

	results := make([]models.MultipartGeomResult, 0, len(rows))
	for _, row := range rows {
		fid, number, err := fidAndNumber(row)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", table)
		}
		results = append(results, models.MultipartGeomResult{FID: fid, Number: number})
	}
	return results, nil
}

// NullGeoms returns the features without geometry
func (c *Checker) NullGeoms(ctx context.Context, exec connector.QueryExecutor, schema, table string) ([]models.NullGeomResult, error) {
	rows, err := c.run(ctx, exec, models.RuleNull, table, c.Dialect.NullGeomsQuery(schema, table))
	if err != nil {
		return nil, err
	}

	results := make([]models.NullGeomResult, 0, len(rows))
	for _, row := range rows {
		fid, err := fidOf(row, dialect.ColFID)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", table)
		}
		results = append(results, models.NullGeomResult{FID: fid})
	}
	return results, nil
}

// Run executes every single-table rule selected by rule and fills result.
// A failing rule is logged and the remaining rules still run; the first
// failure is returned.
func (c *Checker) Run(ctx context.Context, exec connector.QueryExecutor, schema string, rule models.Rule, result *models.TableResult) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	if rule.Includes(models.RuleInvalid) {
		result.Invalid, err = c.InvalidGeoms(ctx, exec, schema, result.Table)
		keep(err)
	}
	if rule.Includes(models.RuleDuplicate) {
		result.Duplicate, err = c.DuplicateGeoms(ctx, exec, schema, result.Table)
		keep(err)
	}
	if rule.Includes(models.RuleMultipart) {
		result.Multipart, err = c.MultipartGeoms(ctx, exec, schema, result.Table)
		keep(err)
	}
	if rule.Includes(models.RuleNull) {
		result.Null, err = c.NullGeoms(ctx, exec, schema, result.Table)
		keep(err)
	}
	return firstErr
}

func (c *Checker) run(ctx context.Context, exec connector.QueryExecutor, rule models.Rule, table, query string) ([]map[string]interface{}, error) {
	c.Logger.Debugf("Checking %s geometries in %s", rule, table)
	rows, err := exec.ExecuteQuery(ctx, query)
	if err != nil {
		c.Logger.Errorf("Error checking %s geometries in table %s: %v", rule, table, err)
		return nil, err
	}
	return rows, nil
}

func fidOf(row map[string]interface{}, column string) (string, error) {
	fid, ok := utils.ToString(row[column])
	if !ok {
		return "", errors.Errorf("missing %s value", column)
	}
	return fid, nil
}

func fidAndNumber(row map[string]interface{}) (string, int64, error) {
	fid, err := fidOf(row, dialect.ColFID)
	if err != nil {
		return "", 0, err
	}
	number, err := utils.ToInt64(row[dialect.ColNumber])
	if err != nil {
		return "", 0, errors.Wrapf(err, "feature %s %s", fid, dialect.ColNumber)
	}
	return fid, number, nil
}
