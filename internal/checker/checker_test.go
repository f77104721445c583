package checker

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// executorFunc adapts a function to connector.QueryExecutor
type executorFunc func(query string, params ...interface{}) ([]map[string]interface{}, error)

func (f executorFunc) ExecuteQuery(_ context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	return f(query, params...)
}

func newTestChecker() *Checker {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewChecker(&dialect.Postgis{Columns: dialect.DefaultColumns()}, logger)
}

func TestInvalidGeoms(t *testing.T) {
	c := newTestChecker()
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		assert.Contains(t, query, `"invalid_geoms"."polygons"`)
		return []map[string]interface{}{
			{"fid": int64(7), "reason": "Self-intersection", "location": "POINT(1 1)"},
			{"fid": int64(9), "reason": "Too few points in geometry component", "location": nil},
		}, nil
	})

	results, err := c.InvalidGeoms(context.Background(), exec, "invalid_geoms", "polygons")
	require.NoError(t, err)
	assert.Equal(t, []models.InvalidGeomResult{
		{FID: "7", Reason: "Self-intersection", Location: "POINT(1 1)"},
		{FID: "9", Reason: "Too few points in geometry component", Location: ""},
	}, results)
}

func TestDuplicateAndMultipartGeoms(t *testing.T) {
	c := newTestChecker()
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{
			{"fid": int64(3), "number": int64(2)},
			{"fid": int64(4), "number": int64(3)},
		}, nil
	})

	dups, err := c.DuplicateGeoms(context.Background(), exec, "duplicate_geoms", "points")
	require.NoError(t, err)
	assert.Equal(t, []models.DuplicateGeomResult{{FID: "3", Number: 2}, {FID: "4", Number: 3}}, dups)

	muls, err := c.MultipartGeoms(context.Background(), exec, "multi_geoms", "points")
	require.NoError(t, err)
	assert.Equal(t, []models.MultipartGeomResult{{FID: "3", Number: 2}, {FID: "4", Number: 3}}, muls)
}

func TestNullGeoms(t *testing.T) {
	c := newTestChecker()
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{{"fid": "a1b2"}}, nil
	})

	nuls, err := c.NullGeoms(context.Background(), exec, "null_geoms", "points")
	require.NoError(t, err)
	assert.Equal(t, []models.NullGeomResult{{FID: "a1b2"}}, nuls)
}

func TestMalformedRow(t *testing.T) {
	c := newTestChecker()
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{{"fid": int64(1), "number": "many"}}, nil
	})

	_, err := c.MultipartGeoms(context.Background(), exec, "s", "t")
	assert.Error(t, err)
}

func TestRunContinuesAfterFailingRule(t *testing.T) {
	c := newTestChecker()
	queryErr := scanerr.NewQueryError("q", errors.New("function st_isvaliddetail does not exist"))

	var queries []string
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		queries = append(queries, query)
		switch {
		case strings.Contains(query, "ST_IsValid"):
			return nil, queryErr
		case strings.Contains(query, "IS NULL"):
			return []map[string]interface{}{{"fid": int64(5)}}, nil
		}
		return nil, nil
	})

	result := &models.TableResult{Table: "roads"}
	err := c.Run(context.Background(), exec, "public", models.RuleAll, result)

	assert.True(t, scanerr.IsQueryError(err))
	assert.Len(t, queries, 4)
	assert.Nil(t, result.Invalid)
	assert.Equal(t, []models.NullGeomResult{{FID: "5"}}, result.Null)
}

func TestRunSelectsOnlyRequestedRule(t *testing.T) {
	c := newTestChecker()

	var queries []string
	exec := executorFunc(func(query string, _ ...interface{}) ([]map[string]interface{}, error) {
		queries = append(queries, query)
		return nil, nil
	})

	result := &models.TableResult{Table: "roads"}
	require.NoError(t, c.Run(context.Background(), exec, "public", models.RuleNull, result))
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "IS NULL")

	queries = nil
	require.NoError(t, c.Run(context.Background(), exec, "public", models.RuleIntersect, result))
	assert.Empty(t, queries)
}
