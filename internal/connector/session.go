package connector

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/scanerr"
)

// newSavepointName returns a savepoint name unique within the transaction
var newSavepointName = func() string {
	return "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Session runs every query of a scan inside one read-only transaction.
//
// Each query is wrapped in its own savepoint, so a failing statement is
// rolled back alone and the transaction stays usable for the next one.
// A Session is not safe for concurrent use.
type Session struct {
	tx      *sql.Tx
	dialect dialect.Dialect
	Logger  *logrus.Logger
}

// NewSession wraps an open transaction
func NewSession(tx *sql.Tx, d dialect.Dialect, logger *logrus.Logger) *Session {
	return &Session{tx: tx, dialect: d, Logger: logger}
}

// ExecuteQuery executes a SQL query behind a savepoint and returns the results.
// A failed query is rolled back to its savepoint and reported as a QueryError.
func (s *Session) ExecuteQuery(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	savepoint := s.dialect.QuoteIdentifier(newSavepointName())

	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		s.Logger.Errorf("Error creating savepoint: %v", err)
		return nil, scanerr.NewQueryError(query, errors.Wrap(err, "creating savepoint"))
	}

	results, err := s.query(ctx, query, params...)
	if err != nil {
		s.Logger.Debugf("Rolling back to savepoint %s: %v", savepoint, err)
		if _, rbErr := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			s.Logger.Errorf("Error rolling back to savepoint %s: %v", savepoint, rbErr)
		}
		return nil, scanerr.NewQueryError(query, err)
	}

	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		s.Logger.Errorf("Error releasing savepoint %s: %v", savepoint, err)
		return nil, scanerr.NewQueryError(query, errors.Wrap(err, "releasing savepoint"))
	}

	return results, nil
}

func (s *Session) query(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// Close rolls the transaction back; nothing a scan does is ever committed
func (s *Session) Close() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.Logger.Errorf("Error closing session: %v", err)
		return err
	}
	return nil
}

// scanRows converts rows to one map per row, keyed by column name
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "getting columns")
	}

	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// Text columns arrive as []byte from some drivers
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating rows")
	}

	return results, nil
}
