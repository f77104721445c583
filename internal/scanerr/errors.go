// Package scanerr defines the error kinds produced during a schema scan.
//
// ConnectionError and SchemaError are fatal: nothing meaningful can run after
// them. QueryError and ClassificationError are recoverable and only affect the
// table, table pair or row they were raised for.
package scanerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConnectionError reports a failure to open or use the database connection
type ConnectionError struct {
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to database %s: %v", e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
func (e *ConnectionError) Cause() error  { return e.Err }

// SchemaError reports a failure to list or resolve the tables of a schema
type SchemaError struct {
	Schema string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cannot retrieve table names from schema %s: %v", e.Schema, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
func (e *SchemaError) Cause() error  { return e.Err }

// QueryError wraps the driver error of a single failed statement
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
func (e *QueryError) Cause() error  { return e.Err }

// ClassificationError reports a candidate row that could not be decoded
type ClassificationError struct {
	Table1 string
	Table2 string
	FID1   string
	FID2   string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify intersection %s:%s / %s:%s: %v",
		e.Table1, e.FID1, e.Table2, e.FID2, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
func (e *ClassificationError) Cause() error  { return e.Err }

// NewConnectionError wraps err as a ConnectionError for the given database
func NewConnectionError(database string, err error) error {
	return &ConnectionError{Database: database, Err: err}
}

// NewSchemaError wraps err as a SchemaError for the given schema
func NewSchemaError(schema string, err error) error {
	return &SchemaError{Schema: schema, Err: err}
}

// NewQueryError wraps err as a QueryError for the given statement
func NewQueryError(query string, err error) error {
	return &QueryError{Query: query, Err: err}
}

// IsFatal reports whether err must stop the whole scan
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsQueryError reports whether err is, or wraps, a QueryError
func IsQueryError(err error) bool {
	var queryErr *QueryError
	return errors.As(err, &queryErr)
}
