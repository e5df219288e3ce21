// Package runner executes learner SQL against the course database.
package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avaldez/sqlquest/internal/table"
)

// ExecError wraps a query failure. Its message is the underlying database
// error verbatim so learners see the same text the database produced.
type ExecError struct {
	Query string
	Err   error
}

func (e *ExecError) Error() string {
	return e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsExecError reports whether err is (or wraps) a query execution failure.
func IsExecError(err error) bool {
	var execErr *ExecError
	return errors.As(err, &execErr)
}

// Run executes a single SQL statement and returns the full result table.
// Every call re-executes against the database; nothing is cached. Failures
// come back as *ExecError.
func Run(ctx context.Context, db *sql.DB, query string) (*table.Result, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &ExecError{Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecError{Query: query, Err: err}
	}

	result := &table.Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecError{Query: query, Err: err}
		}
		for i, v := range cells {
			// The sqlite driver hands text back as []byte on some paths.
			if b, ok := v.([]byte); ok {
				cells[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecError{Query: query, Err: err}
	}
	return result, nil
}

// Describe returns a short human-readable summary of a result.
func Describe(r *table.Result) string {
	if r == nil {
		return "no result"
	}
	return fmt.Sprintf("%d columns, %d rows", len(r.Columns), len(r.Rows))
}
