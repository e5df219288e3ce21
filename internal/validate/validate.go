// Package validate compares a learner query against a reference query,
// ignoring row and column presentation order.
package validate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avaldez/sqlquest/internal/runner"
	"github.com/avaldez/sqlquest/internal/table"
)

// Outcome is the result of one validation. Exactly one of OK,
// ReferenceErr, LearnerErr or a plain mismatch (OK false with both
// results set) holds. Learner and Reference carry the raw, non-normalized
// results for side-by-side display.
type Outcome struct {
	OK           bool
	ReferenceErr string
	LearnerErr   string
	Learner      *table.Result
	Reference    *table.Result
}

// Failed reports whether either query failed to execute.
func (o Outcome) Failed() bool {
	return o.ReferenceErr != "" || o.LearnerErr != ""
}

// Check runs the reference query first, then the learner query, and
// compares the normalized results. A reference failure is a configuration
// defect and is reported with a distinguishing message; a learner failure
// carries the raw database error but keeps the reference result available.
// Neither failure is ever returned as a Go error: the caller always gets
// an Outcome.
func Check(ctx context.Context, db *sql.DB, referenceSQL, learnerSQL string) Outcome {
	reference, err := runner.Run(ctx, db, referenceSQL)
	if err != nil {
		return Outcome{ReferenceErr: fmt.Sprintf("error executing expected/reference query: %v", err)}
	}

	learner, err := runner.Run(ctx, db, learnerSQL)
	if err != nil {
		return Outcome{LearnerErr: err.Error(), Reference: reference}
	}

	ok := table.Equal(table.Normalize(reference), table.Normalize(learner))
	return Outcome{OK: ok, Learner: learner, Reference: reference}
}
