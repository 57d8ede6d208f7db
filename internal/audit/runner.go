package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/sqlaudit/internal/log"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// Result is the outcome of evaluating one audit. Count and Query are
// populated exactly when the audit was not skipped; a skipped result
// carries a nil Count rather than a meaningless zero.
type Result struct {
	ID      uuid.UUID
	Audit   Audit
	Model   node.Model
	Count   *int
	Query   sqlexpr.Expression
	Skipped bool
}

// Failed reports whether the audit ran and found bad rows
func (r Result) Failed() bool {
	return !r.Skipped && r.Count != nil && *r.Count > 0
}

// BlockingFailureError halts a batch when a blocking audit fails
type BlockingFailureError struct {
	AuditName string
	Count     int
}

func (e *BlockingFailureError) Error() string {
	return fmt.Sprintf("blocking audit '%s' failed with %d bad rows", e.AuditName, e.Count)
}

// ExecutionEngine runs a rendered audit query and reports how many bad
// rows it returned. Implemented by the pipeline's execution layer.
type ExecutionEngine interface {
	CountBadRows(ctx context.Context, query sqlexpr.Expression, dialect sqlexpr.Dialect) (int, error)
}

// Runner evaluates audits through an execution engine
type Runner struct {
	engine ExecutionEngine
	logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to the
// process-wide default.
func NewRunner(engine ExecutionEngine, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Runner{engine: engine, logger: logger}
}

// Run evaluates a single audit against a target. Skipped audits produce
// a skipped result without rendering or executing anything.
func (r *Runner) Run(ctx context.Context, a Audit, target node.Target, params RenderParams) (Result, error) {
	result := Result{ID: uuid.New(), Audit: a, Model: target.Node()}

	if a.Skip() {
		result.Skipped = true
		r.logger.DebugContext(ctx, "audit skipped", "audit", a.Name())
		return result, nil
	}

	query, err := a.RenderQuery(target, params)
	if err != nil {
		return Result{}, err
	}

	count, err := r.engine.CountBadRows(ctx, query, a.Dialect().Or(target.Node().Dialect()))
	if err != nil {
		return Result{}, fmt.Errorf("executing audit '%s': %w", a.Name(), err)
	}

	result.Count = &count
	result.Query = query
	return result, nil
}

// RunAll evaluates audits in order. A failing blocking audit stops the
// batch and returns the results collected so far alongside a
// BlockingFailureError; non-blocking failures are logged as warnings
// and the batch continues.
func (r *Runner) RunAll(ctx context.Context, audits []Audit, target node.Target, params RenderParams) ([]Result, error) {
	results := make([]Result, 0, len(audits))

	for _, a := range audits {
		result, err := r.Run(ctx, a, target, params)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if !result.Failed() {
			continue
		}

		if a.Blocking() {
			r.logger.ErrorContext(ctx, "blocking audit failed",
				"audit", a.Name(), "model", target.Node().Name(), "count", *result.Count)
			return results, &BlockingFailureError{AuditName: a.Name(), Count: *result.Count}
		}

		r.logger.WarnContext(ctx, "audit failed",
			"audit", a.Name(), "model", target.Node().Name(), "count", *result.Count)
	}

	return results, nil
}
