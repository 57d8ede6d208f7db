package audit

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// fakeRenderer records render calls and returns a configured result.
// With neither result nor fn set it passes the query template through.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   int
	lastIn  RenderInputs
	lastCtx RenderContext
	result  sqlexpr.Expression
	err     error
	fn      func(in RenderInputs, ctx RenderContext) (sqlexpr.Expression, error)

	returnNil bool
}

func (f *fakeRenderer) Render(in RenderInputs, ctx RenderContext) (sqlexpr.Expression, error) {
	f.mu.Lock()
	f.calls++
	f.lastIn = in
	f.lastCtx = ctx
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(in, ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.returnNil {
		return nil, nil
	}
	if f.result != nil {
		return f.result, nil
	}
	return f.lastIn.Query, nil
}

type fakeExtractor struct {
	calls  int
	tables map[string]struct{}
}

func (f *fakeExtractor) FindTables(sqlexpr.Expression, sqlexpr.Dialect) map[string]struct{} {
	f.calls++
	out := make(map[string]struct{}, len(f.tables))
	for t := range f.tables {
		out[t] = struct{}{}
	}
	return out
}

type fakeIntrospector struct {
	columns map[string]string
	err     error
	calls   int
}

func (f *fakeIntrospector) Columns(string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.columns, nil
}

type fakeEngine struct {
	counts map[string]int
	err    error
	calls  int
}

func (f *fakeEngine) CountBadRows(_ context.Context, query sqlexpr.Expression, _ sqlexpr.Dialect) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[query.SQL(sqlexpr.DialectDefault, false)], nil
}

func prop(name string, value sqlexpr.Expression) *sqlexpr.Property {
	return &sqlexpr.Property{Name: name, Value: value}
}

func header(props ...*sqlexpr.Property) *sqlexpr.AuditHeader {
	return sqlexpr.NewAuditHeader(props...)
}

func selectStmt(raw string) *sqlexpr.Select {
	return sqlexpr.ParsedSelect(raw)
}

func boolPtr(v bool) *bool {
	return &v
}

func mustStandalone(def StandaloneDefinition) *StandaloneAudit {
	a, err := NewStandaloneAudit(def)
	if err != nil {
		panic(err)
	}
	return a
}
