package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/sqlaudit/internal/errors"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

type fakeSnapshot struct {
	model node.Model
	table string
}

func (s *fakeSnapshot) Node() node.Model { return s.model }

func (s *fakeSnapshot) TableName(isDev, _ bool) string {
	if isDev {
		return s.table + "__dev"
	}
	return s.table
}

func ordersModel() *node.StaticModel {
	return &node.StaticModel{
		ModelName: "analytics.orders",
		Time:      &node.TimeColumn{Column: "ds"},
	}
}

func newModelAudit(t *testing.T, renderer QueryRenderer) *ModelAudit {
	t.Helper()
	audit, err := NewModelAudit(Definition{
		Name:     "orders_not_null",
		Query:    selectStmt("SELECT * FROM orders WHERE id IS NULL"),
		Renderer: renderer,
	})
	require.NoError(t, err)
	return audit
}

func thisModelSQL(t *testing.T, renderer *fakeRenderer) string {
	t.Helper()
	sub, ok := renderer.lastCtx.Kwargs["this_model"].(*sqlexpr.Subquery)
	require.True(t, ok, "this_model must be a subquery")
	return sub.SQL(sqlexpr.DialectDefault, false)
}

func TestRenderQueryThisModelSubquery(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	rendered, err := audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{})
	require.NoError(t, err)
	assert.Equal(t, audit.Query(), rendered, "passthrough renderer returns the template")

	assert.Equal(t,
		`(SELECT * FROM "analytics"."orders" WHERE ds BETWEEN '1970-01-01' AND '1970-01-01')`,
		thisModelSQL(t, renderer),
		"unset time bounds fall back to the epoch")
}

func TestRenderQueryExplicitBounds(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{Start: &start, End: &end})
	require.NoError(t, err)

	assert.Equal(t,
		`(SELECT * FROM "analytics"."orders" WHERE ds BETWEEN '2023-01-01' AND '2023-01-31')`,
		thisModelSQL(t, renderer))
}

func TestRenderQueryNoTimeColumn(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	model := &node.StaticModel{ModelName: "analytics.orders"}
	_, err := audit.RenderQuery(node.ModelTarget(model), RenderParams{})
	require.NoError(t, err)

	assert.Equal(t, `(SELECT * FROM "analytics"."orders")`, thisModelSQL(t, renderer),
		"no time column means no predicate")
}

func TestRenderQueryIntrospectionShapesBounds(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	intro := &fakeIntrospector{columns: map[string]string{"ds": "timestamp"}}
	_, err := audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{Introspector: intro})
	require.NoError(t, err)

	assert.Equal(t, 1, intro.calls)
	assert.Contains(t, thisModelSQL(t, renderer), "'1970-01-01 00:00:00'",
		"timestamp columns widen the bound to a datetime literal")
}

func TestRenderQueryIntrospectionFailureIsSwallowed(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	intro := &fakeIntrospector{err: assert.AnError}
	_, err := audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{Introspector: intro})
	require.NoError(t, err, "column introspection is best effort")

	assert.Contains(t, thisModelSQL(t, renderer), "BETWEEN '1970-01-01' AND '1970-01-01'")
}

func TestRenderQuerySnapshotTarget(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	snap := &fakeSnapshot{
		model: &node.StaticModel{ModelName: "analytics.orders"},
		table: `"Sqlaudit__Analytics".orders`,
	}

	_, err := audit.RenderQuery(node.SnapshotTarget(snap), RenderParams{})
	require.NoError(t, err)

	assert.Equal(t, `(SELECT * FROM "Sqlaudit__Analytics"."orders")`, thisModelSQL(t, renderer),
		"pre-quoted physical schemas survive quoting unchanged")
}

func TestRenderQuerySnapshotDevRouting(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	snap := &fakeSnapshot{
		model: &node.StaticModel{ModelName: "analytics.orders"},
		table: "physical.orders",
	}

	_, err := audit.RenderQuery(node.SnapshotTarget(snap), RenderParams{IsDev: true})
	require.NoError(t, err)

	assert.Contains(t, thisModelSQL(t, renderer), `"physical"."orders__dev"`)
	assert.True(t, renderer.lastCtx.IsDev)
}

func TestRenderQueryKwargPrecedence(t *testing.T) {
	renderer := &fakeRenderer{}
	audit, err := NewModelAudit(Definition{
		Name:  "threshold_check",
		Query: selectStmt("SELECT 1"),
		Defaults: map[string]sqlexpr.Expression{
			"threshold": sqlexpr.Num("10"),
			"limit":     sqlexpr.Num("5"),
		},
		Renderer: renderer,
	})
	require.NoError(t, err)

	_, err = audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{
		Kwargs: map[string]any{"threshold": sqlexpr.Num("99"), "this_model": "hijacked"},
	})
	require.NoError(t, err)

	kwargs := renderer.lastCtx.Kwargs
	assert.Equal(t, "99", kwargs["threshold"].(*sqlexpr.Literal).Value, "caller kwargs override defaults")
	assert.Equal(t, "5", kwargs["limit"].(*sqlexpr.Literal).Value, "untouched defaults pass through")
	_, isSubquery := kwargs["this_model"].(*sqlexpr.Subquery)
	assert.True(t, isSubquery, "this_model cannot be overridden by callers")
}

func TestRenderQueryDialectInheritance(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	model := &node.StaticModel{ModelName: "analytics.orders", SQLDialect: sqlexpr.DialectBigQuery}
	_, err := audit.RenderQuery(node.ModelTarget(model), RenderParams{})
	require.NoError(t, err)
	assert.Equal(t, sqlexpr.DialectBigQuery, renderer.lastIn.Dialect,
		"an audit without a dialect inherits the model's")

	sub, ok := renderer.lastCtx.Kwargs["this_model"].(*sqlexpr.Subquery)
	require.True(t, ok)
	assert.Contains(t, sub.SQL(sqlexpr.DialectBigQuery, false), "`analytics`.`orders`",
		"the audited table is quoted with the inherited dialect")

	explicit, err := NewModelAudit(Definition{
		Name:     "orders_not_null",
		Dialect:  sqlexpr.DialectSnowflake,
		Query:    selectStmt("SELECT 1"),
		Renderer: renderer,
	})
	require.NoError(t, err)

	_, err = explicit.RenderQuery(node.ModelTarget(model), RenderParams{})
	require.NoError(t, err)
	assert.Equal(t, sqlexpr.DialectSnowflake, renderer.lastIn.Dialect,
		"the audit's own dialect wins over the model's")
}

func TestRenderQueryOnlyExecutionTime(t *testing.T) {
	renderer := &fakeRenderer{}
	audit := newModelAudit(t, renderer)

	model := &node.StaticModel{
		ModelName: "analytics.orders",
		ModelKind: node.Kind{Name: "embedded", OnlyExecutionTime: true},
	}

	_, err := audit.RenderQuery(node.ModelTarget(model), RenderParams{})
	require.NoError(t, err)
	assert.True(t, renderer.lastIn.OnlyExecutionTime)
}

func TestRenderQueryNilRenderer(t *testing.T) {
	audit, err := NewModelAudit(Definition{
		Name:  "orders_not_null",
		Query: selectStmt("SELECT 1"),
	})
	require.NoError(t, err)

	_, err = audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{})
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))

	var ae *errors.AuditError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, errors.ErrCodeRenderNoRenderer, ae.Code)
}

func TestRenderQueryNilResult(t *testing.T) {
	audit := newModelAudit(t, &fakeRenderer{returnNil: true})

	_, err := audit.RenderQuery(node.ModelTarget(ordersModel()), RenderParams{})
	require.Error(t, err)

	var ae *errors.AuditError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, errors.ErrCodeRenderEmptyResult, ae.Code)
	assert.Contains(t, ae.Message, "orders_not_null")
	assert.Contains(t, ae.Message, "analytics.orders")
}

func TestStandaloneRenderQuery(t *testing.T) {
	renderer := &fakeRenderer{}
	env := map[string]node.Executable{
		"helper": {Kind: node.ExecutableKindDefinition, Payload: "def helper(): ..."},
	}

	audit := mustStandalone(StandaloneDefinition{
		Definition: Definition{
			Name:     "assert_orders",
			Dialect:  sqlexpr.DialectDuckDB,
			Query:    selectStmt("SELECT * FROM raw.orders WHERE id IS NULL"),
			Renderer: renderer,
		},
		Env: env,
	})

	_, err := audit.RenderQuery(node.ModelTarget(audit), RenderParams{})
	require.NoError(t, err)

	assert.NotContains(t, renderer.lastCtx.Kwargs, "this_model",
		"standalone audits have no owning model to point at")
	assert.Equal(t, sqlexpr.DialectDuckDB, renderer.lastIn.Dialect)
	assert.Equal(t, env, renderer.lastIn.Env)
}
