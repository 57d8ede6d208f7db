package audit

import (
	"time"

	"github.com/felixgeelhaar/sqlaudit/internal/errors"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// RenderParams carries the per-call execution context for rendering an
// audit query. Unset time bounds default to the epoch. The named
// parameters here can never be shadowed by an audit's declared
// defaults; only Kwargs participates in the keyword merge.
type RenderParams struct {
	Start         *time.Time
	End           *time.Time
	ExecutionTime *time.Time

	// Snapshots maps node names to snapshots for physical-location routing
	Snapshots map[string]node.Snapshot

	// IsDev routes table resolution to dev tables and clones
	IsDev bool

	// Introspector optionally supplies column metadata; failures are
	// swallowed and degrade time-bound coercion
	Introspector sqlexpr.SchemaIntrospector

	// Kwargs are extra keyword values passed through to the renderer
	Kwargs map[string]any
}

// RenderInputs describes the query template handed to the renderer
type RenderInputs struct {
	Query             sqlexpr.Query
	Dialect           sqlexpr.Dialect
	MacroDefinitions  []*sqlexpr.MacroDef
	Path              string
	Macros            *sqlexpr.MacroRegistry
	Env               map[string]node.Executable
	OnlyExecutionTime bool
}

// RenderContext is the keyword context a render call resolves against
type RenderContext struct {
	Start         *time.Time
	End           *time.Time
	ExecutionTime *time.Time
	Snapshots     map[string]node.Snapshot
	IsDev         bool
	Kwargs        map[string]any
}

// QueryRenderer expands macros and templating fragments, producing a
// concrete expression ready for execution. Implemented by the external
// macro/templating engine. A nil result with a nil error means the
// template produced nothing; the audit core turns that into a hard
// render error.
type QueryRenderer interface {
	Render(in RenderInputs, ctx RenderContext) (sqlexpr.Expression, error)
}

// RendererFunc adapts a function to the QueryRenderer interface
type RendererFunc func(in RenderInputs, ctx RenderContext) (sqlexpr.Expression, error)

func (f RendererFunc) Render(in RenderInputs, ctx RenderContext) (sqlexpr.Expression, error) {
	return f(in, ctx)
}

// RenderQuery renders a model audit's query against the target model or
// snapshot: it resolves the audited table identity, builds the
// time-window predicate when the model declares a time column,
// synthesizes the this_model subquery, and delegates to the renderer.
func (a *ModelAudit) RenderQuery(target node.Target, params RenderParams) (sqlexpr.Expression, error) {
	n := target.Node()
	thisTable := target.TableIdentity(params.IsDev)
	dialect := a.dialect.Or(n.Dialect())

	// Best effort: missing column metadata degrades time coercion, it
	// never aborts the render.
	var columnTypes map[string]string
	if params.Introspector != nil {
		if cols, err := params.Introspector.Columns(thisTable); err == nil {
			columnTypes = cols
		}
	}

	var where sqlexpr.Expression
	if tc := n.TimeColumn(); tc != nil {
		where = &sqlexpr.Between{
			This: sqlexpr.NewColumn(tc.Column),
			Low:  n.TimeValue(timeOrEpoch(params.Start), columnTypes),
			High: n.TimeValue(timeOrEpoch(params.End), columnTypes),
		}
	}

	// The model's name is already normalized, but snapshots prepend a
	// case-sensitive physical schema, so quote before the final
	// normalization pass to keep the schema reference intact. Quoting
	// uses the effective dialect, not the audit's own possibly empty
	// one, so the table splits with the quote style it renders under.
	quoted := sqlexpr.QuoteIdentifiers(sqlexpr.ToTable(thisTable, dialect), dialect)
	thisModel := sqlexpr.NewSelect(sqlexpr.Star()).From(quoted).Where(where).Subquery()

	in := RenderInputs{
		Query:             a.query,
		Dialect:           dialect,
		MacroDefinitions:  a.MacroDefinitions(),
		Path:              a.path,
		Macros:            a.macros,
		Env:               n.CodeEnv(),
		OnlyExecutionTime: n.Kind().OnlyExecutionTime,
	}

	return renderQuery(a, in, a.renderer, target, params, map[string]any{"this_model": thisModel})
}

// RenderQuery renders a standalone audit's query. Standalone audits
// have no owning model, so no table identity, time predicate, or
// this_model subquery is synthesized.
func (a *StandaloneAudit) RenderQuery(target node.Target, params RenderParams) (sqlexpr.Expression, error) {
	in := RenderInputs{
		Query:            a.query,
		Dialect:          a.dialect,
		MacroDefinitions: a.MacroDefinitions(),
		Path:             a.path,
		Macros:           a.macros,
		Env:              a.env,
	}

	return renderQuery(a, in, a.renderer, target, params, nil)
}

// renderQuery is the render path shared by both variants: it merges the
// keyword context and delegates to the renderer. Precedence, lowest
// first: declared defaults, caller kwargs, synthesized extras.
func renderQuery(
	a Audit,
	in RenderInputs,
	renderer QueryRenderer,
	target node.Target,
	params RenderParams,
	extraKwargs map[string]any,
) (sqlexpr.Expression, error) {
	if renderer == nil {
		return nil, errors.NewNoRendererError(a.Name())
	}

	kwargs := make(map[string]any, len(a.Defaults())+len(params.Kwargs)+len(extraKwargs))
	for k, v := range a.Defaults() {
		kwargs[k] = v
	}
	for k, v := range params.Kwargs {
		kwargs[k] = v
	}
	for k, v := range extraKwargs {
		kwargs[k] = v
	}

	rendered, err := renderer.Render(in, RenderContext{
		Start:         params.Start,
		End:           params.End,
		ExecutionTime: params.ExecutionTime,
		Snapshots:     params.Snapshots,
		IsDev:         params.IsDev,
		Kwargs:        kwargs,
	})
	if err != nil {
		return nil, err
	}
	if rendered == nil {
		return nil, errors.NewRenderError(a.Name(), target.Node().Name())
	}

	return rendered, nil
}

func timeOrEpoch(t *time.Time) time.Time {
	if t == nil {
		return node.Epoch
	}
	return *t
}
