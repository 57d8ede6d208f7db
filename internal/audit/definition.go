// Package audit implements data-quality audit definitions for SQL
// transformation pipelines: loading and validating definition blocks,
// rendering audit queries against a target, content hashing for
// change detection, and static dependency extraction.
//
// An audit is a named SQL query whose result set represents bad rows.
// Model audits are bound to a model supplied at render time; standalone
// audits are first-class pipeline nodes with their own dependencies.
package audit

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/sqlaudit/internal/errors"
	"github.com/felixgeelhaar/sqlaudit/internal/hashing"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// Variant distinguishes the two audit kinds
type Variant int

const (
	// VariantModel audits are bound to a model at render time and block by default
	VariantModel Variant = iota
	// VariantStandalone audits are pipeline nodes of their own and never block
	VariantStandalone
)

// Audit is the capability shared by both variants. The set of
// implementations is closed: ModelAudit and StandaloneAudit.
type Audit interface {
	Name() string
	Dialect() sqlexpr.Dialect
	Skip() bool
	Blocking() bool
	Query() sqlexpr.Query
	Defaults() map[string]sqlexpr.Expression
	Expressions() []sqlexpr.Expression
	MacroDefinitions() []*sqlexpr.MacroDef
	Path() string

	// RenderQuery renders the audit's query against a target for a
	// specific execution context.
	RenderQuery(target node.Target, params RenderParams) (sqlexpr.Expression, error)

	variant() Variant
}

// definition holds the fields shared by both variants. Immutable after
// construction.
type definition struct {
	name        string
	dialect     sqlexpr.Dialect
	skip        bool
	blocking    bool
	query       sqlexpr.Query
	defaults    map[string]sqlexpr.Expression
	expressions []sqlexpr.Expression
	macros      *sqlexpr.MacroRegistry
	path        string
	renderer    QueryRenderer
}

// Name returns the unique, lower-cased audit name
func (d *definition) Name() string { return d.name }

// Dialect returns the audit's SQL dialect; empty means "inherit from
// the owning model"
func (d *definition) Dialect() sqlexpr.Dialect { return d.dialect }

// Skip reports whether the audit is excluded from execution
func (d *definition) Skip() bool { return d.skip }

// Blocking reports whether a failing result halts pipeline execution
func (d *definition) Blocking() bool { return d.blocking }

// Query returns the audit query or macro-templated placeholder
func (d *definition) Query() sqlexpr.Query { return d.query }

// Defaults returns the named default parameter values merged into every
// render call
func (d *definition) Defaults() map[string]sqlexpr.Expression { return d.defaults }

// Expressions returns the auxiliary statements carried alongside the query
func (d *definition) Expressions() []sqlexpr.Expression { return d.expressions }

// MacroDefinitions filters the auxiliary statements to macro definitions
func (d *definition) MacroDefinitions() []*sqlexpr.MacroDef {
	var defs []*sqlexpr.MacroDef
	for _, e := range d.expressions {
		if m, ok := e.(*sqlexpr.MacroDef); ok {
			defs = append(defs, m)
		}
	}
	return defs
}

// Path returns the source file the definition was loaded from,
// diagnostic-only metadata.
func (d *definition) Path() string { return d.path }

// MacroRegistry returns the macro namespace visible to this audit
func (d *definition) MacroRegistry() *sqlexpr.MacroRegistry { return d.macros }

// Definition carries the decoded fields an audit is constructed from.
// Blocking is a pointer so an unset value falls back to the variant's
// default (true for model audits, false for standalone audits).
type Definition struct {
	Name        string
	Dialect     sqlexpr.Dialect
	Skip        bool
	Blocking    *bool
	Query       sqlexpr.Query
	Defaults    map[string]sqlexpr.Expression
	Expressions []sqlexpr.Expression
	Macros      *sqlexpr.MacroRegistry
	Path        string
	Renderer    QueryRenderer
}

// StandaloneDefinition extends Definition with the node fields a
// standalone audit carries.
type StandaloneDefinition struct {
	Definition
	Owner        string
	Description  string
	Stamp        string
	Tags         []string
	DependsOn    map[string]struct{}
	HashRawQuery bool
	Env          map[string]node.Executable
	Extractor    sqlexpr.TableExtractor
}

// ModelAudit is an assertion made about a model's table. It is not a
// pipeline node itself; the model it audits is supplied at render time.
type ModelAudit struct {
	definition
}

func (a *ModelAudit) variant() Variant { return VariantModel }

// NewModelAudit validates and constructs a model audit.
// Blocking defaults to true.
func NewModelAudit(def Definition) (*ModelAudit, error) {
	shared, err := buildShared(def, true)
	if err != nil {
		return nil, err
	}
	return &ModelAudit{definition: shared}, nil
}

// StandaloneAudit is an audit that is itself a pipeline node, with its
// own dependencies and content hashes. It implements node.Model so its
// query can be rendered against itself.
type StandaloneAudit struct {
	definition

	owner             string
	description       string
	stamp             string
	tags              []string
	dependsOnDeclared map[string]struct{}
	hashRawQuery      bool
	env               map[string]node.Executable
	extractor         sqlexpr.TableExtractor

	// dependency cache: computed at most once per instance
	depsOnce sync.Once
	deps     map[string]struct{}
	depsErr  error
}

func (a *StandaloneAudit) variant() Variant { return VariantStandalone }

// NewStandaloneAudit validates and constructs a standalone audit.
// Blocking defaults to false; an explicit true is a configuration error.
func NewStandaloneAudit(def StandaloneDefinition) (*StandaloneAudit, error) {
	if def.Blocking != nil && *def.Blocking {
		name := strings.ToLower(def.Name)
		return nil, errors.NewStandaloneBlockingError(name).WithPath(def.Path)
	}

	shared, err := buildShared(def.Definition, false)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]struct{}, len(def.DependsOn))
	for dep := range def.DependsOn {
		declared[dep] = struct{}{}
	}

	return &StandaloneAudit{
		definition:        shared,
		owner:             def.Owner,
		description:       def.Description,
		stamp:             def.Stamp,
		tags:              append([]string(nil), def.Tags...),
		dependsOnDeclared: declared,
		hashRawQuery:      def.HashRawQuery,
		env:               def.Env,
		extractor:         def.Extractor,
	}, nil
}

// Owner returns the owning team or user
func (a *StandaloneAudit) Owner() string { return a.owner }

// Description returns the free-form description
func (a *StandaloneAudit) Description() string { return a.description }

// Stamp returns the free-form change stamp
func (a *StandaloneAudit) Stamp() string { return a.stamp }

// Tags returns the audit's tags
func (a *StandaloneAudit) Tags() []string { return a.tags }

// HashRawQuery reports whether MetadataHash hashes the unrendered query
func (a *StandaloneAudit) HashRawQuery() bool { return a.hashRawQuery }

// DependsOn returns the audit's upstream table names: the declared set
// unioned with tables extracted from the rendered query, minus the
// audit's own name. Computed at most once and cached for the object's
// lifetime; concurrent first access observes a single cached result.
// Callers needing freshness after macro or default changes must
// reconstruct the audit.
func (a *StandaloneAudit) DependsOn() (map[string]struct{}, error) {
	a.depsOnce.Do(func() {
		deps := make(map[string]struct{}, len(a.dependsOnDeclared))
		for dep := range a.dependsOnDeclared {
			deps[dep] = struct{}{}
		}

		rendered, err := a.RenderQuery(node.ModelTarget(a), RenderParams{})
		if err != nil {
			a.depsErr = err
			return
		}

		if a.extractor != nil {
			for table := range a.extractor.FindTables(rendered, a.dialect) {
				deps[table] = struct{}{}
			}
		}

		delete(deps, a.name)
		a.deps = deps
	})

	return a.deps, a.depsErr
}

// DataHash is the hash of no content: audits are evaluated, never
// materialized, so they carry no data partition.
func (a *StandaloneAudit) DataHash() string {
	return hashing.HashEmpty()
}

// MetadataHash computes the content hash over the audit's descriptive
// fields plus its query text. The query contribution is the raw query's
// canonical SQL when HashRawQuery is set, otherwise the rendered
// query's; comments are stripped either way.
func (a *StandaloneAudit) MetadataHash(audits map[string]*ModelAudit) (string, error) {
	_ = audits // part of the node hashing contract; unused by audits themselves

	data := []string{a.owner, a.description}
	tags := append([]string(nil), a.tags...)
	sort.Strings(tags)
	data = append(data, tags...)
	data = append(data, node.EnvString(a.env), a.stamp)

	query := sqlexpr.Expression(a.query)
	if !a.hashRawQuery {
		rendered, err := a.RenderQuery(node.ModelTarget(a), RenderParams{})
		if err != nil {
			return "", err
		}
		query = rendered
	}
	data = append(data, query.SQL(a.dialect, false))

	return hashing.HashData(data), nil
}

// node.Model implementation: a standalone audit renders against itself.

// TimeColumn always returns nil; audits have no time partitioning
func (a *StandaloneAudit) TimeColumn() *node.TimeColumn { return nil }

// TimeValue renders a bound as a plain date literal
func (a *StandaloneAudit) TimeValue(t time.Time, _ map[string]string) sqlexpr.Expression {
	return sqlexpr.Str(t.UTC().Format(time.DateOnly))
}

// CodeEnv returns the audit's own code environment
func (a *StandaloneAudit) CodeEnv() map[string]node.Executable { return a.env }

// Kind identifies the node as an audit
func (a *StandaloneAudit) Kind() node.Kind { return node.Kind{Name: "audit"} }

var _ node.Model = (*StandaloneAudit)(nil)

// buildShared runs the ordered construction validators for the shared
// definition fields.
func buildShared(def Definition, blockingDefault bool) (definition, error) {
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if name == "" {
		return definition{}, errors.New(errors.ErrCodeConfigMissingFields,
			"audit name cannot be empty").WithPath(def.Path)
	}

	if def.Query == nil {
		return definition{}, errors.NewMissingQueryError(def.Path)
	}

	blocking := blockingDefault
	if def.Blocking != nil {
		blocking = *def.Blocking
	}

	defaults := make(map[string]sqlexpr.Expression, len(def.Defaults))
	for k, v := range def.Defaults {
		defaults[k] = v
	}

	macros := def.Macros
	if macros == nil {
		macros = sqlexpr.NewMacroRegistry()
	}

	return definition{
		name:        name,
		dialect:     def.Dialect.Normalize(),
		skip:        def.Skip,
		blocking:    blocking,
		query:       def.Query,
		defaults:    defaults,
		expressions: append([]sqlexpr.Expression(nil), def.Expressions...),
		macros:      macros,
		path:        def.Path,
		renderer:    def.Renderer,
	}, nil
}
