// Package sqlaudit is the public surface of the audit core. It
// re-exports the definition, loading, rendering, and execution types so
// embedding pipelines depend on a single import path rather than on the
// internal package layout.
package sqlaudit

import (
	"iter"

	"github.com/felixgeelhaar/sqlaudit/internal/audit"
	"github.com/felixgeelhaar/sqlaudit/internal/config"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// ProjectConfig holds project-level settings applied when loading audits
type ProjectConfig = config.Config

// Core audit types.
type (
	Audit                = audit.Audit
	ModelAudit           = audit.ModelAudit
	StandaloneAudit      = audit.StandaloneAudit
	Definition           = audit.Definition
	StandaloneDefinition = audit.StandaloneDefinition
	Options              = audit.Options
	Loader               = audit.Loader
	Variant              = audit.Variant
)

// Rendering contracts.
type (
	RenderParams  = audit.RenderParams
	RenderInputs  = audit.RenderInputs
	RenderContext = audit.RenderContext
	QueryRenderer = audit.QueryRenderer
	RendererFunc  = audit.RendererFunc
)

// Execution types.
type (
	Runner               = audit.Runner
	Result               = audit.Result
	ExecutionEngine      = audit.ExecutionEngine
	BlockingFailureError = audit.BlockingFailureError
)

// Node contracts implemented by the embedding pipeline.
type (
	Model      = node.Model
	Snapshot   = node.Snapshot
	Target     = node.Target
	TimeColumn = node.TimeColumn
	Executable = node.Executable
)

// Expression contracts exchanged with the external SQL toolchain.
type (
	Expression = sqlexpr.Expression
	Query      = sqlexpr.Query
	Dialect    = sqlexpr.Dialect
)

const (
	VariantModel      = audit.VariantModel
	VariantStandalone = audit.VariantStandalone
)

// NewLoader creates a loader for the given audit variant
func NewLoader(variant Variant, opts Options) *Loader {
	return audit.NewLoader(variant, opts)
}

// Load builds one audit from a parsed definition block
func Load(variant Variant, opts Options, statements []Expression, path string, defaultDialect Dialect) (Audit, error) {
	return audit.NewLoader(variant, opts).Load(statements, path, defaultDialect)
}

// LoadMultiple splits a parsed statement stream into definition blocks
// and loads each, lazily and fail-fast.
func LoadMultiple(variant Variant, opts Options, statements []Expression, path string, defaultDialect Dialect) iter.Seq2[Audit, error] {
	return audit.NewLoader(variant, opts).LoadMultiple(statements, path, defaultDialect)
}

// NewModelAudit validates and constructs a model audit
func NewModelAudit(def Definition) (*ModelAudit, error) {
	return audit.NewModelAudit(def)
}

// NewStandaloneAudit validates and constructs a standalone audit
func NewStandaloneAudit(def StandaloneDefinition) (*StandaloneAudit, error) {
	return audit.NewStandaloneAudit(def)
}

// BuiltinAudits returns the predefined model audit library
func BuiltinAudits(opts Options) map[string]*ModelAudit {
	return audit.BuiltinAudits(opts)
}

// IsBuiltin reports whether name refers to a predefined audit
func IsBuiltin(name string) bool {
	return audit.IsBuiltin(name)
}

// NewRunner creates an audit runner over an execution engine
func NewRunner(engine ExecutionEngine) *Runner {
	return audit.NewRunner(engine, nil)
}

// LoadProjectConfig reads project-level audit settings from a YAML file
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	return config.Load(path)
}

// ApplyProjectConfig merges project settings into loader options and
// returns the project's default dialect.
func ApplyProjectConfig(cfg *ProjectConfig, opts Options) (Options, Dialect) {
	opts.ForceSkip = cfg.SkipSet()
	opts.ForceNonBlocking = cfg.NonBlockingSet()
	return opts, cfg.DefaultDialect()
}

// ModelTarget wraps a plain model node for rendering
func ModelTarget(m Model) Target {
	return node.ModelTarget(m)
}

// SnapshotTarget wraps a versioned snapshot for rendering
func SnapshotTarget(s Snapshot) Target {
	return node.SnapshotTarget(s)
}
