// Package node defines the pipeline-node contracts the audit core
// consumes: the model being audited, its versioned snapshot, and the
// target union dispatched at render time.
package node

import (
	"time"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// Epoch is the default lower and upper bound for time-window rendering
// when no explicit range is supplied.
var Epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// TimeColumn declares a model's time partitioning column
type TimeColumn struct {
	Column string
	Format string
}

// Kind describes how a model materializes. OnlyExecutionTime restricts
// rendering to execution-time-only semantics for kinds that require it.
type Kind struct {
	Name              string
	OnlyExecutionTime bool
}

// Model is the node an audit is attached to. Implementations live in
// the owning pipeline; StandaloneAudit implements it for itself.
type Model interface {
	Name() string
	Dialect() sqlexpr.Dialect
	TimeColumn() *TimeColumn
	// TimeValue converts a time bound to an expression of the time
	// column's native type, using column metadata when available.
	TimeValue(t time.Time, columnTypes map[string]string) sqlexpr.Expression
	CodeEnv() map[string]Executable
	Kind() Kind
}

// Snapshot is a versioned physical materialization of a model.
// TableName resolves the physical table identity, honoring dev routing
// and read-vs-write placement.
type Snapshot interface {
	Node() Model
	TableName(isDev, forRead bool) string
}

type targetKind int

const (
	targetModel targetKind = iota
	targetSnapshot
)

// Target is the thing being audited: either a plain model node or a
// versioned snapshot of one.
type Target struct {
	kind     targetKind
	model    Model
	snapshot Snapshot
}

// ModelTarget wraps a plain model node
func ModelTarget(m Model) Target {
	return Target{kind: targetModel, model: m}
}

// SnapshotTarget wraps a versioned snapshot
func SnapshotTarget(s Snapshot) Target {
	return Target{kind: targetSnapshot, snapshot: s}
}

// Node returns the underlying model regardless of target kind
func (t Target) Node() Model {
	if t.kind == targetSnapshot {
		return t.snapshot.Node()
	}
	return t.model
}

// IsSnapshot reports whether the target routes through a snapshot
func (t Target) IsSnapshot() bool {
	return t.kind == targetSnapshot
}

// TableIdentity resolves the identity the audited relation is read
// from: the model's logical name for a plain node, otherwise the
// snapshot's physical table name for reading.
func (t Target) TableIdentity(isDev bool) string {
	if t.kind == targetSnapshot {
		return t.snapshot.TableName(isDev, true)
	}
	return t.model.Name()
}
