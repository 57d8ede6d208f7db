package node

import (
	"time"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// StaticModel is a plain value implementation of Model for embedders
// that do not carry their own node type.
type StaticModel struct {
	ModelName  string
	SQLDialect sqlexpr.Dialect
	Time       *TimeColumn
	Env        map[string]Executable
	ModelKind  Kind
}

func (m *StaticModel) Name() string                   { return m.ModelName }
func (m *StaticModel) Dialect() sqlexpr.Dialect       { return m.SQLDialect }
func (m *StaticModel) TimeColumn() *TimeColumn        { return m.Time }
func (m *StaticModel) CodeEnv() map[string]Executable { return m.Env }
func (m *StaticModel) Kind() Kind                     { return m.ModelKind }

// TimeValue renders a bound as a string literal in the time column's
// declared format, or as a date literal when no format is declared.
// Column metadata narrows date-typed columns to a plain date literal.
func (m *StaticModel) TimeValue(t time.Time, columnTypes map[string]string) sqlexpr.Expression {
	format := time.DateOnly
	if m.Time != nil && m.Time.Format != "" {
		format = m.Time.Format
	}

	if m.Time != nil && columnTypes != nil {
		switch columnTypes[m.Time.Column] {
		case "date":
			format = time.DateOnly
		case "timestamp", "datetime":
			format = time.DateTime
		}
	}

	return sqlexpr.Str(t.UTC().Format(format))
}

var _ Model = (*StaticModel)(nil)
