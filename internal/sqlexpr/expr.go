// Package sqlexpr defines the expression value types and collaborator
// contracts the audit core exchanges with the external SQL toolchain.
// The external parser produces these values from raw text; this package
// never parses SQL itself. It only knows how to serialize expressions
// back to canonical SQL and to synthesize the handful of constructs the
// audit core builds on its own (time predicates and the "this model"
// subquery).
package sqlexpr

import (
	"fmt"
	"sort"
	"strings"
)

// Expression is a node of a parsed or synthesized SQL statement.
// SQL returns the canonical text for the given dialect; when comments
// is false, attached comments are stripped from the output.
type Expression interface {
	SQL(dialect Dialect, comments bool) string
}

// Query marks SELECT-class expressions and macro-templated query
// placeholders, the only statement shapes allowed as an audit query.
type Query interface {
	Expression
	isQuery()
}

// Ident is a single identifier part, optionally quoted.
// Quoting state survives round trips so re-quoting stays idempotent.
type Ident struct {
	Name   string
	Quoted bool
}

func (i Ident) SQL(dialect Dialect, _ bool) string {
	if !i.Quoted {
		return i.Name
	}
	q := string(dialect.IdentifierQuote())
	return q + strings.ReplaceAll(i.Name, q, q+q) + q
}

// Column references a column by name
type Column struct {
	Name string
}

// NewColumn creates a column reference
func NewColumn(name string) *Column {
	return &Column{Name: name}
}

func (c *Column) SQL(Dialect, bool) string {
	return c.Name
}

// Literal is a scalar literal value
type Literal struct {
	Value    string
	IsString bool
}

// Str creates a string literal
func Str(v string) *Literal {
	return &Literal{Value: v, IsString: true}
}

// Num creates a numeric literal from its textual form
func Num(v string) *Literal {
	return &Literal{Value: v}
}

// Bool creates a boolean literal
func Bool(v bool) *Literal {
	if v {
		return &Literal{Value: "TRUE"}
	}
	return &Literal{Value: "FALSE"}
}

func (l *Literal) SQL(Dialect, bool) string {
	if l.IsString {
		return "'" + strings.ReplaceAll(l.Value, "'", "''") + "'"
	}
	return l.Value
}

// EQ is a binary equality expression
type EQ struct {
	Left  Expression
	Right Expression
}

func (e *EQ) SQL(dialect Dialect, comments bool) string {
	return fmt.Sprintf("%s = %s", e.Left.SQL(dialect, comments), e.Right.SQL(dialect, comments))
}

// Tuple is a parenthesized expression list
type Tuple struct {
	Expressions []Expression
}

func (t *Tuple) SQL(dialect Dialect, comments bool) string {
	return "(" + joinSQL(t.Expressions, dialect, comments) + ")"
}

// Array is a bracketed expression list
type Array struct {
	Expressions []Expression
}

func (a *Array) SQL(dialect Dialect, comments bool) string {
	return "[" + joinSQL(a.Expressions, dialect, comments) + "]"
}

// MapLiteral is a brace construct of unique keys mapped to expressions
type MapLiteral struct {
	Entries map[string]Expression
}

func (m *MapLiteral) SQL(dialect Dialect, comments bool) string {
	parts := make([]string, 0, len(m.Entries))
	for _, k := range sortedKeys(m.Entries) {
		parts = append(parts, fmt.Sprintf("'%s': %s", k, m.Entries[k].SQL(dialect, comments)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Between is a range predicate over an expression
type Between struct {
	This Expression
	Low  Expression
	High Expression
}

func (b *Between) SQL(dialect Dialect, comments bool) string {
	return fmt.Sprintf("%s BETWEEN %s AND %s",
		b.This.SQL(dialect, comments), b.Low.SQL(dialect, comments), b.High.SQL(dialect, comments))
}

// TextName reduces an expression to its bare textual name: literals
// yield their value, identifiers and columns their name, tables their
// dotted form. Used for header fields whose values arrive as
// expressions.
func TextName(e Expression) string {
	switch v := e.(type) {
	case *Literal:
		return v.Value
	case *Column:
		return v.Name
	case Ident:
		return v.Name
	case *Ident:
		return v.Name
	case *Table:
		return v.Name()
	default:
		if e == nil {
			return ""
		}
		return strings.Trim(e.SQL(DialectDefault, false), `'"`)
	}
}

func joinSQL(exprs []Expression, dialect Dialect, comments bool) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL(dialect, comments)
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]Expression) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion order is irrelevant for map literals; sort for stable output
	sort.Strings(keys)
	return keys
}
