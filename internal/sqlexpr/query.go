package sqlexpr

import (
	"fmt"
	"strings"
)

// Select is a SELECT-class expression. A parsed select carries its
// canonical text in Raw (comments split out by the parser); a select
// synthesized by the audit core carries structured projections.
type Select struct {
	Raw         string
	Comments    []string
	Projections []Expression
	FromClause  Expression
	WhereClause Expression
}

func (s *Select) isQuery() {}

// NewSelect starts building a synthesized select
func NewSelect(projections ...Expression) *Select {
	return &Select{Projections: projections}
}

// ParsedSelect wraps the canonical text of a parsed SELECT statement
func ParsedSelect(raw string, comments ...string) *Select {
	return &Select{Raw: raw, Comments: comments}
}

// Star is the * projection
func Star() Expression {
	return &Column{Name: "*"}
}

// From sets the source relation
func (s *Select) From(from Expression) *Select {
	s.FromClause = from
	return s
}

// Where sets the filter predicate; a nil predicate leaves the select unfiltered
func (s *Select) Where(where Expression) *Select {
	s.WhereClause = where
	return s
}

// Subquery wraps the select in parentheses for use as a relation
func (s *Select) Subquery() *Subquery {
	return &Subquery{Query: s}
}

func (s *Select) SQL(dialect Dialect, comments bool) string {
	var b strings.Builder
	if comments {
		for _, c := range s.Comments {
			fmt.Fprintf(&b, "/* %s */ ", c)
		}
	}

	if s.Raw != "" {
		b.WriteString(s.Raw)
		return b.String()
	}

	b.WriteString("SELECT ")
	if len(s.Projections) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(joinSQL(s.Projections, dialect, comments))
	}
	if s.FromClause != nil {
		b.WriteString(" FROM ")
		b.WriteString(s.FromClause.SQL(dialect, comments))
	}
	if s.WhereClause != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.WhereClause.SQL(dialect, comments))
	}
	return b.String()
}

// Subquery is a parenthesized query usable as a relation
type Subquery struct {
	Query Query
}

func (s *Subquery) SQL(dialect Dialect, comments bool) string {
	return "(" + s.Query.SQL(dialect, comments) + ")"
}

// MacroQuery is a macro-templated query placeholder. Its text is not a
// concrete SELECT until the external renderer expands it.
type MacroQuery struct {
	Raw      string
	Comments []string
}

func (q *MacroQuery) isQuery() {}

// NewMacroQuery wraps a macro-templated query body
func NewMacroQuery(raw string, comments ...string) *MacroQuery {
	return &MacroQuery{Raw: raw, Comments: comments}
}

func (q *MacroQuery) SQL(_ Dialect, comments bool) string {
	if comments && len(q.Comments) > 0 {
		var b strings.Builder
		for _, c := range q.Comments {
			fmt.Fprintf(&b, "/* %s */ ", c)
		}
		b.WriteString(q.Raw)
		return b.String()
	}
	return q.Raw
}
