package sqlexpr

import (
	"fmt"
	"strings"
)

// Property is a named field inside an AUDIT header, optionally carrying
// a literal or expression value.
type Property struct {
	Name  string
	Value Expression
}

func (p *Property) SQL(dialect Dialect, comments bool) string {
	if p.Value == nil {
		return p.Name
	}
	return fmt.Sprintf("%s %s", p.Name, p.Value.SQL(dialect, comments))
}

// AuditHeader is the definition-header statement that opens an audit
// block. A statement stream may contain several headers, each starting
// a new definition.
type AuditHeader struct {
	Properties []*Property
}

// NewAuditHeader builds a header from its properties
func NewAuditHeader(props ...*Property) *AuditHeader {
	return &AuditHeader{Properties: props}
}

// Prop finds a property by name, or nil
func (h *AuditHeader) Prop(name string) *Property {
	for _, p := range h.Properties {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

func (h *AuditHeader) SQL(dialect Dialect, comments bool) string {
	parts := make([]string, 0, len(h.Properties))
	for _, p := range h.Properties {
		if p != nil {
			parts = append(parts, p.SQL(dialect, comments))
		}
	}
	return "AUDIT (\n  " + strings.Join(parts, ",\n  ") + "\n)"
}

// MacroDef is a named macro definition statement carried alongside an
// audit query.
type MacroDef struct {
	Name string
	Body string
}

func (m *MacroDef) SQL(Dialect, bool) string {
	return fmt.Sprintf("@DEF(%s, %s)", m.Name, m.Body)
}

// MacroRegistry is the macro namespace visible to an audit. The audit
// core treats it as an opaque read-only handle and passes it through to
// the external renderer.
type MacroRegistry struct {
	Macros map[string]string
}

// NewMacroRegistry creates an empty registry
func NewMacroRegistry() *MacroRegistry {
	return &MacroRegistry{Macros: map[string]string{}}
}
