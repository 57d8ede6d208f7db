package sqlexpr

import "strings"

// Table references a table as up to three dotted identifier parts
// (catalog.schema.name). Each part tracks its own quoting state.
type Table struct {
	Parts []Ident
}

func (t *Table) SQL(dialect Dialect, _ bool) string {
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.SQL(dialect, false)
	}
	return strings.Join(parts, ".")
}

// Name returns the bare table name, the last identifier part
func (t *Table) Name() string {
	if len(t.Parts) == 0 {
		return ""
	}
	return t.Parts[len(t.Parts)-1].Name
}

// FullName returns the dotted name without any quoting
func (t *Table) FullName() string {
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.Name
	}
	return strings.Join(parts, ".")
}

// ToTable splits a possibly quoted dotted name into a Table reference.
// Segments wrapped in the dialect's quote character (or ANSI double
// quotes) keep their quoting state, so an identifier that already
// carries a case-sensitive schema prefix survives the round trip.
func ToTable(name string, dialect Dialect) *Table {
	quote := dialect.IdentifierQuote()
	var parts []Ident
	var cur strings.Builder
	quoted := false
	inQuote := false

	flush := func() {
		parts = append(parts, Ident{Name: cur.String(), Quoted: quoted})
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case inQuote:
			if c == quote || c == '"' {
				// doubled quote char is an escaped literal quote
				if i+1 < len(name) && name[i+1] == c {
					cur.WriteByte(c)
					i++
					continue
				}
				inQuote = false
				continue
			}
			cur.WriteByte(c)
		case c == quote || c == '"':
			inQuote = true
			quoted = true
		case c == '.':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(parts) > 0 {
		flush()
	}

	return &Table{Parts: parts}
}

// QuoteIdentifiers returns a copy of the table with every part quoted.
// Quoting is idempotent: parts that were already quoted stay quoted
// exactly once after final normalization.
func QuoteIdentifiers(t *Table, dialect Dialect) *Table {
	_ = dialect // quote character is resolved at serialization time
	parts := make([]Ident, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = Ident{Name: p.Name, Quoted: true}
	}
	return &Table{Parts: parts}
}
