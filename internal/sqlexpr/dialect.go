package sqlexpr

import "strings"

// Dialect identifies the SQL dialect used to parse and serialize expressions.
// The empty dialect means "inherit from the owning model" and serializes
// with ANSI double-quoted identifiers.
type Dialect string

// Known dialects. The set is open: any string the external parser
// understands is a valid Dialect.
const (
	DialectDefault   Dialect = ""
	DialectSnowflake Dialect = "snowflake"
	DialectBigQuery  Dialect = "bigquery"
	DialectDuckDB    Dialect = "duckdb"
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSpark     Dialect = "spark"
	DialectHive      Dialect = "hive"
)

// Normalize lower-cases the dialect name
func (d Dialect) Normalize() Dialect {
	return Dialect(strings.ToLower(strings.TrimSpace(string(d))))
}

// Or returns d, or fallback when d is empty
func (d Dialect) Or(fallback Dialect) Dialect {
	if d == DialectDefault {
		return fallback
	}
	return d
}

// IdentifierQuote returns the identifier quote character for the dialect
func (d Dialect) IdentifierQuote() byte {
	switch d.Normalize() {
	case DialectBigQuery, DialectMySQL, DialectSpark, DialectHive:
		return '`'
	default:
		return '"'
	}
}
