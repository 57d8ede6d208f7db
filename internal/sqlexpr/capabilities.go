package sqlexpr

// TableExtractor statically collects the tables referenced by an
// expression tree. Implemented by the external SQL toolchain.
type TableExtractor interface {
	FindTables(e Expression, dialect Dialect) map[string]struct{}
}

// SchemaIntrospector fetches column-to-type metadata for a table.
// Implementations may perform I/O; the audit core treats failures as
// best-effort and degrades without them.
type SchemaIntrospector interface {
	Columns(table string) (map[string]string, error)
}
