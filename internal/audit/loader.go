package audit

import (
	"fmt"
	"iter"
	"strings"

	"github.com/felixgeelhaar/sqlaudit/internal/errors"
	"github.com/felixgeelhaar/sqlaudit/internal/node"
	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// Options configures audit construction during loading
type Options struct {
	// Renderer is the external macro/templating engine audits render through
	Renderer QueryRenderer

	// Extractor finds table references in rendered queries (standalone
	// dependency computation)
	Extractor sqlexpr.TableExtractor

	// Macros is the macro namespace visible to loaded audits
	Macros *sqlexpr.MacroRegistry

	// Env is the code environment for standalone audits' macros
	Env map[string]node.Executable

	// ForceSkip marks audits, by lower-cased name, to load with skip set
	ForceSkip map[string]bool

	// ForceNonBlocking marks audits, by lower-cased name, to load with
	// blocking unset
	ForceNonBlocking map[string]bool
}

// Loader builds validated audit definitions from parsed statement
// blocks. It does not parse raw text; statements arrive already parsed.
type Loader struct {
	variant Variant
	schema  FieldSchema
	opts    Options
}

// NewLoader creates a loader for the given audit variant
func NewLoader(variant Variant, opts Options) *Loader {
	schema := modelAuditSchema
	if variant == VariantStandalone {
		schema = standaloneAuditSchema
	}
	return &Loader{variant: variant, schema: schema, opts: opts}
}

// Load builds one audit from a definition block: the AUDIT header
// statement, any auxiliary statements, and the query as the final
// statement. path is attached to the result for diagnostics only.
func (l *Loader) Load(statements []sqlexpr.Expression, path string, defaultDialect sqlexpr.Dialect) (Audit, error) {
	if len(statements) < 2 {
		return nil, errors.NewIncompleteDefinitionError(path)
	}

	header, ok := statements[0].(*sqlexpr.AuditHeader)
	if !ok {
		return nil, errors.NewHeaderRequiredError(path)
	}
	middle := statements[1 : len(statements)-1]
	last := statements[len(statements)-1]

	provided := make(map[string]struct{}, len(header.Properties)+1)
	for _, p := range header.Properties {
		if p != nil {
			provided[p.Name] = struct{}{}
		}
	}
	// the trailing statement stands in for the query field
	provided["query"] = struct{}{}

	if missing := l.schema.MissingRequired(provided); len(missing) > 0 {
		return nil, errors.NewMissingFieldsError(missing, path)
	}
	if extra := l.schema.ExtraUnknown(provided); len(extra) > 0 {
		return nil, errors.NewExtraFieldsError(extra, path)
	}

	query, ok := last.(sqlexpr.Query)
	if !ok {
		return nil, errors.NewMissingQueryError(path)
	}

	audit, err := l.construct(header, middle, query, path, defaultDialect)
	if err != nil {
		return nil, configError(err, path)
	}
	return audit, nil
}

// LoadMultiple splits a statement stream into definition blocks, one
// per AUDIT header, and loads each. The sequence is lazy, single-pass,
// and fail-fast: an error on one block ends the sequence without
// yielding past it. The trailing block is always loaded, so an empty or
// malformed stream surfaces a configuration error rather than silence.
func (l *Loader) LoadMultiple(statements []sqlexpr.Expression, path string, defaultDialect sqlexpr.Dialect) iter.Seq2[Audit, error] {
	return func(yield func(Audit, error) bool) {
		var block []sqlexpr.Expression

		flush := func() bool {
			audit, err := l.Load(block, path, defaultDialect)
			if err != nil {
				yield(nil, err)
				return false
			}
			return yield(audit, nil)
		}

		for _, stmt := range statements {
			if _, isHeader := stmt.(*sqlexpr.AuditHeader); isHeader && len(block) > 0 {
				if !flush() {
					return
				}
				block = nil
			}
			block = append(block, stmt)
		}

		flush()
	}
}

func (l *Loader) construct(
	header *sqlexpr.AuditHeader,
	middle []sqlexpr.Expression,
	query sqlexpr.Query,
	path string,
	defaultDialect sqlexpr.Dialect,
) (Audit, error) {
	def := Definition{
		Dialect:     defaultDialect,
		Query:       query,
		Expressions: middle,
		Macros:      l.opts.Macros,
		Path:        path,
		Renderer:    l.opts.Renderer,
	}
	standalone := StandaloneDefinition{Definition: def}

	for _, prop := range header.Properties {
		if prop == nil {
			continue
		}
		if err := l.decodeField(prop, &standalone); err != nil {
			return nil, err
		}
	}

	name := strings.ToLower(standalone.Name)
	if l.opts.ForceSkip[name] {
		standalone.Skip = true
	}
	if l.opts.ForceNonBlocking[name] {
		nonBlocking := false
		standalone.Blocking = &nonBlocking
	}

	if l.variant == VariantStandalone {
		standalone.Env = l.opts.Env
		standalone.Extractor = l.opts.Extractor
		return NewStandaloneAudit(standalone)
	}
	return NewModelAudit(standalone.Definition)
}

func (l *Loader) decodeField(prop *sqlexpr.Property, def *StandaloneDefinition) error {
	switch prop.Name {
	case "name":
		def.Name = strings.ToLower(sqlexpr.TextName(prop.Value))
	case "dialect":
		def.Dialect = sqlexpr.Dialect(strings.ToLower(sqlexpr.TextName(prop.Value)))
	case "skip":
		v, err := boolField(prop)
		if err != nil {
			return err
		}
		def.Skip = v
	case "blocking":
		v, err := boolField(prop)
		if err != nil {
			return err
		}
		def.Blocking = &v
	case "hash_raw_query":
		v, err := boolField(prop)
		if err != nil {
			return err
		}
		def.HashRawQuery = v
	case "defaults":
		defaults, err := decodeDefaults(prop.Value)
		if err != nil {
			return err
		}
		def.Defaults = defaults
	case "owner":
		def.Owner = sqlexpr.TextName(prop.Value)
	case "description":
		def.Description = sqlexpr.TextName(prop.Value)
	case "stamp":
		def.Stamp = sqlexpr.TextName(prop.Value)
	case "tags":
		def.Tags = stringList(prop.Value)
	case "depends_on":
		deps := make(map[string]struct{})
		for _, dep := range tableNameList(prop.Value) {
			deps[dep] = struct{}{}
		}
		def.DependsOn = deps
	}
	return nil
}

// decodeDefaults decomposes a defaults value into named expressions: a
// tuple or array of equality expressions, or a map literal. Any other
// shape is a configuration error.
func decodeDefaults(value sqlexpr.Expression) (map[string]sqlexpr.Expression, error) {
	var pairs []sqlexpr.Expression
	switch v := value.(type) {
	case *sqlexpr.Tuple:
		pairs = v.Expressions
	case *sqlexpr.Array:
		pairs = v.Expressions
	case *sqlexpr.MapLiteral:
		defaults := make(map[string]sqlexpr.Expression, len(v.Entries))
		for k, e := range v.Entries {
			defaults[k] = e
		}
		return defaults, nil
	default:
		return nil, errors.NewInvalidDefaultsError(describeValue(value))
	}

	defaults := make(map[string]sqlexpr.Expression, len(pairs))
	for _, p := range pairs {
		eq, ok := p.(*sqlexpr.EQ)
		if !ok {
			return nil, errors.NewInvalidDefaultsError(describeValue(p))
		}
		defaults[sqlexpr.TextName(eq.Left)] = eq.Right
	}
	return defaults, nil
}

func boolField(prop *sqlexpr.Property) (bool, error) {
	switch strings.ToLower(sqlexpr.TextName(prop.Value)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, errors.New(errors.ErrCodeConfigInvalidDefaults,
			fmt.Sprintf("field '%s' must be a boolean, got %s", prop.Name, describeValue(prop.Value)))
	}
}

func stringList(value sqlexpr.Expression) []string {
	var exprs []sqlexpr.Expression
	switch v := value.(type) {
	case *sqlexpr.Tuple:
		exprs = v.Expressions
	case *sqlexpr.Array:
		exprs = v.Expressions
	default:
		if value != nil {
			return []string{sqlexpr.TextName(value)}
		}
		return nil
	}

	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, sqlexpr.TextName(e))
	}
	return out
}

// tableNameList decodes a list of table references, keeping the full
// dotted name of each. TextName would drop the schema qualifier.
func tableNameList(value sqlexpr.Expression) []string {
	var exprs []sqlexpr.Expression
	switch v := value.(type) {
	case *sqlexpr.Tuple:
		exprs = v.Expressions
	case *sqlexpr.Array:
		exprs = v.Expressions
	default:
		if value != nil {
			return []string{tableName(value)}
		}
		return nil
	}

	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, tableName(e))
	}
	return out
}

func tableName(e sqlexpr.Expression) string {
	if t, ok := e.(*sqlexpr.Table); ok {
		return t.FullName()
	}
	return sqlexpr.TextName(e)
}

func describeValue(e sqlexpr.Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.SQL(sqlexpr.DialectDefault, false)
}

// configError folds any construction failure into the configuration
// error kind, carrying the source path for diagnostics.
func configError(err error, path string) error {
	if ae, ok := err.(*errors.AuditError); ok {
		if ae.Path == "" {
			ae.Path = path
		}
		return ae
	}
	return errors.Wrap(errors.ErrCodeConfigIncomplete, "invalid audit definition", err).WithPath(path)
}
