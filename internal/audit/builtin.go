package audit

import (
	"strings"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

// builtinQueries holds the predefined model audits shipped with the
// pipeline. Each query is a macro template over @this_model; parameters
// (@columns, @threshold, ...) are supplied through defaults or render
// kwargs and expanded by the renderer.
var builtinQueries = map[string]string{
	"not_null": `SELECT * FROM @this_model WHERE @REDUCE(@EACH(@columns, c -> c IS NULL), (l, r) -> l OR r)`,

	"unique_values": `SELECT * FROM (SELECT @EACH(@columns, c -> ROW_NUMBER() OVER (PARTITION BY c ORDER BY c) AS @SQL('rank_' + c)) FROM @this_model) AS ranked WHERE @REDUCE(@EACH(@columns, c -> @SQL('rank_' + c) > 1), (l, r) -> l OR r)`,

	"accepted_values": `SELECT * FROM @this_model WHERE @column NOT IN @is_in`,

	"number_of_rows": `SELECT 1 FROM @this_model HAVING COUNT(*) < @threshold`,

	"forall": `SELECT * FROM @this_model WHERE @REDUCE(@EACH(@criteria, c -> NOT (c)), (l, r) -> l OR r)`,
}

// BuiltinAudits returns the predefined model audit library, keyed by
// lower-cased name. All builtins are blocking.
func BuiltinAudits(opts Options) map[string]*ModelAudit {
	audits := make(map[string]*ModelAudit, len(builtinQueries))
	for name, query := range builtinQueries {
		audit, err := NewModelAudit(Definition{
			Name:     name,
			Query:    sqlexpr.NewMacroQuery(query),
			Macros:   opts.Macros,
			Renderer: opts.Renderer,
		})
		if err != nil {
			// builtin definitions are static; construction cannot fail
			panic("builtin audit " + name + ": " + err.Error())
		}
		audits[strings.ToLower(name)] = audit
	}
	return audits
}

// IsBuiltin reports whether name refers to a predefined audit
func IsBuiltin(name string) bool {
	_, ok := builtinQueries[strings.ToLower(name)]
	return ok
}
