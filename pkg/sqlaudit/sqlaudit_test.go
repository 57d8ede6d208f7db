package sqlaudit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/sqlaudit/internal/sqlexpr"
)

func passthrough() QueryRenderer {
	return RendererFunc(func(in RenderInputs, _ RenderContext) (Expression, error) {
		return in.Query, nil
	})
}

func TestLoadThroughFacade(t *testing.T) {
	statements := []Expression{
		sqlexpr.NewAuditHeader(&sqlexpr.Property{Name: "name", Value: sqlexpr.Str("orders_not_null")}),
		sqlexpr.ParsedSelect("SELECT * FROM orders WHERE id IS NULL"),
	}

	audit, err := Load(VariantModel, Options{Renderer: passthrough()}, statements, "audits/orders.sql", "")
	require.NoError(t, err)
	assert.Equal(t, "orders_not_null", audit.Name())
	assert.True(t, audit.Blocking())
}

func TestApplyProjectConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"dialect: Snowflake\nskip:\n  - Orders_Not_Null\nnon_blocking:\n  - soft_check\n"), 0o644))

	cfg, err := LoadProjectConfig(path)
	require.NoError(t, err)

	opts, dialect := ApplyProjectConfig(cfg, Options{Renderer: passthrough()})
	assert.Equal(t, Dialect("snowflake"), dialect)
	assert.True(t, opts.ForceSkip["orders_not_null"])
	assert.True(t, opts.ForceNonBlocking["soft_check"])

	statements := []Expression{
		sqlexpr.NewAuditHeader(&sqlexpr.Property{Name: "name", Value: sqlexpr.Str("orders_not_null")}),
		sqlexpr.ParsedSelect("SELECT 1"),
	}

	audit, err := NewLoader(VariantModel, opts).Load(statements, "audits/orders.sql", dialect)
	require.NoError(t, err)
	assert.True(t, audit.Skip())
	assert.Equal(t, Dialect("snowflake"), audit.Dialect())
}
