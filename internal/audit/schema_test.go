package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func provided(fields ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func TestFieldSchemaSetAlgebra(t *testing.T) {
	schema := NewFieldSchema(
		[]string{"name", "query"},
		[]string{"dialect", "blocking"},
	)

	tests := []struct {
		name        string
		provided    map[string]struct{}
		wantMissing []string
		wantExtra   []string
	}{
		{
			name:     "all required provided",
			provided: provided("name", "query"),
		},
		{
			name:        "nothing provided",
			provided:    provided(),
			wantMissing: []string{"name", "query"},
		},
		{
			name:        "one required missing",
			provided:    provided("query", "dialect"),
			wantMissing: []string{"name"},
		},
		{
			name:      "unknown field",
			provided:  provided("name", "query", "threshold"),
			wantExtra: []string{"threshold"},
		},
		{
			name:        "missing and extra at once",
			provided:    provided("query", "owner", "cron"),
			wantMissing: []string{"name"},
			wantExtra:   []string{"cron", "owner"},
		},
		{
			name:     "optional fields are never extra",
			provided: provided("name", "query", "dialect", "blocking"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMissing, schema.MissingRequired(tt.provided))
			assert.Equal(t, tt.wantExtra, schema.ExtraUnknown(tt.provided))
		})
	}
}

func TestFieldSchemaSetIdentities(t *testing.T) {
	schema := NewFieldSchema([]string{"name", "query"}, []string{"dialect", "skip", "blocking", "defaults"})

	// exhaustive over the schema's own field universe: a provided set
	// drawn from required ∪ optional is never missing optional fields
	// and never has extras
	full := provided("name", "query", "dialect", "skip", "blocking", "defaults")
	assert.Empty(t, schema.MissingRequired(full))
	assert.Empty(t, schema.ExtraUnknown(full))

	// required fields are not reported as extra even when optional is empty
	bare := NewFieldSchema([]string{"name"}, nil)
	assert.Empty(t, bare.ExtraUnknown(provided("name")))
}

func TestStandaloneSchemaSupersetOfModelSchema(t *testing.T) {
	modelFields := provided("name", "query", "dialect", "skip", "blocking", "defaults")

	assert.Empty(t, standaloneAuditSchema.MissingRequired(modelFields))
	assert.Empty(t, standaloneAuditSchema.ExtraUnknown(modelFields))

	// standalone-only fields are unknown to the model schema
	assert.Equal(t, []string{"depends_on", "owner"},
		modelAuditSchema.ExtraUnknown(provided("name", "query", "owner", "depends_on")))
}
