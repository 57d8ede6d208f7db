package audit

import "sort"

// FieldSchema declares the required and optional header fields for an
// audit variant. A parsed definition block is validated against it
// before construction.
type FieldSchema struct {
	required map[string]struct{}
	optional map[string]struct{}
}

// NewFieldSchema builds a schema from required and optional field names
func NewFieldSchema(required, optional []string) FieldSchema {
	s := FieldSchema{
		required: make(map[string]struct{}, len(required)),
		optional: make(map[string]struct{}, len(optional)),
	}
	for _, f := range required {
		s.required[f] = struct{}{}
	}
	for _, f := range optional {
		s.optional[f] = struct{}{}
	}
	return s
}

// MissingRequired returns required − provided, sorted
func (s FieldSchema) MissingRequired(provided map[string]struct{}) []string {
	var missing []string
	for f := range s.required {
		if _, ok := provided[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return missing
}

// ExtraUnknown returns provided − (required ∪ optional), sorted
func (s FieldSchema) ExtraUnknown(provided map[string]struct{}) []string {
	var extra []string
	for f := range provided {
		if _, ok := s.required[f]; ok {
			continue
		}
		if _, ok := s.optional[f]; ok {
			continue
		}
		extra = append(extra, f)
	}
	sort.Strings(extra)
	return extra
}

var modelAuditSchema = NewFieldSchema(
	[]string{"name", "query"},
	[]string{"dialect", "skip", "blocking", "defaults"},
)

var standaloneAuditSchema = NewFieldSchema(
	[]string{"name", "query"},
	[]string{
		"dialect", "skip", "blocking", "defaults",
		"owner", "description", "tags", "stamp",
		"depends_on", "hash_raw_query",
	},
)
