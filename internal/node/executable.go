package node

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutableKind orders code-environment artifacts for hashing
type ExecutableKind string

const (
	ExecutableKindDefinition ExecutableKind = "definition"
	ExecutableKindImport     ExecutableKind = "import"
	ExecutableKindValue      ExecutableKind = "value"
)

// Executable is an externally supplied code artifact needed to evaluate
// macros embedded in a query.
type Executable struct {
	Kind    ExecutableKind
	Payload string
}

// EnvEntry pairs an environment variable name with its executable
type EnvEntry struct {
	Name       string
	Executable Executable
}

// SortedEnv returns the environment ordered by (kind, name) ascending,
// the canonical order for hashing.
func SortedEnv(env map[string]Executable) []EnvEntry {
	entries := make([]EnvEntry, 0, len(env))
	for name, ex := range env {
		entries = append(entries, EnvEntry{Name: name, Executable: ex})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Executable.Kind != entries[j].Executable.Kind {
			return entries[i].Executable.Kind < entries[j].Executable.Kind
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// EnvString renders the sorted environment as a deterministic string
func EnvString(env map[string]Executable) string {
	entries := SortedEnv(env)
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("(%s, %s, %s)", e.Executable.Kind, e.Name, e.Executable.Payload)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
