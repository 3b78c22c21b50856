package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/envctl/internal/toolchain"
)

// Variable is one materialized environment binding.
type Variable struct {
	Key   string
	Value string
}

// ResolvedCapability records where one capability's executables live.
type ResolvedCapability struct {
	ID     string
	Digest string
	BinDir string
}

// Environment is the materialized result of one composition. Equal
// requests produce equal Environments; ordering of Vars, Capabilities,
// and search-path entries is deterministic.
type Environment struct {
	Platform     string
	Vars         []Variable
	Path         string
	PrefixDir    string
	Capabilities []ResolvedCapability
	Toolchain    *toolchain.Resolved
}

// Lookup returns one override value.
func (e *Environment) Lookup(key string) (string, bool) {
	for _, v := range e.Vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// ExportLines renders the environment as shell export statements, one per
// override in sorted key order, with PATH last.
func (e *Environment) ExportLines() []string {
	lines := make([]string, 0, len(e.Vars)+1)
	for _, v := range e.Vars {
		lines = append(lines, fmt.Sprintf("export %s=%q", v.Key, v.Value))
	}
	lines = append(lines, fmt.Sprintf("export PATH=%q", e.Path))
	return lines
}

// Environ merges the composed bindings over a base process environment.
// Base ordering is preserved for untouched entries; overridden keys keep
// their base position; new keys are appended in sorted order.
func (e *Environment) Environ(base []string) []string {
	overrides := make(map[string]string, len(e.Vars)+1)
	for _, v := range e.Vars {
		overrides[v.Key] = v.Value
	}
	overrides["PATH"] = e.Path

	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if val, ok := overrides[key]; ok {
			out = append(out, key+"="+val)
			seen[key] = true
			continue
		}
		out = append(out, kv)
	}

	missing := make([]string, 0, len(overrides))
	for key := range overrides {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		out = append(out, key+"="+overrides[key])
	}
	return out
}

func sortedVars(overrides map[string]string) []Variable {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vars := make([]Variable, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, Variable{Key: k, Value: overrides[k]})
	}
	return vars
}
