package storage

import (
	"sort"
	"strings"
)

// FoldUnderscore replaces every '.' of a qualified name with '_'
func FoldUnderscore(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// FoldDot replaces every '.' with "_dot_"; names without a dot are unchanged
func FoldDot(name string) string {
	if !strings.Contains(name, ".") {
		return name
	}
	return strings.ReplaceAll(name, ".", "_dot_")
}

// AliasMap maps qualified source names (schema.table) to store-safe identifiers.
//
// Apply substitutes by plain substring replacement, keys in lexicographic order. A key
// that is a substring of another table name corrupts that name; Collisions reports such
// pairs but Apply does not guard against them.
type AliasMap struct {
	entries map[string]string
}

// NewAliasMap creates an empty alias map
func NewAliasMap() *AliasMap {
	return &AliasMap{entries: make(map[string]string)}
}

// Add registers original -> alias
func (m *AliasMap) Add(original, alias string) {
	m.entries[original] = alias
}

// Lookup returns the alias of original
func (m *AliasMap) Lookup(original string) (string, bool) {
	alias, ok := m.entries[original]
	return alias, ok
}

// Len returns the number of entries
func (m *AliasMap) Len() int {
	return len(m.entries)
}

// Keys returns the original names in lexicographic order
func (m *AliasMap) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply rewrites every occurrence of every original name in text with its alias
func (m *AliasMap) Apply(text string) string {
	if m == nil {
		return text
	}
	for _, original := range m.Keys() {
		alias := m.entries[original]
		if original == alias {
			continue
		}
		text = strings.ReplaceAll(text, original, alias)
	}
	return text
}

// Collision is a pair where Key occurs inside the distinct name Other
type Collision struct {
	Key   string
	Other string
}

// Collisions lists every rewriting key that occurs as a substring of another original
// name or alias. Identity entries never rewrite anything and are skipped.
func (m *AliasMap) Collisions() []Collision {
	keys := m.Keys()
	var names []string
	seen := make(map[string]bool)
	for _, k := range keys {
		for _, n := range []string{k, m.entries[k]} {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)

	var out []Collision
	for _, k := range keys {
		if m.entries[k] == k {
			continue
		}
		for _, n := range names {
			if n == k || n == m.entries[k] {
				continue
			}
			if strings.Contains(n, k) {
				out = append(out, Collision{Key: k, Other: n})
			}
		}
	}
	return out
}
