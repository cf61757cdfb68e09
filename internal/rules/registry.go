// Package rules holds the named rule sets that uploads are validated against.
//
// Schemas are registered at init time by the builtin package and may be
// extended at startup from YAML catalogs (see LoadDir).
package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

// ErrUnknownSchema is returned by Lookup for an unregistered key.
var ErrUnknownSchema = errors.New("unknown schema")

// Schema is a named, ordered rule set.
type Schema struct {
	Key         string // Unique identifier: "roster"
	Group       string // Display grouping: "Users", "Exams"
	Label       string // Display name: "Student roster"
	Description string
	Source      string // "builtin" or the catalog file it came from
	Rules       []validation.FieldRule
}

// Columns returns the rule names in order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		cols[i] = r.Name
	}
	return cols
}

// RequiredColumns returns the names of required rules in order.
func (s Schema) RequiredColumns() []string {
	var cols []string
	for _, r := range s.Rules {
		if r.Required {
			cols = append(cols, r.Name)
		}
	}
	return cols
}

var (
	registry   = make(map[string]Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if a schema with the same key is already registered.
func Register(s Schema) {
	if err := add(s); err != nil {
		panic(err.Error())
	}
}

func add(s Schema) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Key]; exists {
		return fmt.Errorf("schema already registered: %s", s.Key)
	}
	registry[s.Key] = s
	return nil
}

// Get returns a schema by key.
// Returns false if not found.
func Get(key string) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[key]
	return s, ok
}

// Lookup is like Get but returns an error wrapping ErrUnknownSchema.
func Lookup(key string) (Schema, error) {
	s, ok := Get(key)
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownSchema, key)
	}
	return s, nil
}

// All returns all registered schemas.
// Sorted by group then by key for consistent ordering.
func All() []Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, s := range registry {
		seen[s.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered schemas.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Schema)
}
