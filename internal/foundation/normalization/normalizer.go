// Package normalization maps loosely formatted user input onto typed enums.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer maps case-insensitive, whitespace-trimmed strings to enum values.
type Normalizer[T comparable] struct {
	values map[string]T
	keys   []string
}

// NewNormalizer creates a normalizer from accepted spellings. Several
// spellings may map to the same value.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the value for raw, or false when raw is not accepted.
func (n *Normalizer[T]) Normalize(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// ValidKeys returns the accepted spellings, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
