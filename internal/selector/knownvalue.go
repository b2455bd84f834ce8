package selector

import "cmp"

// KnownValues ranks values by their position in a reference list. Values
// not in the list share the position of the first wildcard entry, or the
// position after the last entry if the list has no wildcard.
type KnownValues[T comparable] struct {
	positions   map[T]int
	wildcardPos int
	hasWildcard bool
}

// NewKnownValues builds a ranking from values. Only the first occurrence of
// a value or of the wildcard counts.
func NewKnownValues[T comparable](values []T, wildcard T) *KnownValues[T] {
	k := &KnownValues[T]{
		positions:   make(map[T]int, len(values)),
		wildcardPos: len(values),
	}
	for i, v := range values {
		if v == wildcard {
			if !k.hasWildcard {
				k.hasWildcard = true
				k.wildcardPos = i
			}
			continue
		}
		if _, ok := k.positions[v]; !ok {
			k.positions[v] = i
		}
	}
	return k
}

// Rank returns the position of v. Lower ranks come first in the list.
func (k *KnownValues[T]) Rank(v T) int {
	if pos, ok := k.positions[v]; ok {
		return pos
	}
	return k.wildcardPos
}

// Known reports whether v is explicitly listed.
func (k *KnownValues[T]) Known(v T) bool {
	_, ok := k.positions[v]
	return ok
}

// HasWildcard reports whether the list contains the wildcard.
func (k *KnownValues[T]) HasWildcard() bool { return k.hasWildcard }

// Compare orders a before b when a is listed earlier.
func (k *KnownValues[T]) Compare(a, b T) int {
	return cmp.Compare(k.Rank(a), k.Rank(b))
}
