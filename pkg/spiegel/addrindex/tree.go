// Package addrindex maps address ranges discovered while walking DWARF
// info (a subprogram's [low_pc, high_pc) span, a lexical block's
// DW_AT_ranges list, ...) back to whatever the introspection layer wants to
// associate with them — almost always a dwarf.Reference.
package addrindex

import "sort"

// Range is a half-open address interval [Lo, Hi).
type Range struct {
	Lo, Hi uint64
}

// Contains reports whether addr falls within the range.
func (r Range) Contains(addr uint64) bool {
	return addr >= r.Lo && addr < r.Hi
}

// Equal reports whether two ranges have identical bounds.
func (r Range) Equal(o Range) bool {
	return r.Lo == o.Lo && r.Hi == o.Hi
}

// Len returns the range's width in addresses.
func (r Range) Len() uint64 {
	if r.Hi <= r.Lo {
		return 0
	}
	return r.Hi - r.Lo
}

type entry[V any] struct {
	rng   Range
	value V
}

// Tree is a sorted list of possibly-overlapping address ranges, each
// carrying an associated value. It is not a balanced interval tree:
// DWARF address spans for a single object rarely number more than a few
// thousand, so a Lo-sorted slice with a binary-search entry point keeps the
// implementation simple without a meaningful performance cost at that
// scale.
type Tree[V any] struct {
	entries []entry[V]
}

// New returns an empty Tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

// Len returns the number of distinct ranges held.
func (t *Tree[V]) Len() int { return len(t.entries) }

// Insert adds rng -> value. Overlapping ranges are permitted and are kept
// independently; inserting a range identical to one already present is a
// no-op (the first insertion for a given range wins — later redundant
// declarations of the same span, e.g. a duplicate DW_AT_ranges entry,
// should not shadow it).
func (t *Tree[V]) Insert(rng Range, value V) {
	i := t.lowerBound(rng.Lo)
	for j := i; j < len(t.entries) && t.entries[j].rng.Lo == rng.Lo; j++ {
		if t.entries[j].rng.Equal(rng) {
			return
		}
	}
	e := entry[V]{rng: rng, value: value}
	t.entries = append(t.entries, entry[V]{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
}

// lowerBound returns the index of the first entry whose Lo is >= addr.
func (t *Tree[V]) lowerBound(addr uint64) int {
	return sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].rng.Lo >= addr
	})
}

// Find returns the narrowest range containing addr, i.e. the best match
// for "which function/lexical block/compile unit owns this address" when
// ranges nest (a lexical block inside a function inside a compile unit).
func (t *Tree[V]) Find(addr uint64) (V, bool) {
	var best *entry[V]
	// Every range that could contain addr starts at or before addr, so
	// scanning the Lo-sorted prefix up to the first Lo > addr is exhaustive.
	end := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].rng.Lo > addr
	})
	for i := 0; i < end; i++ {
		e := &t.entries[i]
		if !e.rng.Contains(addr) {
			continue
		}
		if best == nil || e.rng.Len() < best.rng.Len() {
			best = e
		}
	}
	if best == nil {
		var zero V
		return zero, false
	}
	return best.value, true
}

// FindAll returns every range containing addr, narrowest first — the same
// "most specific match wins" order Find uses to pick its single result.
func (t *Tree[V]) FindAll(addr uint64) []V {
	end := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].rng.Lo > addr
	})
	var matches []entry[V]
	for i := 0; i < end; i++ {
		if t.entries[i].rng.Contains(addr) {
			matches = append(matches, t.entries[i])
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].rng.Len() < matches[j].rng.Len()
	})
	values := make([]V, len(matches))
	for i, m := range matches {
		values[i] = m.value
	}
	return values
}
