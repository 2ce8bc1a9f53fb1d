package model

import "iter"

// Pair is a single key/value entry of a Header.
type Pair struct {
	Key   string
	Value any
}

// Header is ordered, multi-valued key/value metadata with a title.
// It is used for both the report and each of its sections.
//
// Keys are not unique. Insertion order is the display order, and entries are
// never removed once added.
type Header struct {
	// Title is shown as the heading of the report or section.
	Title string

	pairs []Pair
}

// NewHeader creates an empty header with the given title.
func NewHeader(title string) *Header {
	return &Header{Title: title}
}

// Add appends a key/value pair. Existing entries for key are kept.
func (h *Header) Add(key string, value any) {
	h.pairs = append(h.pairs, Pair{Key: key, Value: value})
}

// Get returns every value stored under key, in insertion order.
// The result is a new slice on each call and is empty when key is absent.
func (h *Header) Get(key string) []any {
	var values []any
	for _, p := range h.pairs {
		if p.Key == key {
			values = append(values, p.Value)
		}
	}
	return values
}

// All yields the pairs in insertion order.
func (h *Header) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, p := range h.pairs {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Pairs returns a copy of the pairs in insertion order.
func (h *Header) Pairs() []Pair {
	out := make([]Pair, len(h.pairs))
	copy(out, h.pairs)
	return out
}

// Len returns the number of pairs, counting repeated keys.
func (h *Header) Len() int {
	return len(h.pairs)
}

// ToMap projects the header onto a map. When a key was added more than once
// the last value wins, so the projection is lossy; use All or Pairs for
// the complete contents.
func (h *Header) ToMap() map[string]any {
	m := make(map[string]any, len(h.pairs))
	for _, p := range h.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// Collapsed is the ToMap projection as an ordered slice: one pair per key,
// positioned at the key's first occurrence and holding its last value.
func (h *Header) Collapsed() []Pair {
	index := make(map[string]int, len(h.pairs))
	var out []Pair
	for _, p := range h.pairs {
		if i, ok := index[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
