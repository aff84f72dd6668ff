// ABOUTME: Insertion-ordered string set
// ABOUTME: Keeps a sequence plus a membership index so iteration order is stable
package models

// OrderedSet is a set of strings that remembers insertion order.
type OrderedSet struct {
	items []string
	index map[string]int
}

// NewOrderedSet creates a set seeded with items in order.
func NewOrderedSet(items ...string) *OrderedSet {
	s := &OrderedSet{index: make(map[string]int)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item and reports whether it was new.
func (s *OrderedSet) Add(item string) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Contains reports membership.
func (s *OrderedSet) Contains(item string) bool {
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items.
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
