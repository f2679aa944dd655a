package selection

import (
	"slices"
	"sync"
)

// Set is a concurrency-safe set of selected report ids.
// Members are expected to be a subset of the ids on the visible page; call
// Retain after the page changes to drop the rest.
type Set struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// New creates an empty selection.
func New() *Set {
	return &Set{ids: make(map[int64]struct{})}
}

// Toggle adds id if it is absent and removes it otherwise.
// It reports whether id is selected afterwards.
func (s *Set) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll selects exactly the given visible ids, or clears the selection if
// all of them are already selected. Calling it twice in a row without a page
// change returns to the empty selection.
func (s *Set) SelectAll(visible []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allSelectedLocked(visible) {
		clear(s.ids)
		return
	}
	clear(s.ids)
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// IsAllSelected reports whether the selection has exactly as many members as
// the visible page and that page is not empty.
func (s *Set) IsAllSelected(visible []int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allSelectedLocked(visible)
}

func (s *Set) allSelectedLocked(visible []int64) bool {
	if len(visible) == 0 || len(s.ids) != len(visible) {
		return false
	}
	for _, id := range visible {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether id is selected.
func (s *Set) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Retain drops every selected id that is not in visible.
// It returns the number of dropped ids.
func (s *Set) Retain(visible []int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	dropped := 0
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
			dropped++
		}
	}
	return dropped
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Set) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
