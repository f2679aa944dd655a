package store

import (
	"sync"

	"github.com/nao1215/crawldash/internal/model"
)

// ChangeFunc is called after every mutation that changed the store.
// It runs outside the store lock and may read the store.
type ChangeFunc func(version uint64)

// Store is a concurrency-safe holder for the current page of reports.
type Store struct {
	mu       sync.RWMutex
	reports  []model.Report
	index    map[int64]int
	version  uint64
	onChange ChangeFunc
}

// Option configures a Store.
type Option func(*Store)

// WithChangeFunc registers a function called after each mutation.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{index: make(map[int64]int)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplacePage discards the current reports and stores the given ones in order.
// Reports from the previous page that are not in the new one become
// unobservable.
func (s *Store) ReplacePage(reports []model.Report) {
	s.mu.Lock()
	s.reports = make([]model.Report, len(reports))
	s.index = make(map[int64]int, len(reports))
	for i, r := range reports {
		s.reports[i] = normalize(r)
		s.index[r.ID] = i
	}
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
}

// MergeOne replaces the report with the same id in place, keeping its
// position. It reports whether the id was present; a report for an id not on
// the current page is ignored.
func (s *Store) MergeOne(r model.Report) bool {
	s.mu.Lock()
	i, ok := s.index[r.ID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.reports[i] = normalize(r)
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return true
}

// SetStatus sets the status of the report with the given id.
// It reports whether the id was present. Unknown statuses are stored as
// pending.
func (s *Store) SetStatus(id int64, status model.Status) bool {
	if !status.Valid() {
		status = model.StatusPending
	}

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.reports[i].Status == status {
		s.mu.Unlock()
		return true
	}
	s.reports[i].Status = status
	v := s.bumpLocked()
	s.mu.Unlock()

	s.notify(v)
	return true
}

// Get returns a copy of the report with the given id.
func (s *Store) Get(id int64) (model.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Report{}, false
	}
	return s.reports[i].Clone(), true
}

// Status returns the status of the report with the given id.
func (s *Store) Status(id int64) (model.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return "", false
	}
	return s.reports[i].Status, true
}

// Snapshot returns a copy of the current reports in page order along with the
// version they belong to.
func (s *Store) Snapshot() ([]model.Report, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Report, len(s.reports))
	for i, r := range s.reports {
		out[i] = r.Clone()
	}
	return out, s.version
}

// IDs returns the ids of the current reports in page order.
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, len(s.reports))
	for i, r := range s.reports {
		ids[i] = r.ID
	}
	return ids
}

// Len returns the number of reports on the current page.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Version returns a number that changes on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// normalize copies r and forces its status into the status set.
func normalize(r model.Report) model.Report {
	r = r.Clone()
	if !r.Status.Valid() {
		r.Status = model.StatusPending
	}
	return r
}

func (s *Store) bumpLocked() uint64 {
	s.version++
	return s.version
}

func (s *Store) notify(v uint64) {
	if s.onChange != nil {
		s.onChange(v)
	}
}
