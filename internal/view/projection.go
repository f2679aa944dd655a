package view

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/nao1215/crawldash/internal/model"
)

// Direction is the sort direction.
type Direction int

const (
	// Asc sorts smallest first.
	Asc Direction = iota
	// Desc sorts largest first.
	Desc
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc" or "desc". Anything else is Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, "desc") {
		return Desc
	}
	return Asc
}

// Sort is a sort specification. The zero value keeps page order.
type Sort struct {
	Key string
	Dir Direction
}

// Toggle returns the specification after the user picked key: the same key
// flips the direction, a new key starts ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key {
		if s.Dir == Asc {
			return Sort{Key: key, Dir: Desc}
		}
		return Sort{Key: key, Dir: Asc}
	}
	return Sort{Key: key, Dir: Asc}
}

// Filter returns the reports whose URL or title contains needle, ignoring case.
// An empty needle keeps every report.
func Filter(reports []model.Report, needle string) []model.Report {
	n := strings.ToLower(needle)
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if n == "" ||
			strings.Contains(strings.ToLower(r.URL), n) ||
			strings.Contains(strings.ToLower(r.Title), n) {
			out = append(out, r)
		}
	}
	return out
}

// SortReports sorts reports in place, stably, by the given specification.
// An empty or unknown key leaves the order unchanged.
func SortReports(reports []model.Report, spec Sort) {
	col, ok := ColumnByKey(spec.Key)
	if !ok {
		return
	}
	slices.SortStableFunc(reports, func(a, b model.Report) int {
		var c int
		if col.Numeric {
			c = cmp.Compare(col.Number(a), col.Number(b))
		} else {
			c = strings.Compare(col.Text(a), col.Text(b))
		}
		if spec.Dir == Desc {
			return -c
		}
		return c
	})
}

// Project filters reports by needle and sorts the result by spec.
// The input slice is not modified.
func Project(reports []model.Report, needle string, spec Sort) []model.Report {
	rows := Filter(reports, needle)
	SortReports(rows, spec)
	return rows
}

// Source is the read side of a report store.
type Source interface {
	Snapshot() ([]model.Report, uint64)
	Version() uint64
}

// Projector memoizes Project over a Source.
type Projector struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	needle  string
	spec    Sort
	rows    []model.Report
	misses  int
}

// NewProjector creates an empty Projector.
func NewProjector() *Projector {
	return &Projector{}
}

// Rows returns the projection of src. The result is recomputed only when the
// source version, needle or spec differs from the previous call.
func (p *Projector) Rows(src Source, needle string, spec Sort) []model.Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.valid && p.version == src.Version() && p.needle == needle && p.spec == spec {
		return slices.Clone(p.rows)
	}

	reports, version := src.Snapshot()
	p.rows = Project(reports, needle, spec)
	p.version = version
	p.needle = needle
	p.spec = spec
	p.valid = true
	p.misses++
	return slices.Clone(p.rows)
}

// Computations returns how many times the projection was recomputed.
func (p *Projector) Computations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.misses
}
