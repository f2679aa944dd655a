package report

import (
	"io"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/model"
	"github.com/nao1215/crawldash/internal/view"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteListing outputs one page of the dashboard.
	// Returns the number of bytes written and any error encountered.
	WriteListing(l *Listing) (int, error)

	// WriteReport outputs the detail of one report.
	WriteReport(r *model.Report) (int, error)

	// WriteHistory outputs the crawl history of one report, newest first.
	WriteHistory(id int64, records []database.CrawlRecord) (int, error)
}

// Listing is one rendered page of the dashboard.
type Listing struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int            `json:"total_count"`
	TotalPages int            `json:"total_pages"`
	Filter     string         `json:"filter,omitempty"`
	SortKey    string         `json:"sort_key,omitempty"`
	SortDir    string         `json:"sort_dir,omitempty"`
	Rows       []model.Report `json:"urls"`
}

// NewListing builds a Listing from the cursor values, the projection inputs
// and the projected rows.
func NewListing(page, pageSize, totalCount int, filter string, sort view.Sort, rows []model.Report) *Listing {
	l := &Listing{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: model.TotalPages(totalCount, pageSize),
		Filter:     filter,
		Rows:       rows,
	}
	if sort.Key != "" {
		l.SortKey = sort.Key
		l.SortDir = sort.Dir.String()
	}
	return l
}

// StatusCounts returns the number of rows per status in lifecycle order.
// Statuses without rows are omitted.
func (l *Listing) StatusCounts() []StatusCount {
	counts := make(map[model.Status]int, len(model.Statuses))
	for _, r := range l.Rows {
		counts[r.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for _, st := range model.Statuses {
		if counts[st] > 0 {
			out = append(out, StatusCount{Status: st, Count: counts[st]})
		}
	}
	return out
}

// StatusCount is the number of rows in one status.
type StatusCount struct {
	Status model.Status `json:"status"`
	Count  int          `json:"count"`
}

var titleCaser = cases.Title(language.English)

var titleMu sync.Mutex

// StatusLabel returns the display name of a status, e.g. "Running".
func StatusLabel(st model.Status) string {
	if st == "" {
		return "-"
	}
	// A Caser keeps state between calls and is not safe for concurrent use.
	titleMu.Lock()
	defer titleMu.Unlock()
	return titleCaser.String(string(st))
}

// MultiWriter writes to multiple Writers in order and stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteListing implements Writer.
func (m *MultiWriter) WriteListing(l *Listing) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteListing(l) })
}

// WriteReport implements Writer.
func (m *MultiWriter) WriteReport(r *model.Report) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteReport(r) })
}

// WriteHistory implements Writer.
func (m *MultiWriter) WriteHistory(id int64, records []database.CrawlRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(id, records) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// orDash returns s, or "-" if s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// yesNo renders a boolean for humans.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
