package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/model"
)

// JSONWriter outputs dashboard data in JSON format for scripts.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonListing adds the per-status counts to a Listing.
type jsonListing struct {
	*Listing
	Statuses []StatusCount `json:"statuses"`
}

// WriteListing implements Writer.
func (w *JSONWriter) WriteListing(l *Listing) (int, error) {
	rows := l.Rows
	if rows == nil {
		rows = []model.Report{}
	}
	copied := *l
	copied.Rows = rows
	return w.writeJSON(jsonListing{Listing: &copied, Statuses: l.StatusCounts()})
}

// WriteReport implements Writer.
func (w *JSONWriter) WriteReport(r *model.Report) (int, error) {
	return w.writeJSON(r)
}

// jsonCrawl is the JSON form of one crawl history row.
type jsonCrawl struct {
	Outcome     string        `json:"outcome"`
	Status      model.Status  `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	DurationMS  int64         `json:"duration_ms"`
	BrokenLinks int           `json:"broken_links"`
	Error       string        `json:"error,omitempty"`
	Report      *model.Report `json:"report,omitempty"`
}

// jsonHistory is the JSON form of the crawl history of one report.
type jsonHistory struct {
	ID     int64       `json:"ID"`
	Crawls []jsonCrawl `json:"crawls"`
}

// WriteHistory implements Writer.
func (w *JSONWriter) WriteHistory(id int64, records []database.CrawlRecord) (int, error) {
	h := jsonHistory{ID: id, Crawls: make([]jsonCrawl, len(records))}
	for i, rec := range records {
		h.Crawls[i] = jsonCrawl{
			Outcome:     rec.Outcome,
			Status:      rec.Status,
			StartedAt:   rec.StartedAt,
			DurationMS:  rec.Duration.Milliseconds(),
			BrokenLinks: rec.BrokenLinks,
			Error:       rec.Error,
			Report:      rec.Report,
		}
	}
	return w.writeJSON(h)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}
