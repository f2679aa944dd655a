package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/model"
)

// SimpleWriter outputs human-readable text for terminal display.
// Tables are drawn with plain box characters and no colors, so the output
// can be piped to files.
type SimpleWriter struct {
	baseWriter

	// verbose adds heading counts and timestamps to listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional columns.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteListing implements Writer.
func (w *SimpleWriter) WriteListing(l *Listing) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Page %d/%d (%d URLs, %d per page)\n", l.Page, l.TotalPages, l.TotalCount, l.PageSize)
	if l.Filter != "" {
		fmt.Fprintf(&sb, "Filter: %q\n", l.Filter)
	}
	if l.SortKey != "" {
		fmt.Fprintf(&sb, "Sort:   %s %s\n", l.SortKey, l.SortDir)
	}
	sb.WriteString("\n")

	if len(l.Rows) == 0 {
		sb.WriteString("No URLs found.\n")
		return io.WriteString(w.output, sb.String())
	}

	headers := []string{"ID", "Status", "URL", "Title", "HTML", "Internal", "External", "Broken", "Login", "Action"}
	if w.verbose {
		headers = append(headers, "H1-H6", "Created")
	}

	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for _, r := range l.Rows {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			StatusLabel(r.Status),
			truncateString(r.URL, 48),
			truncateString(orDash(r.Title), 32),
			orDash(r.HTMLVersion),
			strconv.Itoa(r.InternalLinks),
			strconv.Itoa(r.ExternalLinks),
			strconv.Itoa(r.BrokenLinks),
			yesNo(r.HasLoginForm),
			model.ActionFor(r.Status).Label,
		}
		if w.verbose {
			row = append(row, headingSummary(r), formatTime(r.CreatedAt))
		}
		t.Row(row...)
	}
	sb.WriteString(t.String())
	sb.WriteString("\n")

	if counts := l.StatusCounts(); len(counts) > 0 {
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = fmt.Sprintf("%s: %d", StatusLabel(c.Status), c.Count)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(parts, "  "))
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteReport implements Writer.
func (w *SimpleWriter) WriteReport(r *model.Report) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "URL #%d\n", r.ID)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "URL:          %s\n", r.URL)
	fmt.Fprintf(&sb, "Title:        %s\n", orDash(r.Title))
	fmt.Fprintf(&sb, "Status:       %s\n", StatusLabel(r.Status))
	fmt.Fprintf(&sb, "HTML Version: %s\n", orDash(r.HTMLVersion))
	fmt.Fprintf(&sb, "Login Form:   %s\n", yesNo(r.HasLoginForm))
	fmt.Fprintf(&sb, "Created:      %s\n", formatTime(r.CreatedAt))
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nHEADINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	for i, n := range r.Headings() {
		fmt.Fprintf(&sb, "  H%d: %d\n", i+1, n)
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nLINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  Internal: %d\n", r.InternalLinks)
	fmt.Fprintf(&sb, "  External: %d\n", r.ExternalLinks)
	fmt.Fprintf(&sb, "  Broken:   %d\n", r.BrokenLinks)
	sb.WriteString("\n")

	if len(r.BrokenLinkDetails) > 0 {
		sb.WriteString("Broken links:\n")
		for _, b := range r.BrokenLinkDetails {
			if b.StatusCode != 0 {
				fmt.Fprintf(&sb, "  [%d] %s\n", b.StatusCode, b.Link)
			} else {
				fmt.Fprintf(&sb, "  [---] %s\n", b.Link)
			}
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteHistory implements Writer.
func (w *SimpleWriter) WriteHistory(id int64, records []database.CrawlRecord) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Crawl history of URL #%d\n\n", id)
	if len(records) == 0 {
		sb.WriteString("No crawls recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	t := table.New().Border(lipgloss.NormalBorder()).
		Headers("Started", "Outcome", "Status", "Duration", "Broken", "Error")
	for _, rec := range records {
		t.Row(
			formatTime(rec.StartedAt),
			rec.Outcome,
			StatusLabel(rec.Status),
			rec.Duration.Round(time.Millisecond).String(),
			strconv.Itoa(rec.BrokenLinks),
			truncateString(orDash(rec.Error), 48),
		)
	}
	sb.WriteString(t.String())
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func headingSummary(r model.Report) string {
	h := r.Headings()
	parts := make([]string, len(h))
	for i, n := range h {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "/")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
