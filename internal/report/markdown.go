package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/model"
)

// MarkdownWriter outputs dashboard data in Markdown format for sharing.
// Listings and report details carry mermaid pie charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteListing implements Writer.
func (w *MarkdownWriter) WriteListing(l *Listing) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("crawldash URLs")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   w.listingProperties(l),
	})
	md.PlainText("")

	md.H2("URLs")
	md.PlainText("")
	if len(l.Rows) == 0 {
		md.PlainText("No URLs found.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(l.Rows))
		for i, r := range l.Rows {
			rows[i] = []string{
				strconv.FormatInt(r.ID, 10),
				StatusLabel(r.Status),
				"`" + truncateString(r.URL, 60) + "`",
				truncateString(orDash(r.Title), 40),
				orDash(r.HTMLVersion),
				strconv.Itoa(r.InternalLinks),
				strconv.Itoa(r.ExternalLinks),
				strconv.Itoa(r.BrokenLinks),
				yesNo(r.HasLoginForm),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "Status", "URL", "Title", "HTML", "Internal", "External", "Broken", "Login"},
			Rows:   rows,
		})
		md.PlainText("")
		w.writeStatusChart(md, l)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) listingProperties(l *Listing) [][]string {
	rows := [][]string{
		{"Page", fmt.Sprintf("%d / %d", l.Page, l.TotalPages)},
		{"Page Size", strconv.Itoa(l.PageSize)},
		{"Total URLs", strconv.Itoa(l.TotalCount)},
	}
	if l.Filter != "" {
		rows = append(rows, []string{"Filter", "`" + l.Filter + "`"})
	}
	if l.SortKey != "" {
		rows = append(rows, []string{"Sort", l.SortKey + " " + l.SortDir})
	}
	return rows
}

// writeStatusChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writeStatusChart(md *markdown.Markdown, l *Listing) {
	counts := l.StatusCounts()
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Status Distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(StatusLabel(c.Status), uint64(c.Count))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	failed := 0
	for _, c := range counts {
		if c.Status == model.StatusError {
			failed = c.Count
		}
	}
	if failed > 0 {
		md.Warningf("%d URL(s) on this page failed their last analysis.", failed)
		md.PlainText("")
	}
}

// WriteReport implements Writer.
func (w *MarkdownWriter) WriteReport(r *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(fmt.Sprintf("URL #%d", r.ID))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + r.URL + "`"},
			{"Title", orDash(r.Title)},
			{"Status", StatusLabel(r.Status)},
			{"HTML Version", orDash(r.HTMLVersion)},
			{"Login Form", yesNo(r.HasLoginForm)},
			{"Created", formatTime(r.CreatedAt)},
		},
	})
	md.PlainText("")

	md.H2("Headings")
	md.PlainText("")
	h := r.Headings()
	headingRow := make([]string, len(h))
	for i, n := range h {
		headingRow[i] = strconv.Itoa(n)
	}
	md.Table(markdown.TableSet{
		Header: []string{"H1", "H2", "H3", "H4", "H5", "H6"},
		Rows:   [][]string{headingRow},
	})
	md.PlainText("")

	md.H2("Links")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{"Internal", strconv.Itoa(r.InternalLinks)},
			{"External", strconv.Itoa(r.ExternalLinks)},
			{"Broken", strconv.Itoa(r.BrokenLinks)},
		},
	})
	md.PlainText("")
	w.writeLinkChart(md, r)
	w.writeBrokenLinks(md, r)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeLinkChart writes a mermaid pie chart of the link distribution.
func (w *MarkdownWriter) writeLinkChart(md *markdown.Markdown, r *model.Report) {
	if r.InternalLinks+r.ExternalLinks+r.BrokenLinks == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Distribution"),
		piechart.WithShowData(true),
	)
	if r.InternalLinks > 0 {
		chart.LabelAndIntValue("Internal", uint64(r.InternalLinks))
	}
	if r.ExternalLinks > 0 {
		chart.LabelAndIntValue("External", uint64(r.ExternalLinks))
	}
	if r.BrokenLinks > 0 {
		chart.LabelAndIntValue("Broken", uint64(r.BrokenLinks))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, r *model.Report) {
	if len(r.BrokenLinkDetails) == 0 {
		if r.BrokenLinks == 0 {
			md.Tip("No broken links found.")
			md.PlainText("")
		}
		return
	}

	md.H2("Broken Links")
	md.PlainText("")
	rows := make([][]string, len(r.BrokenLinkDetails))
	for i, b := range r.BrokenLinkDetails {
		code := "-"
		if b.StatusCode != 0 {
			code = strconv.Itoa(b.StatusCode)
		}
		rows[i] = []string{"`" + truncateString(b.Link, 80) + "`", code}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Link", "Status Code"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteHistory implements Writer.
func (w *MarkdownWriter) WriteHistory(id int64, records []database.CrawlRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(fmt.Sprintf("Crawl History of URL #%d", id))
	md.PlainText("")

	if len(records) == 0 {
		md.Note("No crawls recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = []string{
				formatTime(rec.StartedAt),
				rec.Outcome,
				StatusLabel(rec.Status),
				rec.Duration.String(),
				strconv.Itoa(rec.BrokenLinks),
				truncateString(orDash(rec.Error), 60),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Started", "Outcome", "Status", "Duration", "Broken", "Error"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeFooter writes the document footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [crawldash](https://github.com/nao1215/crawldash)*")
}
