package view

import (
	"strconv"
	"time"

	"github.com/nao1215/crawldash/internal/model"
)

// Column describes one sortable field of a report.
type Column struct {
	// Key is the identifier used in sort specifications and on the command line.
	Key string

	// Title is the header text.
	Title string

	// Numeric columns compare by Number, the rest by Text.
	Numeric bool

	number func(model.Report) int64
	text   func(model.Report) string
}

// Number returns the numeric value of the column for r.
// It is zero for non-numeric columns.
func (c Column) Number(r model.Report) int64 {
	if c.number == nil {
		return 0
	}
	return c.number(r)
}

// Text returns the column value of r coerced to text.
func (c Column) Text(r model.Report) string {
	if c.text != nil {
		return c.text(r)
	}
	return strconv.FormatInt(c.Number(r), 10)
}

func intColumn(key, title string, fn func(model.Report) int) Column {
	return Column{
		Key:     key,
		Title:   title,
		Numeric: true,
		number:  func(r model.Report) int64 { return int64(fn(r)) },
	}
}

func textColumn(key, title string, fn func(model.Report) string) Column {
	return Column{Key: key, Title: title, text: fn}
}

// Columns lists the report columns in display order.
var Columns = []Column{
	{
		Key: "id", Title: "ID", Numeric: true,
		number: func(r model.Report) int64 { return r.ID },
	},
	textColumn("url", "URL", func(r model.Report) string { return r.URL }),
	textColumn("title", "Title", func(r model.Report) string { return r.Title }),
	textColumn("status", "Status", func(r model.Report) string { return r.Status.String() }),
	textColumn("html_version", "HTML", func(r model.Report) string { return r.HTMLVersion }),
	intColumn("h1_count", "H1", func(r model.Report) int { return r.H1Count }),
	intColumn("h2_count", "H2", func(r model.Report) int { return r.H2Count }),
	intColumn("h3_count", "H3", func(r model.Report) int { return r.H3Count }),
	intColumn("h4_count", "H4", func(r model.Report) int { return r.H4Count }),
	intColumn("h5_count", "H5", func(r model.Report) int { return r.H5Count }),
	intColumn("h6_count", "H6", func(r model.Report) int { return r.H6Count }),
	intColumn("internal_links", "Internal", func(r model.Report) int { return r.InternalLinks }),
	intColumn("external_links", "External", func(r model.Report) int { return r.ExternalLinks }),
	intColumn("broken_links", "Broken", func(r model.Report) int { return r.BrokenLinks }),
	textColumn("has_login_form", "Login", func(r model.Report) string { return strconv.FormatBool(r.HasLoginForm) }),
	textColumn("created_at", "Created", func(r model.Report) string { return r.CreatedAt.UTC().Format(time.RFC3339) }),
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c.Key] = i
	}
	return m
}()

// ColumnByKey returns the column with the given key.
func ColumnByKey(key string) (Column, bool) {
	i, ok := columnIndex[key]
	if !ok {
		return Column{}, false
	}
	return Columns[i], true
}

// ColumnKeys returns the keys of all columns in display order.
func ColumnKeys() []string {
	keys := make([]string, len(Columns))
	for i, c := range Columns {
		keys[i] = c.Key
	}
	return keys
}
