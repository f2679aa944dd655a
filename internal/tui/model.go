package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/dashboard"
	"github.com/nao1215/crawldash/internal/model"
	"github.com/nao1215/crawldash/internal/report"
	"github.com/nao1215/crawldash/internal/view"
)

// mode is what the keyboard currently drives.
type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeAdd
	modeConfirmDelete
	modeDetail
)

// Messages produced by commands.
type (
	refreshedMsg struct{ err error }
	pageMsg      struct {
		changed bool
		err     error
	}
	deletedMsg struct {
		count int
		err   error
	}
	addedMsg struct {
		report model.Report
		err    error
	}
	detailMsg struct {
		report model.Report
		err    error
	}
)

// column is one column of the URL table.
type column struct {
	key   string // sort key, empty if not sortable
	title string
	width int
	value func(m *Model, r model.Report) string
}

var columns = []column{
	{key: "", title: "Sel", width: 3, value: func(m *Model, r model.Report) string {
		if m.dash.IsSelected(r.ID) {
			return "[x]"
		}
		return "[ ]"
	}},
	{key: "id", title: "ID", width: 5, value: func(_ *Model, r model.Report) string { return strconv.FormatInt(r.ID, 10) }},
	{key: "status", title: "Status", width: 9, value: func(_ *Model, r model.Report) string { return report.StatusLabel(r.Status) }},
	{key: "url", title: "URL", width: 36, value: func(_ *Model, r model.Report) string { return r.URL }},
	{key: "title", title: "Title", width: 24, value: func(_ *Model, r model.Report) string { return r.Title }},
	{key: "html_version", title: "HTML", width: 8, value: func(_ *Model, r model.Report) string { return r.HTMLVersion }},
	{key: "internal_links", title: "Int", width: 5, value: func(_ *Model, r model.Report) string { return strconv.Itoa(r.InternalLinks) }},
	{key: "external_links", title: "Ext", width: 5, value: func(_ *Model, r model.Report) string { return strconv.Itoa(r.ExternalLinks) }},
	{key: "broken_links", title: "Broken", width: 6, value: func(_ *Model, r model.Report) string { return strconv.Itoa(r.BrokenLinks) }},
	{key: "has_login_form", title: "Login", width: 5, value: func(_ *Model, r model.Report) string {
		if r.HasLoginForm {
			return "yes"
		}
		return "no"
	}},
	{key: "", title: "Action", width: 9, value: func(m *Model, r model.Report) string {
		a := m.dash.Action(r.ID)
		if a.Disabled {
			return "(" + a.Label + ")"
		}
		return a.Label
	}},
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	dash   *dashboard.Dashboard
	events *Events

	keys  keyMap
	help  help.Model
	table table.Model
	input textinput.Model

	mode    mode
	rows    []model.Report
	detail  *model.Report
	flash   string
	err     error
	alert   string
	loading bool
	width   int
	height  int
}

// New creates a Model. ctx bounds every request and crawl started from the
// UI. events must be the Events wired into d.
func New(ctx context.Context, d *dashboard.Dashboard, events *Events) *Model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())

	ti := textinput.New()
	ti.CharLimit = 2048

	m := &Model{
		ctx:     ctx,
		dash:    d,
		events:  events,
		keys:    defaultKeyMap(),
		help:    help.New(),
		table:   t,
		input:   ti,
		loading: true,
	}
	m.syncRows()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.events.wait())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(3, msg.Height-8))
		m.table.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.input.Width = max(20, msg.Width-12)
		return m, nil

	case settledMsg:
		if text := settledText(msg.settlement); text != "" {
			m.flash = text
		}
		m.syncRows()
		return m, m.events.wait()

	case alertMsg:
		m.alert = msg.message
		return m, m.events.wait()

	case refreshedMsg:
		m.loading = false
		m.err = msg.err
		m.syncRows()
		return m, nil

	case pageMsg:
		m.loading = false
		m.err = msg.err
		m.syncRows()
		return m, nil

	case deletedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.flash = fmt.Sprintf("Deleted %d URL(s).", msg.count)
		}
		m.syncRows()
		return m, nil

	case addedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.flash = fmt.Sprintf("Added URL #%d.", msg.report.ID)
		}
		m.syncRows()
		return m, nil

	case detailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		r := msg.report
		m.detail = &r
		m.mode = modeDetail
		return m, nil

	case tea.KeyMsg:
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.events.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.currentID(); ok {
			m.dash.Toggle(id)
			m.syncRows()
		}

	case key.Matches(msg, m.keys.SelectAll):
		m.dash.SelectAll()
		m.syncRows()

	case key.Matches(msg, m.keys.Crawl):
		if id, ok := m.currentID(); ok {
			if m.dash.Action(id).Disabled {
				m.flash = fmt.Sprintf("URL #%d has no action.", id)
				break
			}
			d := m.dash.StartOrCancel(m.ctx, id)
			m.flash = fmt.Sprintf("Crawl of URL #%d %s.", id, d)
			m.syncRows()
		}

	case key.Matches(msg, m.keys.Reanalyze):
		if !m.dash.CanBulk() {
			m.flash = "Nothing selected."
			break
		}
		decisions := m.dash.BulkReanalyze(m.ctx)
		started := 0
		for _, d := range decisions {
			if d == coordinator.Started {
				started++
			}
		}
		m.flash = fmt.Sprintf("Reanalyzing %d URL(s), %d cancelled.", started, len(decisions)-started)
		m.syncRows()

	case key.Matches(msg, m.keys.Delete):
		if !m.dash.CanBulk() {
			m.flash = "Nothing selected."
			break
		}
		m.mode = modeConfirmDelete

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Placeholder = "https://example.com"
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.input.Placeholder = "filter by URL or title"
		m.input.SetValue(m.dash.Filter())
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.SortNext):
		m.moveSort(1)

	case key.Matches(msg, m.keys.SortPrev):
		m.moveSort(-1)

	case key.Matches(msg, m.keys.SortFlip):
		if s := m.dash.Sort(); s.Key != "" {
			_ = m.dash.SortBy(s.Key) //nolint:errcheck // Key comes from the current sort
			m.syncRows()
		}

	case key.Matches(msg, m.keys.NextPage):
		return m, m.pageCmd(m.dash.NextPage)

	case key.Matches(msg, m.keys.PrevPage):
		return m, m.pageCmd(m.dash.PrevPage)

	case key.Matches(msg, m.keys.Bigger):
		return m, m.pageSizeCmd(m.dash.Cursor().NextPageSize())

	case key.Matches(msg, m.keys.Smaller):
		return m, m.pageSizeCmd(m.dash.Cursor().PrevPageSize())

	case key.Matches(msg, m.keys.Detail):
		if id, ok := m.currentID(); ok {
			return m, m.detailCmd(id)
		}

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.refreshCmd()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		m.dash.SetFilter("")
		m.syncRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.dash.SetFilter(m.input.Value())
	m.syncRows()
	return m, cmd
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.input.Blur()
		u := strings.TrimSpace(m.input.Value())
		if u == "" {
			return m, nil
		}
		m.loading = true
		return m, m.addCmd(u)
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBrowse
		m.loading = true
		return m, m.deleteCmd(len(m.dash.Selected()))
	case "n", "N", "esc", "q":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.Detail):
		m.mode = modeBrowse
		m.detail = nil
	}
	return m, nil
}

// moveSort moves the sort key to the next or previous sortable column.
func (m *Model) moveSort(step int) {
	var keys []string
	for _, c := range columns {
		if c.key != "" {
			keys = append(keys, c.key)
		}
	}

	current := m.dash.Sort()
	i := -1
	for j, k := range keys {
		if k == current.Key {
			i = j
		}
	}
	switch {
	case i == -1 && step > 0:
		i = 0
	case i == -1:
		i = len(keys) - 1
	default:
		i = (i + step + len(keys)) % len(keys)
	}

	if err := m.dash.SetSort(view.Sort{Key: keys[i], Dir: current.Dir}); err != nil {
		m.err = err
		return
	}
	m.syncRows()
}

// currentID returns the id of the highlighted row.
func (m *Model) currentID() (int64, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return 0, false
	}
	return m.rows[i].ID, true
}

// syncRows rebuilds the table from the dashboard projection.
func (m *Model) syncRows() {
	m.rows = m.dash.Rows()

	spec := m.dash.Sort()
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		title := c.title
		if c.key != "" && c.key == spec.Key {
			if spec.Dir == view.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols[i] = table.Column{Title: title, Width: c.width}
	}

	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		row := make(table.Row, len(columns))
		for j, c := range columns {
			row[j] = c.value(m, r)
		}
		rows[i] = row
	}

	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.dash.Refresh(m.ctx)}
	}
}

func (m *Model) pageCmd(fn func(context.Context) (bool, error)) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		changed, err := fn(m.ctx)
		return pageMsg{changed: changed, err: err}
	}
}

func (m *Model) pageSizeCmd(size int) tea.Cmd {
	return m.pageCmd(func(ctx context.Context) (bool, error) {
		return m.dash.SetPageSize(ctx, size)
	})
}

func (m *Model) deleteCmd(count int) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{count: count, err: m.dash.BulkDelete(m.ctx)}
	}
}

func (m *Model) addCmd(u string) tea.Cmd {
	return func() tea.Msg {
		r, err := m.dash.Add(m.ctx, u)
		return addedMsg{report: r, err: err}
	}
}

func (m *Model) detailCmd(id int64) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		r, err := m.dash.Detail(m.ctx, id)
		return detailMsg{report: r, err: err}
	}
}

func settledText(s coordinator.Settlement) string {
	switch s.Outcome {
	case coordinator.OutcomeDone:
		return fmt.Sprintf("URL #%d analyzed: %d broken link(s).", s.ID, s.Report.BrokenLinks)
	case coordinator.OutcomeError:
		return fmt.Sprintf("URL #%d failed: %v", s.ID, s.Err)
	case coordinator.OutcomeCancelled:
		return fmt.Sprintf("URL #%d cancelled.", s.ID)
	default:
		return ""
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.alert != "" {
		return alertStyle.Render(errorStyle.Render(m.alert) + "\n\n" + infoStyle.Render("press any key"))
	}
	if m.mode == modeDetail && m.detail != nil {
		return m.detailView(*m.detail)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("crawldash"))
	b.WriteString("  ")
	b.WriteString(infoStyle.Render(m.statusLine()))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	switch m.mode {
	case modeFilter:
		b.WriteString("Filter: " + m.input.View())
	case modeAdd:
		b.WriteString("Add URL: " + m.input.View())
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %d selected URL(s)? (y/n)", len(m.dash.Selected()))))
	default:
		switch {
		case m.err != nil && !errors.Is(m.err, context.Canceled):
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		case m.flash != "":
			b.WriteString(flashStyle.Render(m.flash))
		case len(m.rows) == 0 && !m.loading:
			b.WriteString(infoStyle.Render("No URLs found."))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	c := m.dash.Cursor()
	parts := []string{
		fmt.Sprintf("page %d/%d", c.Page(), c.TotalPages()),
		fmt.Sprintf("%d URLs", c.TotalCount()),
		fmt.Sprintf("%d per page", c.PageSize()),
	}
	if n := len(m.dash.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if f := m.dash.Filter(); f != "" {
		parts = append(parts, fmt.Sprintf("filter %q", f))
	}
	if m.loading {
		parts = append(parts, "loading...")
	}
	return strings.Join(parts, " · ")
}

func (m *Model) detailView(r model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(fmt.Sprintf("URL #%d", r.ID)))
	fmt.Fprintf(&b, "URL:          %s\n", r.URL)
	fmt.Fprintf(&b, "Title:        %s\n", r.Title)
	fmt.Fprintf(&b, "Status:       %s\n", statusStyle(r.Status).Render(report.StatusLabel(r.Status)))
	fmt.Fprintf(&b, "HTML Version: %s\n", r.HTMLVersion)
	h := r.Headings()
	fmt.Fprintf(&b, "Headings:     H1 %d  H2 %d  H3 %d  H4 %d  H5 %d  H6 %d\n", h[0], h[1], h[2], h[3], h[4], h[5])
	fmt.Fprintf(&b, "Links:        %d internal, %d external, %d broken\n", r.InternalLinks, r.ExternalLinks, r.BrokenLinks)

	if len(r.BrokenLinkDetails) > 0 {
		b.WriteString("\nBroken links:\n")
		for _, bl := range r.BrokenLinkDetails {
			code := "---"
			if bl.StatusCode != 0 {
				code = strconv.Itoa(bl.StatusCode)
			}
			fmt.Fprintf(&b, "  [%s] %s\n", code, bl.Link)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		detailStyle.Render(strings.TrimRight(b.String(), "\n")),
		infoStyle.Render("esc: back"),
	)
}
