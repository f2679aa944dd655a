package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/dashboard"
	"github.com/nao1215/crawldash/internal/gateway"
	"github.com/nao1215/crawldash/internal/model"
	"github.com/nao1215/crawldash/internal/view"
)

// fakeGateway serves reports from memory. Crawls finish when release is
// called or their context is cancelled.
type fakeGateway struct {
	mu        sync.Mutex
	reports   []model.Report
	removeErr error
	release   chan struct{}
}

func newFakeGateway(n int) *fakeGateway {
	f := &fakeGateway{release: make(chan struct{}, 10)}
	for i := range n {
		id := int64(i + 1)
		f.reports = append(f.reports, model.Report{
			ID:     id,
			URL:    fmt.Sprintf("https://site%02d.example", id),
			Title:  fmt.Sprintf("Site %d", id),
			Status: model.StatusPending,
		})
	}
	return f
}

func (f *fakeGateway) FetchPage(_ context.Context, page, pageSize int) (model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := min((page-1)*pageSize, len(f.reports))
	end := min(start+pageSize, len(f.reports))
	return model.Page{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(f.reports),
		Reports:    slices.Clone(f.reports[start:end]),
	}, nil
}

func (f *fakeGateway) FetchOne(_ context.Context, id int64) (model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.ID == id {
			r.BrokenLinkDetails = []model.BrokenLink{{Link: "https://gone.example", StatusCode: 404}}
			return r, nil
		}
	}
	return model.Report{}, gateway.ErrNotFound
}

func (f *fakeGateway) Create(_ context.Context, u string) (model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := model.Report{ID: int64(len(f.reports) + 100), URL: u, Status: model.StatusPending}
	f.reports = append(f.reports, r)
	return r, nil
}

func (f *fakeGateway) Remove(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.reports = slices.DeleteFunc(f.reports, func(r model.Report) bool { return r.ID == id })
	return nil
}

func (f *fakeGateway) StartCrawl(ctx context.Context, id int64) (model.Report, error) {
	select {
	case <-f.release:
		return model.Report{ID: id, URL: "https://done.example", Status: model.StatusDone, BrokenLinks: 2}, nil
	case <-ctx.Done():
		return model.Report{}, fmt.Errorf("start crawl: %w", gateway.ErrCancelled)
	}
}

func newTestModel(t *testing.T, f *fakeGateway) (*Model, *dashboard.Dashboard, *Events) {
	t.Helper()

	events := NewEvents()
	d := dashboard.New(f,
		dashboard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		dashboard.WithPageSize(5),
		dashboard.WithNotifier(events),
		dashboard.WithCoordinatorOptions(coordinator.WithSettleFunc(events.Settled)),
	)
	t.Cleanup(func() {
		events.Close()
		d.Close()
	})

	m := New(context.Background(), d, events)
	update(t, m, m.refreshCmd()())
	return m, d, events
}

// update feeds msg to m and returns the resulting command without running it.
func update(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func nextEvent(t *testing.T, e *Events) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- e.wait()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func ids(rows []model.Report) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestModelRefresh(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t, newFakeGateway(7))

	if m.loading {
		t.Error("still loading after refresh")
	}
	if got := ids(m.rows); !slices.Equal(got, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("rows = %v", got)
	}
	view := m.View()
	for _, want := range []string{"page 1/2", "7 URLs", "site01.example", "Start"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q:\n%s", want, view)
		}
	}
}

func TestModelSelection(t *testing.T) {
	t.Parallel()

	m, d, _ := newTestModel(t, newFakeGateway(3))

	update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !d.IsSelected(1) {
		t.Fatal("space did not select the highlighted row")
	}
	if !strings.Contains(m.View(), "1 selected") {
		t.Errorf("status line does not show the selection:\n%s", m.View())
	}

	update(t, m, runes("a"))
	if !d.AllSelected() {
		t.Error("a did not select the whole page")
	}
	update(t, m, runes("a"))
	if len(d.Selected()) != 0 {
		t.Errorf("second a left %v selected", d.Selected())
	}
}

func TestModelCrawl(t *testing.T) {
	t.Parallel()

	f := newFakeGateway(2)
	m, d, events := newTestModel(t, f)

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !d.Running(1) {
		t.Fatal("enter did not start the crawl")
	}
	if !strings.Contains(m.flash, "started") {
		t.Errorf("flash = %q", m.flash)
	}
	if r, _ := d.Report(1); r.Status != model.StatusRunning {
		t.Errorf("status = %s, want running", r.Status)
	}

	f.release <- struct{}{}
	msg := nextEvent(t, events)
	if _, ok := msg.(settledMsg); !ok {
		t.Fatalf("event = %T, want settledMsg", msg)
	}
	if cmd := update(t, m, msg); cmd == nil {
		t.Error("settlement did not re-arm the event listener")
	}
	if !strings.Contains(m.flash, "2 broken") {
		t.Errorf("flash = %q", m.flash)
	}
	if m.rows[0].Status != model.StatusDone {
		t.Errorf("row status = %s, want done", m.rows[0].Status)
	}
}

func TestModelCancelCrawl(t *testing.T) {
	t.Parallel()

	m, d, events := newTestModel(t, newFakeGateway(1))

	update(t, m, runes("s"))
	update(t, m, runes("s"))
	if d.Running(1) {
		t.Fatal("second s did not cancel the crawl")
	}
	if !strings.Contains(m.flash, "cancelled") {
		t.Errorf("flash = %q", m.flash)
	}
	if m.rows[0].Status != model.StatusPending {
		t.Errorf("row status = %s, want pending", m.rows[0].Status)
	}

	// The aborted request settles as stale and changes nothing.
	s := nextEvent(t, events).(settledMsg).settlement
	if s.Outcome != coordinator.OutcomeStale {
		t.Errorf("outcome = %s, want stale", s.Outcome)
	}
	update(t, m, settledMsg{settlement: s})
	if m.rows[0].Status != model.StatusPending {
		t.Errorf("row status = %s, want pending", m.rows[0].Status)
	}
	if !strings.Contains(m.flash, "cancelled") {
		t.Errorf("stale settlement replaced the flash: %q", m.flash)
	}
}

func TestModelBulkReanalyze(t *testing.T) {
	t.Parallel()

	m, d, _ := newTestModel(t, newFakeGateway(3))

	update(t, m, runes("r"))
	if m.flash != "Nothing selected." {
		t.Errorf("flash = %q", m.flash)
	}

	update(t, m, runes("a"))
	update(t, m, runes("r"))
	for _, id := range []int64{1, 2, 3} {
		if !d.Running(id) {
			t.Errorf("id %d not running", id)
		}
	}
	if len(d.Selected()) != 0 {
		t.Error("selection not cleared")
	}
}

func TestModelFilter(t *testing.T) {
	t.Parallel()

	m, d, _ := newTestModel(t, newFakeGateway(5))

	update(t, m, runes("/"))
	if m.mode != modeFilter {
		t.Fatalf("mode = %v, want filter", m.mode)
	}
	update(t, m, runes("0"))
	update(t, m, runes("3"))
	if d.Filter() != "03" {
		t.Errorf("filter = %q", d.Filter())
	}
	if got := ids(m.rows); !slices.Equal(got, []int64{3}) {
		t.Errorf("rows = %v, want [3]", got)
	}

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeBrowse || d.Filter() != "03" {
		t.Errorf("enter: mode = %v, filter = %q", m.mode, d.Filter())
	}

	update(t, m, runes("/"))
	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if d.Filter() != "" || len(m.rows) != 5 {
		t.Errorf("esc: filter = %q, rows = %d", d.Filter(), len(m.rows))
	}
}

func TestModelSort(t *testing.T) {
	t.Parallel()

	m, d, _ := newTestModel(t, newFakeGateway(3))

	update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := d.Sort(); got != (view.Sort{Key: "id", Dir: view.Asc}) {
		t.Errorf("sort = %+v", got)
	}
	update(t, m, runes("o"))
	if got := ids(m.rows); !slices.Equal(got, []int64{3, 2, 1}) {
		t.Errorf("rows = %v, want descending", got)
	}
	if !strings.Contains(m.View(), "ID ▼") {
		t.Error("header does not show the sort direction")
	}

	update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := d.Sort(); got.Key != "has_login_form" || got.Dir != view.Desc {
		t.Errorf("left from the first column: sort = %+v", got)
	}
}

func TestModelPaging(t *testing.T) {
	t.Parallel()

	m, d, _ := newTestModel(t, newFakeGateway(12))

	cmd := update(t, m, runes("n"))
	if cmd == nil || !m.loading {
		t.Fatal("n did not issue a page fetch")
	}
	update(t, m, cmd())
	if d.Cursor().Page() != 2 {
		t.Errorf("page = %d, want 2", d.Cursor().Page())
	}
	if got := ids(m.rows); !slices.Equal(got, []int64{6, 7, 8, 9, 10}) {
		t.Errorf("rows = %v", got)
	}

	update(t, m, update(t, m, runes("+"))())
	if d.Cursor().PageSize() != 10 || d.Cursor().Page() != 1 {
		t.Errorf("page size = %d, page = %d", d.Cursor().PageSize(), d.Cursor().Page())
	}
}

func TestModelDelete(t *testing.T) {
	t.Parallel()

	t.Run("declined", func(t *testing.T) {
		t.Parallel()

		m, d, _ := newTestModel(t, newFakeGateway(2))
		update(t, m, runes("a"))
		update(t, m, runes("d"))
		if m.mode != modeConfirmDelete {
			t.Fatalf("mode = %v, want confirm", m.mode)
		}
		if cmd := update(t, m, runes("n")); cmd != nil {
			t.Error("declining issued a command")
		}
		if len(d.Selected()) != 2 {
			t.Error("declining changed the selection")
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()

		m, d, _ := newTestModel(t, newFakeGateway(3))
		update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		update(t, m, runes("d"))
		cmd := update(t, m, runes("y"))
		if cmd == nil {
			t.Fatal("confirming issued no command")
		}
		update(t, m, cmd())

		if got := ids(m.rows); !slices.Equal(got, []int64{2, 3}) {
			t.Errorf("rows = %v", got)
		}
		if m.flash != "Deleted 1 URL(s)." {
			t.Errorf("flash = %q", m.flash)
		}
		if len(d.Selected()) != 0 {
			t.Error("selection not cleared")
		}
	})

	t.Run("failure shows one alert", func(t *testing.T) {
		t.Parallel()

		f := newFakeGateway(2)
		f.removeErr = errors.New("boom")
		m, d, events := newTestModel(t, f)
		update(t, m, runes("a"))
		update(t, m, runes("d"))
		update(t, m, update(t, m, runes("y"))())

		if !errors.Is(m.err, dashboard.ErrBulkDelete) {
			t.Errorf("err = %v", m.err)
		}
		msg := nextEvent(t, events)
		update(t, m, msg)
		if m.alert != dashboard.BulkDeleteAlert {
			t.Errorf("alert = %q", m.alert)
		}
		if !strings.Contains(m.View(), dashboard.BulkDeleteAlert) {
			t.Error("alert not rendered")
		}

		update(t, m, runes("x"))
		if m.alert != "" {
			t.Error("key press did not dismiss the alert")
		}
		if len(d.Selected()) != 2 {
			t.Error("failed delete cleared the selection")
		}
	})
}

func TestModelAddAndDetail(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t, newFakeGateway(1))

	update(t, m, runes("c"))
	for _, r := range "https://new.example" {
		update(t, m, runes(string(r)))
	}
	cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter issued no command")
	}
	update(t, m, cmd())
	if !strings.HasPrefix(m.flash, "Added URL #") {
		t.Errorf("flash = %q", m.flash)
	}
	if len(m.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(m.rows))
	}

	update(t, m, update(t, m, runes("i"))())
	if m.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", m.mode)
	}
	if v := m.View(); !strings.Contains(v, "[404] https://gone.example") {
		t.Errorf("detail view:\n%s", v)
	}
	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeBrowse {
		t.Error("esc did not leave the detail view")
	}
}

func TestModelQuit(t *testing.T) {
	t.Parallel()

	m, _, events := newTestModel(t, newFakeGateway(1))
	cmd := update(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q issued no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if msg := events.wait()(); msg != nil {
		t.Errorf("events still delivered after quit: %T", msg)
	}
}

func TestEventsClose(t *testing.T) {
	t.Parallel()

	e := NewEvents()
	e.Close()
	e.Close()

	done := make(chan struct{})
	go func() {
		for range eventBuffer + 1 {
			e.Alert("dropped")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Alert blocked after Close")
	}
}
