package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/gateway"
	"github.com/nao1215/crawldash/internal/model"
	"github.com/nao1215/crawldash/internal/pager"
	"github.com/nao1215/crawldash/internal/selection"
	"github.com/nao1215/crawldash/internal/store"
	"github.com/nao1215/crawldash/internal/view"
)

// Notifier shows a blocking alert to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert implements Notifier.
func (f NotifierFunc) Alert(message string) {
	f(message)
}

// Cache is the local storage used for page snapshots and crawl history.
// *database.Cache satisfies it.
type Cache interface {
	SavePage(ctx context.Context, apiURL string, page model.Page) error
	LoadPage(ctx context.Context, apiURL string, page, pageSize int) (*database.PageSnapshot, error)
	RecordCrawl(ctx context.Context, rec *database.CrawlRecord) (int64, error)
	CrawlHistory(ctx context.Context, apiURL string, reportID int64, limit int) ([]database.CrawlRecord, error)
	DeleteHistory(ctx context.Context, apiURL string, reportID int64) (int64, error)
}

// Dashboard is the crawl-job orchestration core of crawldash.
type Dashboard struct {
	gw        gateway.Gateway
	store     *store.Store
	selection *selection.Set
	cursor    *pager.Cursor
	projector *view.Projector
	coord     *coordinator.Coordinator

	logger    *slog.Logger
	notifier  Notifier
	cache     Cache
	apiURL    string
	page      int
	pageSize  int
	coordOpts []coordinator.Option
	onChange  []store.ChangeFunc

	mu     sync.Mutex
	needle string
	sort   view.Sort
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the logger. It is also passed to the coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

// WithNotifier sets the receiver of blocking user alerts.
func WithNotifier(n Notifier) Option {
	return func(d *Dashboard) {
		d.notifier = n
	}
}

// WithCache enables page snapshots and crawl history. apiURL scopes the
// cached rows.
func WithCache(c Cache, apiURL string) Option {
	return func(d *Dashboard) {
		d.cache = c
		d.apiURL = apiURL
	}
}

// WithCoordinatorOptions passes options to the crawl coordinator.
func WithCoordinatorOptions(opts ...coordinator.Option) Option {
	return func(d *Dashboard) {
		d.coordOpts = append(d.coordOpts, opts...)
	}
}

// WithPage sets the initial page index.
func WithPage(page int) Option {
	return func(d *Dashboard) {
		d.page = page
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(d *Dashboard) {
		d.pageSize = size
	}
}

// WithChangeFunc registers a function called after every store mutation.
// It may run while the coordinator lock is held and must not call back into
// the Dashboard.
func WithChangeFunc(fn store.ChangeFunc) Option {
	return func(d *Dashboard) {
		d.onChange = append(d.onChange, fn)
	}
}

// New creates a Dashboard on top of gw. The first page is not fetched until
// Refresh is called.
func New(gw gateway.Gateway, opts ...Option) *Dashboard {
	d := &Dashboard{
		gw:       gw,
		logger:   slog.Default(),
		page:     1,
		pageSize: pager.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = NotifierFunc(func(message string) {
			d.logger.Error(message)
		})
	}
	if !pager.ValidPageSize(d.pageSize) {
		d.pageSize = pager.DefaultPageSize
	}

	d.store = store.New(store.WithChangeFunc(d.changed))
	d.selection = selection.New()
	d.cursor = pager.New(d.page, d.pageSize)
	d.projector = view.NewProjector()

	coordOpts := []coordinator.Option{
		coordinator.WithLogger(d.logger),
		coordinator.WithSettleFunc(d.recordSettlement),
	}
	d.coord = coordinator.New(gw, d.store, append(coordOpts, d.coordOpts...)...)
	return d
}

func (d *Dashboard) changed(version uint64) {
	for _, fn := range d.onChange {
		fn(version)
	}
}

// Refresh fetches the current page and replaces the store with it.
//
// On failure the current rows are kept and the error is returned. If the
// dashboard has no rows yet and a snapshot of the same page is cached, the
// snapshot is shown instead. A result for a page or page size the cursor has
// since left is dropped. If the new total moves the cursor back to a lower
// page, that page is fetched instead.
func (d *Dashboard) Refresh(ctx context.Context) error {
	page, size := d.cursor.Page(), d.cursor.PageSize()

	p, err := d.gw.FetchPage(ctx, page, size)
	if err != nil {
		if gateway.IsCancelled(err) {
			d.logger.Debug("page fetch cancelled", "page", page, "page_size", size)
			return err
		}
		d.logger.Error("failed to fetch page", "page", page, "page_size", size, "error", err)
		if d.cursorAt(page, size) {
			d.loadSnapshot(ctx, page, size)
		}
		return fmt.Errorf("failed to fetch page %d: %w", page, err)
	}

	if !d.cursorAt(page, size) {
		d.logger.Debug("discarding stale page", "page", page, "page_size", size,
			"current_page", d.cursor.Page(), "current_page_size", d.cursor.PageSize())
		return nil
	}

	clamped := d.applyPage(p)

	if d.cache != nil {
		if err := d.cache.SavePage(ctx, d.apiURL, p); err != nil {
			d.logger.Warn("failed to save page snapshot", "page", page, "error", err)
		}
	}
	if clamped {
		d.logger.Debug("page out of range", "page", page, "now", d.cursor.Page())
		return d.Refresh(ctx)
	}
	return nil
}

func (d *Dashboard) cursorAt(page, size int) bool {
	return d.cursor.Page() == page && d.cursor.PageSize() == size
}

// applyPage replaces the store with p. Ids that still have an in-flight crawl
// are marked running again so the row matches the handle table. It reports
// whether the new total moved the cursor to another page.
func (d *Dashboard) applyPage(p model.Page) bool {
	d.coord.WithStoreLocked(func(running map[int64]bool) {
		d.store.ReplacePage(p.Reports)
		for id := range running {
			d.store.SetStatus(id, model.StatusRunning)
		}
	})
	d.cursor.SetTotal(p.TotalCount)
	clamped := d.cursor.SetPage(d.cursor.Page())
	if n := d.selection.Retain(d.store.IDs()); n > 0 {
		d.logger.Debug("selection pruned", "removed", n)
	}
	return clamped
}

func (d *Dashboard) loadSnapshot(ctx context.Context, page, size int) {
	if d.cache == nil || d.store.Len() > 0 {
		return
	}
	snap, err := d.cache.LoadPage(ctx, d.apiURL, page, size)
	if err != nil {
		d.logger.Warn("failed to load page snapshot", "page", page, "error", err)
		return
	}
	if snap == nil {
		return
	}
	d.applyPage(snap.Page)
	d.logger.Info("showing cached page", "page", page, "saved_at", snap.SavedAt)
}

// SetPage moves to page n, clamped to the valid range, and refetches if the
// page changed. It reports whether the page changed.
func (d *Dashboard) SetPage(ctx context.Context, n int) (bool, error) {
	if !d.cursor.SetPage(n) {
		return false, nil
	}
	return true, d.Refresh(ctx)
}

// NextPage moves one page forward.
func (d *Dashboard) NextPage(ctx context.Context) (bool, error) {
	return d.SetPage(ctx, d.cursor.Page()+1)
}

// PrevPage moves one page back.
func (d *Dashboard) PrevPage(ctx context.Context) (bool, error) {
	return d.SetPage(ctx, d.cursor.Page()-1)
}

// SetPageSize changes the page size, returns to page 1 and refetches if the
// cursor changed.
func (d *Dashboard) SetPageSize(ctx context.Context, n int) (bool, error) {
	if !pager.ValidPageSize(n) {
		return false, fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	if !d.cursor.SetPageSize(n) {
		return false, nil
	}
	return true, d.Refresh(ctx)
}

// Cursor returns the page cursor.
func (d *Dashboard) Cursor() *pager.Cursor {
	return d.cursor
}

// SetFilter sets the free-text filter.
func (d *Dashboard) SetFilter(needle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.needle = needle
}

// Filter returns the free-text filter.
func (d *Dashboard) Filter() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.needle
}

// SortBy sorts by the column with the given key. Choosing the current key
// again flips the direction.
func (d *Dashboard) SortBy(key string) error {
	if _, ok := view.ColumnByKey(key); !ok {
		return fmt.Errorf("unknown sort column %q", key)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = d.sort.Toggle(key)
	return nil
}

// SetSort replaces the sort key and direction.
func (d *Dashboard) SetSort(spec view.Sort) error {
	if spec.Key != "" {
		if _, ok := view.ColumnByKey(spec.Key); !ok {
			return fmt.Errorf("unknown sort column %q", spec.Key)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = spec
	return nil
}

// Sort returns the current sort key and direction.
func (d *Dashboard) Sort() view.Sort {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sort
}

// Rows returns the filtered and sorted rows of the current page.
func (d *Dashboard) Rows() []model.Report {
	d.mu.Lock()
	needle, spec := d.needle, d.sort
	d.mu.Unlock()
	return d.projector.Rows(d.store, needle, spec)
}

// Report returns the current page's report with the given id.
func (d *Dashboard) Report(id int64) (model.Report, bool) {
	return d.store.Get(id)
}

// Action returns the row control for id derived from its current status.
func (d *Dashboard) Action(id int64) model.Action {
	st, _ := d.store.Status(id)
	return model.ActionFor(st)
}

// Toggle flips the selection of id. Ids not on the current page are ignored.
func (d *Dashboard) Toggle(id int64) bool {
	if _, ok := d.store.Get(id); !ok {
		return false
	}
	return d.selection.Toggle(id)
}

// SelectAll selects every id on the current page, or clears the selection if
// all of them are already selected.
func (d *Dashboard) SelectAll() {
	d.selection.SelectAll(d.store.IDs())
}

// AllSelected reports whether every id of a non-empty page is selected.
func (d *Dashboard) AllSelected() bool {
	return d.selection.IsAllSelected(d.store.IDs())
}

// IsSelected reports whether id is selected.
func (d *Dashboard) IsSelected(id int64) bool {
	return d.selection.Has(id)
}

// Selected returns the selected ids in ascending order.
func (d *Dashboard) Selected() []int64 {
	return d.selection.IDs()
}

// CanBulk reports whether bulk actions are enabled.
func (d *Dashboard) CanBulk() bool {
	return d.selection.Len() > 0
}

// StartOrCancel starts the crawl of id, or cancels it if one is in flight.
func (d *Dashboard) StartOrCancel(ctx context.Context, id int64) coordinator.Decision {
	return d.coord.StartOrCancel(ctx, id)
}

// Running reports whether id has an in-flight crawl.
func (d *Dashboard) Running(id int64) bool {
	return d.coord.Running(id)
}

// BulkReanalyze queues and toggles every selected id, then clears the
// selection without waiting for any crawl.
func (d *Dashboard) BulkReanalyze(ctx context.Context) []coordinator.Decision {
	ids := d.selection.IDs()
	if len(ids) == 0 {
		return nil
	}
	decisions := d.coord.BulkReanalyze(ctx, ids)
	d.selection.Clear()
	d.logger.Info("bulk reanalyze issued", "count", len(ids))
	return decisions
}

// BulkDelete removes every selected report concurrently and waits for all
// of them. The deletes are not cancelled by ctx once issued.
//
// If any delete fails, the Notifier receives one alert, the selection is
// kept and the page is not refetched; the returned error wraps
// ErrBulkDelete and every individual failure. Otherwise the page is
// refetched and the selection cleared.
func (d *Dashboard) BulkDelete(ctx context.Context) error {
	ids := d.selection.IDs()
	if len(ids) == 0 {
		return nil
	}
	removeCtx := context.WithoutCancel(ctx)

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.gw.Remove(removeCtx, id); err != nil {
				d.logger.Warn("failed to delete report", "id", id, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("report %d: %w", id, err))
				mu.Unlock()
				return nil
			}
			d.forgetHistory(removeCtx, id)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Errors are collected in errs

	if len(errs) > 0 {
		d.notifier.Alert(BulkDeleteAlert)
		return errors.Join(append([]error{ErrBulkDelete}, errs...)...)
	}

	d.logger.Info("reports deleted", "count", len(ids))
	err := d.Refresh(ctx)
	d.selection.Clear()
	return err
}

func (d *Dashboard) forgetHistory(ctx context.Context, id int64) {
	if d.cache == nil {
		return
	}
	if _, err := d.cache.DeleteHistory(ctx, d.apiURL, id); err != nil {
		d.logger.Warn("failed to delete crawl history", "id", id, "error", err)
	}
}

// Add submits a URL for analysis and refetches the current page.
func (d *Dashboard) Add(ctx context.Context, rawURL string) (model.Report, error) {
	r, err := d.gw.Create(ctx, rawURL)
	if err != nil {
		return model.Report{}, err
	}
	d.logger.Info("url added", "id", r.ID, "url", r.URL)
	return r, d.Refresh(ctx)
}

// Detail fetches one report with its broken link details.
func (d *Dashboard) Detail(ctx context.Context, id int64) (model.Report, error) {
	return d.gw.FetchOne(ctx, id)
}

// History returns the crawl history of id from the cache, newest first.
func (d *Dashboard) History(ctx context.Context, id int64, limit int) ([]database.CrawlRecord, error) {
	if d.cache == nil {
		return nil, ErrNoCache
	}
	return d.cache.CrawlHistory(ctx, d.apiURL, id, limit)
}

// Wait blocks until every started crawl has settled.
func (d *Dashboard) Wait() {
	d.coord.Wait()
}

// Close cancels every in-flight crawl and waits for the settlements.
func (d *Dashboard) Close() {
	d.coord.CancelAll()
	d.coord.Wait()
}

func (d *Dashboard) recordSettlement(s coordinator.Settlement) {
	if d.cache == nil || s.Outcome == coordinator.OutcomeStale {
		return
	}

	rec := &database.CrawlRecord{
		APIURL:    d.apiURL,
		ReportID:  s.ID,
		Outcome:   string(s.Outcome),
		Status:    s.Status,
		StartedAt: s.StartedAt,
		Duration:  s.Duration,
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	if s.Outcome == coordinator.OutcomeDone {
		report := s.Report
		rec.Report = &report
		rec.BrokenLinks = report.BrokenLinks
	}

	if _, err := d.cache.RecordCrawl(context.Background(), rec); err != nil {
		d.logger.Warn("failed to record crawl", "id", s.ID, "error", err)
	}
}
