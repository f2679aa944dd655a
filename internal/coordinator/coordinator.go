package coordinator

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/crawldash/internal/gateway"
	"github.com/nao1215/crawldash/internal/model"
)

// Crawler starts the remote analysis of one report.
// gateway.Gateway satisfies it.
type Crawler interface {
	StartCrawl(ctx context.Context, id int64) (model.Report, error)
}

// Store receives the status transitions and crawl results.
// store.Store satisfies it.
type Store interface {
	SetStatus(id int64, status model.Status) bool
	MergeOne(r model.Report) bool
}

// Decision is the branch StartOrCancel took.
type Decision int

const (
	// Started means a new crawl was issued.
	Started Decision = iota
	// Cancelled means an in-flight crawl was cancelled.
	Cancelled
)

// String returns "started" or "cancelled".
func (d Decision) String() string {
	if d == Cancelled {
		return "cancelled"
	}
	return "started"
}

// Outcome classifies a crawl settlement.
type Outcome string

const (
	// OutcomeDone means the crawl succeeded.
	OutcomeDone Outcome = "done"
	// OutcomeError means the crawl failed for a reason other than cancellation.
	OutcomeError Outcome = "error"
	// OutcomeCancelled means the crawl was aborted while its handle was current.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeStale means the handle had already been cancelled by a toggle.
	// Nothing is written for stale settlements.
	OutcomeStale Outcome = "stale"
)

// Settlement describes how one crawl ended.
type Settlement struct {
	// ID is the report id.
	ID int64

	// Outcome classifies the settlement.
	Outcome Outcome

	// Status is the status written to the store. Empty for stale settlements.
	Status model.Status

	// Report is the report returned by the server on success.
	Report model.Report

	// Err is the error returned by the crawler, if any.
	Err error

	// StartedAt is when the crawl was issued.
	StartedAt time.Time

	// Duration is the time from start to settlement.
	Duration time.Duration
}

// SettleFunc is called after every settlement, outside the coordinator lock.
type SettleFunc func(Settlement)

// handle owns the cancellation of one in-flight crawl.
// seq is unique per Coordinator and identifies the handle in logs.
type handle struct {
	id        int64
	seq       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
}

// Coordinator tracks in-flight crawls by report id.
type Coordinator struct {
	crawler  Crawler
	store    Store
	logger   *slog.Logger
	metrics  *Metrics
	onSettle []SettleFunc
	now      func() time.Time

	mu      sync.Mutex
	handles map[int64]*handle
	seq     uint64
	wg      sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Cancellations are logged at Info and crawl
// failures at Warn.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics to update.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithSettleFunc registers a function called after every settlement.
// It may be given more than once.
func WithSettleFunc(fn SettleFunc) Option {
	return func(c *Coordinator) {
		c.onSettle = append(c.onSettle, fn)
	}
}

// New creates a Coordinator that starts crawls with crawler and writes
// transitions to store.
func New(crawler Crawler, store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		crawler: crawler,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
		handles: make(map[int64]*handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// StartOrCancel toggles the crawl of id.
//
// If id has an in-flight crawl, it is cancelled, its handle removed and the
// report marked pending; no request is sent. Otherwise a handle is created,
// the report is marked running and the crawl is started on a new goroutine
// bound to a context derived from ctx.
func (c *Coordinator) StartOrCancel(ctx context.Context, id int64) Decision {
	c.mu.Lock()
	if h, ok := c.handles[id]; ok {
		h.cancel()
		delete(c.handles, id)
		c.store.SetStatus(id, model.StatusPending)
		c.metrics.Cancelled.Inc()
		c.metrics.InFlight.Set(float64(len(c.handles)))
		c.mu.Unlock()

		c.logger.Info("crawl cancelled", "id", id, "handle", h.seq)
		return Cancelled
	}

	h := c.newHandleLocked(ctx, id)
	c.handles[id] = h
	c.store.SetStatus(id, model.StatusRunning)
	c.metrics.Started.Inc()
	c.metrics.InFlight.Set(float64(len(c.handles)))
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("crawl started", "id", id, "handle", h.seq)
	go c.run(h)
	return Started
}

// BulkReanalyze marks every id queued, then toggles each one with
// StartOrCancel without waiting for any crawl to settle. Duplicate ids are
// handled once. The decisions are returned in the order of the unique ids.
func (c *Coordinator) BulkReanalyze(ctx context.Context, ids []int64) []Decision {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	c.mu.Lock()
	for _, id := range unique {
		c.store.SetStatus(id, model.StatusQueued)
	}
	c.mu.Unlock()

	decisions := make([]Decision, len(unique))
	for i, id := range unique {
		decisions[i] = c.StartOrCancel(ctx, id)
	}
	return decisions
}

// CancelAll cancels every in-flight crawl and marks its report pending.
// It returns the number of cancelled crawls.
func (c *Coordinator) CancelAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.handles)
	for id, h := range c.handles {
		h.cancel()
		delete(c.handles, id)
		c.store.SetStatus(id, model.StatusPending)
		c.metrics.Cancelled.Inc()
	}
	c.metrics.InFlight.Set(0)
	if n > 0 {
		c.logger.Info("all crawls cancelled", "count", n)
	}
	return n
}

// Running reports whether id has an in-flight crawl.
func (c *Coordinator) Running(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handles[id]
	return ok
}

// RunningIDs returns the ids with an in-flight crawl in ascending order.
func (c *Coordinator) RunningIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int64, 0, len(c.handles))
	for id := range c.handles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HandleCount returns the number of handles held.
func (c *Coordinator) HandleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Wait blocks until every started crawl has settled and its settle
// functions have returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// WithStoreLocked runs fn while holding the coordinator lock, passing the
// set of ids that have an in-flight crawl. It lets a caller replace the
// store contents and restore running statuses without racing a settlement.
func (c *Coordinator) WithStoreLocked(fn func(running map[int64]bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	running := make(map[int64]bool, len(c.handles))
	for id := range c.handles {
		running[id] = true
	}
	fn(running)
}

func (c *Coordinator) newHandleLocked(parent context.Context, id int64) *handle {
	c.seq++
	ctx, cancel := context.WithCancel(parent)
	return &handle{
		id:        id,
		seq:       c.seq,
		ctx:       ctx,
		cancel:    cancel,
		startedAt: c.now(),
	}
}

func (c *Coordinator) run(h *handle) {
	defer c.wg.Done()

	report, err := c.crawler.StartCrawl(h.ctx, h.id)
	s := c.settle(h, report, err)

	for _, fn := range c.onSettle {
		fn(s)
	}
}

// settle applies the outcome of one crawl. The handle is removed only if it
// is still the current handle for its id.
func (c *Coordinator) settle(h *handle, report model.Report, err error) Settlement {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer h.cancel()

	s := Settlement{
		ID:        h.id,
		Err:       err,
		StartedAt: h.startedAt,
		Duration:  c.now().Sub(h.startedAt),
	}

	if c.handles[h.id] != h {
		s.Outcome = OutcomeStale
		c.logger.Debug("stale crawl settlement dropped", "id", h.id, "handle", h.seq)
		c.observeLocked(s)
		return s
	}
	delete(c.handles, h.id)

	switch {
	case err != nil && (gateway.IsCancelled(err) || h.ctx.Err() != nil):
		s.Outcome = OutcomeCancelled
		s.Status = model.StatusPending
		c.store.SetStatus(h.id, s.Status)
		c.logger.Info("crawl cancelled", "id", h.id, "handle", h.seq)
	case err != nil:
		s.Outcome = OutcomeError
		s.Status = model.StatusError
		c.store.SetStatus(h.id, s.Status)
		c.logger.Warn("crawl failed", "id", h.id, "handle", h.seq, "error", err)
	default:
		if report.Status == "" {
			report.Status = model.StatusDone
		}
		report.ID = h.id
		s.Outcome = OutcomeDone
		s.Status = report.Status
		s.Report = report
		c.store.MergeOne(report)
		c.store.SetStatus(h.id, s.Status)
		c.logger.Debug("crawl settled", "id", h.id, "handle", h.seq, "status", s.Status)
	}

	c.observeLocked(s)
	return s
}

func (c *Coordinator) observeLocked(s Settlement) {
	c.metrics.Settled.WithLabelValues(string(s.Outcome)).Inc()
	c.metrics.Duration.WithLabelValues(string(s.Outcome)).Observe(s.Duration.Seconds())
	c.metrics.InFlight.Set(float64(len(c.handles)))
}
