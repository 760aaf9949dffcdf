package frontend

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/dancer/pkg/deferred"
	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/log"
	"github.com/bft-labs/dancer/pkg/update"
)

// DefaultTickInterval is the period of the tick loop.
const DefaultTickInterval = 500 * time.Millisecond

// tickWrap bounds the tick counter handed to hooks.
const tickWrap = 999

// TickHook runs on every tick with the wrapped tick counter.
type TickHook func(count int)

// HostConfig configures a Host.
type HostConfig struct {
	Program string
	Version string

	TickInterval time.Duration
	Scheduler    deferred.SchedulerConfig

	// Updates runs once from CheckForUpdates. Nil disables the check.
	Updates *update.Checker
}

// Status is a point-in-time view of a Host.
type Status struct {
	Program   string        `json:"program"`
	Version   string        `json:"version"`
	State     string        `json:"state"`
	Ticks     uint64        `json:"ticks"`
	Queued    int           `json:"queued"`
	Workers   int           `json:"workers"`
	Idle      int           `json:"idle"`
	Uptime    time.Duration `json:"uptime_ns"`
	GoVersion string        `json:"go_version"`
}

// Host is the runtime shared by frontends.
type Host struct {
	cfg     HostConfig
	logger  log.Logger
	metrics *deferred.Metrics
	started time.Time

	schedMu sync.Mutex
	sched   *deferred.Scheduler

	mu      sync.Mutex
	hooks   []TickHook
	closers []func() error
	count   int
	closed  bool

	ticks atomic.Uint64
	state atomic.Value // string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHost creates a host. metrics may be nil.
func NewHost(cfg HostConfig, logger log.Logger, metrics *deferred.Metrics) *Host {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	h := &Host{
		cfg:     cfg,
		logger:  log.OrNoop(logger),
		metrics: metrics,
		started: time.Now(),
		stop:    make(chan struct{}),
	}
	h.state.Store(lifecycle.StateInit.String())
	return h
}

// LogBanner logs the program identity once at startup.
func (h *Host) LogBanner() {
	h.logger.Info("starting",
		log.String("program", h.cfg.Program),
		log.String("version", h.cfg.Version),
		log.String("go", runtime.Version()),
		log.String("platform", runtime.GOOS+"/"+runtime.GOARCH),
	)
}

// Scheduler returns the host's scheduler, creating it on first use.
func (h *Host) Scheduler() *deferred.Scheduler {
	h.schedMu.Lock()
	defer h.schedMu.Unlock()
	if h.sched == nil {
		h.sched = deferred.NewScheduler(h.cfg.Scheduler, h.logger, h.metrics)
	}
	return h.sched
}

func (h *Host) schedulerIfCreated() *deferred.Scheduler {
	h.schedMu.Lock()
	defer h.schedMu.Unlock()
	return h.sched
}

// AddTickHook registers fn to run on every tick after results were drained.
func (h *Host) AddTickHook(fn TickHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// OnClose registers fn to run during Close before the pool shuts down.
// Closers run in registration order.
func (h *Host) OnClose(fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closers = append(h.closers, fn)
}

// Tick drains deferred results and runs the tick hooks. It returns the
// number of collected results.
func (h *Host) Tick() int {
	collected := 0
	if s := h.schedulerIfCreated(); s != nil {
		collected = s.Tick()
	}

	h.mu.Lock()
	h.count++
	if h.count > tickWrap {
		h.count = 1
	}
	count := h.count
	hooks := append([]TickHook{}, h.hooks...)
	h.mu.Unlock()

	h.ticks.Add(1)
	for _, fn := range hooks {
		fn(count)
	}
	return collected
}

// Loop ticks on the calling goroutine until done reports true, ctx is
// canceled, or the host is closed. Collectors therefore run on the caller.
func (h *Host) Loop(ctx context.Context, done func() bool) error {
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()

	for {
		if done != nil && done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case <-ticker.C:
			h.Tick()
		}
	}
}

// CheckForUpdates runs the configured update check once.
func (h *Host) CheckForUpdates(ctx context.Context) (update.Decision, error) {
	if h.cfg.Updates == nil {
		return update.Decision{}, nil
	}
	return h.cfg.Updates.Run(ctx)
}

// OnStateChange records the lifecycle state for Status.
func (h *Host) OnStateChange(previous, current lifecycle.State, reason string) {
	h.state.Store(current.String())
}

// Status returns a snapshot for status reporting.
func (h *Host) Status() Status {
	st := Status{
		Program:   h.cfg.Program,
		Version:   h.cfg.Version,
		State:     h.state.Load().(string),
		Ticks:     h.ticks.Load(),
		Uptime:    time.Since(h.started),
		GoVersion: runtime.Version(),
	}
	if s := h.schedulerIfCreated(); s != nil {
		st.Queued = s.Queue().Len()
		if p := s.Pool(); p != nil {
			st.Workers = p.Workers()
			st.Idle = p.Idle()
		}
	}
	return st
}

// Close stops the tick loop, runs the closers and shuts the pool down,
// waiting for running jobs. Safe to call more than once.
func (h *Host) Close() error {
	h.stopOnce.Do(func() { close(h.stop) })

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	closers := append([]func() error{}, h.closers...)
	h.mu.Unlock()

	var firstErr error
	for _, fn := range closers {
		if err := fn(); err != nil {
			h.logger.Warn("close hook failed", log.Err(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if s := h.schedulerIfCreated(); s != nil {
		s.Shutdown(true)
	}
	return firstErr
}
