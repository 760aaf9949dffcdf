package deferred

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bft-labs/dancer/pkg/log"
)

// DefaultMaxItemsPerTick bounds how many results one tick collects.
const DefaultMaxItemsPerTick = 5

// DefaultCheckInterval is the polling interval of WaitForCompletion.
const DefaultCheckInterval = 100 * time.Millisecond

// Task computes a result on a worker goroutine.
type Task func() (interface{}, error)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Pooling opts into the worker pool. Without it Offload fails with
	// ErrNotConfigured; Tick stays usable.
	Pooling bool

	Pool            PoolConfig
	Discipline      Discipline
	MaxItemsPerTick int
}

// DefaultSchedulerConfig returns a pooled FIFO configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Pooling:         true,
		Pool:            DefaultPoolConfig(),
		Discipline:      FIFO,
		MaxItemsPerTick: DefaultMaxItemsPerTick,
	}
}

// Scheduler combines a Queue and a lazily created Pool.
type Scheduler struct {
	cfg     SchedulerConfig
	queue   *Queue
	logger  log.Logger
	metrics *Metrics

	mu       sync.Mutex
	pool     *Pool
	closed   bool
	inflight map[string]int

	// waiting holds offloaded jobs no worker has started yet.
	waiting map[*ticket]struct{}
}

type ticket struct {
	name string
}

// NewScheduler creates a scheduler. The pool is created on first Offload.
func NewScheduler(cfg SchedulerConfig, logger log.Logger, metrics *Metrics) *Scheduler {
	if cfg.MaxItemsPerTick < 1 {
		cfg.MaxItemsPerTick = DefaultMaxItemsPerTick
	}
	return &Scheduler{
		cfg:      cfg,
		queue:    NewQueue(cfg.Discipline),
		logger:   log.OrNoop(logger),
		metrics:  metrics,
		inflight: make(map[string]int),
		waiting:  make(map[*ticket]struct{}),
	}
}

// Queue returns the result queue.
func (s *Scheduler) Queue() *Queue {
	return s.queue
}

// Pool returns the worker pool, or nil if it has not been created yet.
func (s *Scheduler) Pool() *Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// Offload runs task on the pool. Once it returns, its result is queued
// under name and handed to collector by a later Tick.
func (s *Scheduler) Offload(name string, collector Collector, task Task) error {
	s.mu.Lock()
	pool, err := s.poolLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	t := &ticket{name: name}
	s.inflight[name]++
	s.waiting[t] = struct{}{}
	s.mu.Unlock()

	err = pool.Submit(func() {
		if !s.start(t) {
			return
		}
		value, taskErr := s.call(name, task)
		// Append before leaving the in-flight set so Pending never
		// observes zero in between.
		s.queue.Append(Item{TaskName: name, Collector: collector, Value: value, Err: taskErr})
		s.metrics.setQueueDepth(s.queue.Len())
		s.finish(name)
	})
	if err != nil {
		s.abandon(t)
		return err
	}
	return nil
}

// OffloadFunc is a typed wrapper around Scheduler.Offload.
func OffloadFunc[T any](s *Scheduler, name string, task func() (T, error), collect func(T, error)) error {
	return s.Offload(name,
		func(value interface{}, err error) {
			v, _ := value.(T)
			collect(v, err)
		},
		func() (interface{}, error) {
			return task()
		},
	)
}

// Pending returns how many jobs named name are running or waiting to be collected.
func (s *Scheduler) Pending(name string) int {
	s.mu.Lock()
	n := s.inflight[name]
	s.mu.Unlock()
	return n + s.queue.CountWithName(name)
}

// WaitForCompletion blocks until Pending(name) is zero, polling every
// interval. It never collects items itself. Returns ctx.Err() if ctx ends first.
func (s *Scheduler) WaitForCompletion(ctx context.Context, name string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if s.Pending(name) == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Pending(name) == 0 {
				return nil
			}
		}
	}
}

// Tick collects up to the configured number of results.
func (s *Scheduler) Tick() int {
	return s.TickN(s.cfg.MaxItemsPerTick)
}

// TickN removes up to max items and invokes their collectors on the
// calling goroutine. Returns the number of collectors invoked.
func (s *Scheduler) TickN(max int) int {
	start := time.Now()
	drained := 0
	for drained < max {
		item, ok := s.queue.RemoveNext()
		if !ok {
			break
		}
		drained++
		s.metrics.resultCollected(item.TaskName)
		if item.Collector != nil {
			item.Collector(item.Value, item.Err)
		}
	}
	if drained > 0 {
		s.metrics.setQueueDepth(s.queue.Len())
		s.metrics.observeTick(time.Since(start))
	}
	return drained
}

// Shutdown stops the pool, if one was created. Later Offload calls fail
// with ErrPoolClosed. Without wait, jobs that had not started are dropped
// from Pending so WaitForCompletion does not wait for them.
func (s *Scheduler) Shutdown(wait bool) {
	s.mu.Lock()
	s.closed = true
	pool := s.pool
	s.mu.Unlock()

	if pool != nil {
		pool.Shutdown(wait)
		s.logger.Debug("worker pool shut down", log.Bool("wait", wait))
	}

	// Jobs that never started will not produce a result.
	s.mu.Lock()
	dropped := len(s.waiting)
	for t := range s.waiting {
		delete(s.waiting, t)
		s.finishLocked(t.name)
	}
	s.mu.Unlock()
	if dropped > 0 {
		s.logger.Debug("abandoned queued jobs", log.Int("jobs", dropped))
	}
}

func (s *Scheduler) poolLocked() (*Pool, error) {
	if !s.cfg.Pooling {
		return nil, ErrNotConfigured
	}
	if s.closed {
		return nil, ErrPoolClosed
	}
	if s.pool == nil {
		s.pool = NewPool(s.cfg.Pool, s.logger, s.metrics)
		s.logger.Debug("worker pool created",
			log.Int("min_workers", s.cfg.Pool.MinWorkers),
			log.Int("max_workers", s.cfg.Pool.MaxWorkers),
		)
	}
	return s.pool, nil
}

// start claims t for a worker. It reports false when Shutdown already
// abandoned the job.
func (s *Scheduler) start(t *ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waiting[t]; !ok {
		return false
	}
	delete(s.waiting, t)
	return true
}

func (s *Scheduler) abandon(t *ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waiting[t]; ok {
		delete(s.waiting, t)
		s.finishLocked(t.name)
	}
}

func (s *Scheduler) finish(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(name)
}

func (s *Scheduler) finishLocked(name string) {
	if s.inflight[name] <= 1 {
		delete(s.inflight, name)
		return
	}
	s.inflight[name]--
}

func (s *Scheduler) call(name string, task Task) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{TaskName: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return task()
}
