package deferred

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bft-labs/dancer/pkg/log"
)

// Job is a unit of background work.
type Job func()

// PoolConfig bounds a Pool.
type PoolConfig struct {
	// MinWorkers is the number of workers kept alive while idle.
	MinWorkers int

	// MaxWorkers caps the number of live workers.
	MaxWorkers int

	// IdleTimeout is how long a worker above MinWorkers waits for a job
	// before it retires.
	IdleTimeout time.Duration

	// QueueCapacity is the number of accepted jobs that may wait for a
	// worker. Submit blocks while the backlog is full.
	QueueCapacity int
}

// DefaultPoolConfig returns a PoolConfig sized to the machine.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinWorkers:    0,
		MaxWorkers:    runtime.NumCPU(),
		IdleTimeout:   30 * time.Second,
		QueueCapacity: 64,
	}
}

func (c PoolConfig) normalized() PoolConfig {
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
	if c.MinWorkers < 0 {
		c.MinWorkers = 0
	}
	if c.MinWorkers > c.MaxWorkers {
		c.MinWorkers = c.MaxWorkers
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.QueueCapacity < 0 {
		c.QueueCapacity = 0
	}
	return c
}

// Pool is a dynamically sized set of worker goroutines.
//
// The pool starts with MinWorkers, grows up to MaxWorkers while accepted
// jobs outnumber idle workers, and lets workers above MinWorkers retire
// after IdleTimeout without work. Every accepted job runs exactly once
// unless the pool is shut down without waiting.
type Pool struct {
	cfg     PoolConfig
	logger  log.Logger
	metrics *Metrics

	jobs chan Job
	quit chan struct{}

	mu      sync.Mutex
	workers int
	idle    int
	queued  int // accepted but not yet picked up by a worker
	closed  bool

	pending  sync.WaitGroup // accepted jobs not yet finished
	wg       sync.WaitGroup // live workers
	quitOnce sync.Once
}

// NewPool creates a pool and starts its minimum workers.
func NewPool(cfg PoolConfig, logger log.Logger, metrics *Metrics) *Pool {
	cfg = cfg.normalized()
	p := &Pool{
		cfg:     cfg,
		logger:  log.OrNoop(logger),
		metrics: metrics,
		jobs:    make(chan Job, cfg.QueueCapacity),
		quit:    make(chan struct{}),
	}

	p.mu.Lock()
	for i := 0; i < cfg.MinWorkers; i++ {
		p.spawnLocked()
	}
	p.mu.Unlock()

	return p
}

// Submit hands a job to the pool.
// Returns ErrPoolClosed after Shutdown has been called.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.pending.Add(1)
	p.queued++
	if p.queued > p.idle && p.workers < p.cfg.MaxWorkers {
		p.spawnLocked()
	}
	p.mu.Unlock()

	p.metrics.jobSubmitted()

	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		// Abandoned by Shutdown(false) while waiting for queue space.
		p.mu.Lock()
		p.queued--
		p.mu.Unlock()
		p.pending.Done()
		return ErrPoolClosed
	}
}

// Shutdown stops accepting jobs. With wait, it blocks until every accepted
// job has run and all workers exited. Without wait, queued jobs that have
// not started are abandoned; running jobs are not interrupted.
// Calling Shutdown more than once is safe.
func (p *Pool) Shutdown(wait bool) {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	if wait && !p.abandoned() {
		p.pending.Wait()
	}
	p.quitOnce.Do(func() { close(p.quit) })

	if wait {
		p.wg.Wait()
	}
}

// Workers returns the number of live workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Idle returns the number of workers waiting for a job.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idle
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) spawnLocked() {
	p.workers++
	p.idle++
	p.metrics.setWorkers(p.workers)
	p.wg.Add(1)
	go p.workerLoop()
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()

	timer := time.NewTimer(p.cfg.IdleTimeout)
	defer timer.Stop()

	for {
		select {
		case job := <-p.jobs:
			p.mu.Lock()
			p.queued--
			if p.abandoned() {
				// Shutdown(false) won the race with this receive.
				p.retireLocked()
				p.mu.Unlock()
				p.pending.Done()
				return
			}
			p.idle--
			p.mu.Unlock()

			p.run(job)

			p.mu.Lock()
			p.idle++
			p.mu.Unlock()

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.cfg.IdleTimeout)

		case <-timer.C:
			p.mu.Lock()
			if p.workers > p.cfg.MinWorkers && p.queued == 0 {
				p.retireLocked()
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			timer.Reset(p.cfg.IdleTimeout)

		case <-p.quit:
			p.mu.Lock()
			p.retireLocked()
			p.mu.Unlock()
			return
		}
	}
}

func (p *Pool) abandoned() bool {
	select {
	case <-p.quit:
		return true
	default:
		return false
	}
}

func (p *Pool) retireLocked() {
	p.workers--
	p.idle--
	p.metrics.setWorkers(p.workers)
}

func (p *Pool) run(job Job) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.metrics.jobPanicked()
			p.logger.Error("worker job panicked",
				log.Any("panic", r),
				log.String("stack", string(debug.Stack())),
			)
		}
	}()
	job()
}
