// Package worker runs store mutations one at a time.
//
// Every write request is a load-transform-save sequence over the whole
// collection. Two such sequences running at once lose one of the updates,
// so handlers push them through a Queue: a single goroutine reading jobs
// from a buffered channel.
//
//	PATCH / POST / DELETE
//	        │
//	        ▼
//	┌─────────────────┐
//	│  buffered chan  │  ← QueueSize; full queue rejects with ErrQueueFull
//	└────────┬────────┘
//	         ▼
//	      worker         ← one goroutine, jobs never overlap
//	         │
//	         ▼
//	   Load → transform → Save
//
// Stop closes the channel; the worker finishes the queued jobs and exits.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrQueueFull is returned by Do when the job buffer is full.
	ErrQueueFull = errors.New("write queue is full")
	// ErrStopped is returned by Do after Stop.
	ErrStopped = errors.New("write queue is stopped")
)

// Job is a unit of work run by the queue.
type Job func(ctx context.Context) error

// Runner runs jobs. Queue serializes them; Direct runs them inline.
type Runner interface {
	Do(ctx context.Context, job Job) error
}

// Direct runs every job on the caller's goroutine with no serialization.
type Direct struct{}

// Do runs job immediately.
func (Direct) Do(ctx context.Context, job Job) error {
	return job(ctx)
}

// ---------- Config ----------

// Config sets queue limits.
type Config struct {
	QueueSize  int           // buffered jobs before Do starts rejecting
	JobTimeout time.Duration // deadline added to each job's context; 0 means none
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:  64,
		JobTimeout: 10 * time.Second,
	}
}

// ---------- Queue ----------

type request struct {
	ctx  context.Context
	job  Job
	done chan error // buffered(1) so the worker never blocks on an abandoned caller
}

// Queue runs submitted jobs sequentially on one worker goroutine.
type Queue struct {
	jobs   chan request
	cfg    Config
	logger *log.Logger

	mu      sync.RWMutex // guards stopped and the close of jobs
	stopped bool
	wg      sync.WaitGroup
}

// NewQueue creates a queue and starts its worker.
func NewQueue(cfg Config, logger *log.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = log.Default()
	}
	q := &Queue{
		jobs:   make(chan request, cfg.QueueSize),
		cfg:    cfg,
		logger: logger,
	}

	q.wg.Add(1)
	go q.run()

	q.logger.Debug("write queue started", "buffer", cfg.QueueSize, "job_timeout", cfg.JobTimeout)
	return q
}

// Do queues job and waits for its result. If ctx ends first, Do returns
// ctx.Err(); a job whose context is already done when dequeued is skipped.
func (q *Queue) Do(ctx context.Context, job Job) error {
	req := request{ctx: ctx, job: job, done: make(chan error, 1)}

	q.mu.RLock()
	if q.stopped {
		q.mu.RUnlock()
		return ErrStopped
	}
	select {
	case q.jobs <- req:
	default:
		q.mu.RUnlock()
		return ErrQueueFull
	}
	q.mu.RUnlock()

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new jobs, lets the worker drain the buffer and waits for it.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Debug("write queue stopped")
}

// ---------- Worker ----------

func (q *Queue) run() {
	defer q.wg.Done()
	for req := range q.jobs {
		req.done <- q.process(req)
	}
}

func (q *Queue) process(req request) (err error) {
	if err := req.ctx.Err(); err != nil {
		return err
	}

	ctx := req.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("write job panicked", "panic", r)
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return req.job(ctx)
}
