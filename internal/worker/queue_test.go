package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// ---------- Helpers ----------

func newTestQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	q := NewQueue(cfg, log.New(io.Discard))
	t.Cleanup(q.Stop)
	return q
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------- Tests ----------

func TestQueueRunsJob(t *testing.T) {
	q := newTestQueue(t, DefaultConfig())

	ran := false
	err := q.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("job did not run")
	}
}

func TestQueueReturnsJobError(t *testing.T) {
	q := newTestQueue(t, DefaultConfig())
	boom := errors.New("boom")

	err := q.Do(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestQueueNeverOverlapsJobs(t *testing.T) {
	q := newTestQueue(t, Config{QueueSize: 100, JobTimeout: time.Second})

	var running, maxRunning int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxRunning != 1 {
		t.Errorf("expected at most 1 concurrent job, saw %d", maxRunning)
	}
}

func TestQueueFull(t *testing.T) {
	q := newTestQueue(t, Config{QueueSize: 1})

	started := make(chan struct{})
	release := make(chan struct{})
	blocker := func(context.Context) error {
		close(started)
		<-release
		return nil
	}

	go func() { _ = q.Do(context.Background(), blocker) }()
	<-started

	// Fill the single buffer slot while the worker is busy.
	queued := make(chan error, 1)
	go func() { queued <- q.Do(context.Background(), func(context.Context) error { return nil }) }()
	waitFor(t, func() bool { return len(q.jobs) == 1 })

	err := q.Do(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	if err := <-queued; err != nil {
		t.Errorf("queued job failed: %v", err)
	}
}

func TestQueueSkipsCancelledJob(t *testing.T) {
	q := newTestQueue(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := q.Do(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	// Let the worker pick the request up before checking.
	_ = q.Do(context.Background(), func(context.Context) error { return nil })
	if ran {
		t.Error("cancelled job should not run")
	}
}

func TestQueueJobTimeout(t *testing.T) {
	q := newTestQueue(t, Config{QueueSize: 1, JobTimeout: 20 * time.Millisecond})

	err := q.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestQueueRecoversPanic(t *testing.T) {
	q := newTestQueue(t, DefaultConfig())

	err := q.Do(context.Background(), func(context.Context) error { panic("bad") })
	if err == nil {
		t.Fatal("expected error from panicking job")
	}

	// The worker must survive.
	if err := q.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("queue unusable after panic: %v", err)
	}
}

func TestQueueStop(t *testing.T) {
	q := NewQueue(DefaultConfig(), log.New(io.Discard))
	q.Stop()
	q.Stop() // idempotent

	err := q.Do(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestDirectRunsInline(t *testing.T) {
	var d Runner = Direct{}
	ran := false
	if err := d.Do(context.Background(), func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("job did not run")
	}
}
