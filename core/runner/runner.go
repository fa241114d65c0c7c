package runner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Priority orders categories of corrective work. Lower numeric value means
// earlier execution; the constants define the total order explicitly.
type Priority int

const (
	Highest Priority = iota
	Higher
	High
	Medium
	Low
	Lower
	Lowest

	numPriorities
)

// String returns the priority name for log lines.
func (p Priority) String() string {
	switch p {
	case Highest:
		return "highest"
	case Higher:
		return "higher"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	case Lower:
		return "lower"
	case Lowest:
		return "lowest"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Handler executes the corrective action for a single object key.
type Handler func(ctx context.Context, key string) error

type task struct {
	key     string
	handler Handler
}

// Runner executes submitted work on a fixed pool of workers.
type Runner struct {
	log     *zap.Logger
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	queues  [numPriorities][]task
	passive int
	active  int
	stopped bool

	wg sync.WaitGroup
}

// New creates a runner with the given worker pool size. The pool is not
// started until Start is called.
func New(workers int, log *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{log: log, workers: workers}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Start spins up the worker pool. Workers run until Stop is called or ctx is
// cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop wakes all workers and waits for them to exit. Queued items are
// abandoned; the next sweep re-detects whatever they would have fixed.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.cond.Broadcast()
	r.mu.Unlock()

	r.wg.Wait()
}

// Run enqueues one work unit per key at the given priority and returns
// immediately. Submission after Stop is dropped.
func (r *Runner) Run(priority Priority, keys []string, handler Handler) {
	if len(keys) == 0 {
		return
	}
	if priority < Highest || priority >= numPriorities {
		priority = Lowest
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	for _, key := range keys {
		r.queues[priority] = append(r.queues[priority], task{key: key, handler: handler})
	}
	r.passive += len(keys)
	r.cond.Broadcast()
}

// Active returns the number of work units currently executing.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Passive returns the number of work units queued but not yet started.
func (r *Runner) Passive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passive
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		var t task
		var found bool
		for {
			if r.stopped {
				r.mu.Unlock()
				return
			}
			t, found = r.next()
			if found {
				break
			}
			r.cond.Wait()
		}
		r.passive--
		r.active++
		r.mu.Unlock()

		r.execute(ctx, t)

		r.mu.Lock()
		r.active--
		r.mu.Unlock()
	}
}

// next pops the head of the highest non-empty priority queue.
// Caller must hold r.mu.
func (r *Runner) next() (task, bool) {
	for p := Highest; p < numPriorities; p++ {
		q := r.queues[p]
		if len(q) == 0 {
			continue
		}
		t := q[0]
		r.queues[p] = q[1:]
		return t, true
	}
	return task{}, false
}

// execute runs one handler, isolating the worker from errors and panics.
func (r *Runner) execute(ctx context.Context, t task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Work item panicked",
				zap.String("key", t.key),
				zap.Any("panic", rec),
			)
		}
	}()

	if err := t.handler(ctx, t.key); err != nil {
		r.log.Error("Work item failed",
			zap.String("key", t.key),
			zap.Error(err),
		)
	}
}
