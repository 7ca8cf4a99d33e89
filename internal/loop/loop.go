// Package loop provides a single-threaded cooperative scheduler.
//
// A Loop owns a queue of callbacks that are run one step at a time by
// whichever goroutine drives it (the UI thread in an editor). Long-running
// work is split into steps that return true while more work remains, so the
// driving goroutine stays responsive between steps. Nothing in this package
// starts goroutines.
package loop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by RunUntilIdle after Stop.
var ErrStopped = errors.New("loop stopped")

// StepFunc runs one step of a job and reports whether it wants to run again.
type StepFunc func() bool

// PanicHandler is called when a step panics. The step is dropped.
type PanicHandler func(value any, stack []byte)

// Handle identifies a scheduled job.
type Handle struct {
	j *job
}

// Cancel removes the job. Cancelling a finished job is a no-op.
func (h Handle) Cancel() {
	if h.j != nil {
		h.j.cancelled.Store(true)
	}
}

// Active reports whether the job is still scheduled.
func (h Handle) Active() bool {
	return h.j != nil && !h.j.cancelled.Load() && !h.j.done.Load()
}

type job struct {
	step      StepFunc
	cancelled atomic.Bool
	done      atomic.Bool
}

// Stats reports loop activity counters.
type Stats struct {
	Steps    uint64
	Panicked uint64
}

// Loop is a cooperative job queue.
type Loop struct {
	mu      sync.Mutex // protects queue; Post may be called from any goroutine
	queue   []*job
	stopped atomic.Bool

	panicHandler PanicHandler

	steps    atomic.Uint64
	panicked atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithPanicHandler sets the handler for panicking steps.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		if h != nil {
			l.panicHandler = h
		}
	}
}

// New creates an empty loop.
func New(opts ...Option) *Loop {
	l := &Loop{panicHandler: func(any, []byte) {}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post schedules fn to run once.
func (l *Loop) Post(fn func()) Handle {
	return l.Idle(func() bool {
		fn()
		return false
	})
}

// Idle schedules step to run repeatedly until it returns false.
func (l *Loop) Idle(step StepFunc) Handle {
	j := &job{step: step}
	l.mu.Lock()
	l.queue = append(l.queue, j)
	l.mu.Unlock()
	return Handle{j: j}
}

// Pending returns the number of scheduled jobs, cancelled ones excluded.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, j := range l.queue {
		if !j.cancelled.Load() {
			n++
		}
	}
	return n
}

// RunPending runs one step of every job queued at the time of the call.
// Jobs scheduled by those steps run on the next call. Returns the number of
// steps run.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	ran := 0
	var again []*job
	for _, j := range batch {
		if j.cancelled.Load() {
			continue
		}
		ran++
		if l.runStep(j) && !j.cancelled.Load() {
			again = append(again, j)
		} else {
			j.done.Store(true)
		}
	}

	if len(again) > 0 {
		l.mu.Lock()
		l.queue = append(again, l.queue...)
		l.mu.Unlock()
	}
	return ran
}

// RunUntilIdle drives the loop until no jobs remain, ctx is done or the loop
// is stopped.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for {
		if l.stopped.Load() {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.RunPending() == 0 && l.Pending() == 0 {
			return nil
		}
	}
}

// Stop makes RunUntilIdle return. Queued jobs stay queued.
func (l *Loop) Stop() {
	l.stopped.Store(true)
}

// Stats returns a snapshot of the activity counters.
func (l *Loop) Stats() Stats {
	return Stats{Steps: l.steps.Load(), Panicked: l.panicked.Load()}
}

func (l *Loop) runStep(j *job) (again bool) {
	l.steps.Add(1)
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			l.panicHandler(r, debug.Stack())
			again = false
		}
	}()
	return j.step()
}
