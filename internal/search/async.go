package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/dshills/sourcesearch/internal/loop"
	"github.com/google/uuid"
)

// Task outcomes reported to the Recorder.
const (
	outcomeFound     = "found"
	outcomeNotFound  = "not_found"
	outcomeCancelled = "cancelled"
	outcomeClosed    = "closed"
	outcomeFailed    = "failed"
)

// markCategory is the category of the marks anchoring task origins.
const markCategory = "search-origin"

// Task is an asynchronous forward or backward search. It scans one chunk
// per loop step on a private copy of the index; the scanned results reach
// the context only when the task completes, so a cancelled task leaves no
// trace. A task whose step panics finishes with ErrTaskFailed.
type Task struct {
	id      uuid.UUID
	c       *Context
	ctx     context.Context
	cancel  context.CancelFunc
	unwatch func() bool
	forward bool
	origin  *buffer.Mark
	handle  loop.Handle

	gen     uint64
	ix      *index
	staged  []scanResult
	wrapped bool

	done  chan struct{}
	match Match
	found bool
	err   error
}

// ForwardAsync starts an asynchronous Forward search from pos. The search
// runs on the context's loop; cancelling ctx or calling Cancel stops it.
func (c *Context) ForwardAsync(ctx context.Context, pos buffer.ByteOffset) *Task {
	return c.startTask(ctx, pos, true)
}

// BackwardAsync starts an asynchronous Backward search from pos.
func (c *Context) BackwardAsync(ctx context.Context, pos buffer.ByteOffset) *Task {
	return c.startTask(ctx, pos, false)
}

func (c *Context) startTask(parent context.Context, pos buffer.ByteOffset, forward bool) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		id:      uuid.New(),
		c:       c,
		ctx:     ctx,
		cancel:  cancel,
		forward: forward,
		done:    make(chan struct{}),
	}
	if c.closed {
		t.finish(Match{}, false, ErrClosed)
		return t
	}

	pos = min(max(pos, 0), c.buf.Len())
	origin, err := c.buf.CreateMark("", markCategory, pos, buffer.GravityLeft)
	if err != nil {
		t.finish(Match{}, false, err)
		return t
	}
	t.origin = origin
	t.restart()

	c.tasks[t] = struct{}{}
	t.handle = c.loop.Idle(t.step)
	// Cancellation finishes the task on the loop even while no step runs.
	t.unwatch = context.AfterFunc(ctx, func() {
		c.loop.Post(func() { t.finish(Match{}, false, ErrCancelled) })
	})
	c.log.WithField("task", t.id).Debug("search task started at %d", pos)
	return t
}

// ID returns the task's unique identifier.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Done returns a channel closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finish returns the outcome of a completed task. A search that found
// nothing returns false and a nil error; a cancelled one returns
// ErrCancelled.
func (t *Task) Finish() (Match, bool, error) {
	select {
	case <-t.done:
		return t.match, t.found, t.err
	default:
		return Match{}, false, ErrNotFinished
	}
}

// Cancel stops the task. Its staged scan results are discarded.
func (t *Task) Cancel() {
	t.finish(Match{}, false, ErrCancelled)
}

// restart takes a fresh copy of the live index and starts over from the
// origin mark.
func (t *Task) restart() {
	t.gen = t.c.gen
	t.ix = t.c.ix.clone()
	t.staged = t.staged[:0]
	t.wrapped = false
}

func (t *Task) step() (again bool) {
	c := t.c
	if t.isDone() {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			t.finish(Match{}, false, fmt.Errorf("%w: %v", ErrTaskFailed, r))
			panic(r)
		}
	}()
	if t.ctx.Err() != nil {
		t.finish(Match{}, false, ErrCancelled)
		return false
	}
	if t.gen != c.gen {
		t.restart()
	}

	pos, skipEmpty := t.origin.Offset(), true
	if t.wrapped {
		pos, skipEmpty = c.wrapStart(t.forward), false
	}
	r, found, done := c.step(t.ix, pos, t.forward, skipEmpty, &t.staged)
	if !done {
		return true
	}
	if !found && !t.wrapped && c.matcher != nil && c.matcher.query.WrapAround {
		t.wrapped = true
		return true
	}

	for _, res := range t.staged {
		c.ix.commit(res.region, res.found)
		c.announce(res)
	}
	t.finish(Match{Start: r.Start, End: r.End, Wrapped: found && t.wrapped}, found, nil)
	return false
}

func (t *Task) isDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task) finish(m Match, found bool, err error) {
	if t.isDone() {
		return
	}
	t.match, t.found, t.err = m, found, err
	t.staged = nil
	t.ix = nil
	t.handle.Cancel()
	if t.unwatch != nil {
		t.unwatch()
	}
	t.cancel()
	close(t.done)

	c := t.c
	delete(c.tasks, t)
	if t.origin != nil {
		c.buf.DeleteMark(t.origin)
	}

	outcome := outcomeNotFound
	switch {
	case errors.Is(err, ErrCancelled):
		outcome = outcomeCancelled
	case errors.Is(err, ErrClosed):
		outcome = outcomeClosed
	case errors.Is(err, ErrTaskFailed):
		outcome = outcomeFailed
	case found:
		outcome = outcomeFound
	}
	c.rec.TaskFinished(t.direction(), outcome)
	c.log.WithField("task", t.id).Debug("search task finished: %s", outcome)
}

func (t *Task) direction() string {
	if t.forward {
		return "forward"
	}
	return "backward"
}
