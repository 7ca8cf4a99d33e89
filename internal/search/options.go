package search

import (
	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/dshills/sourcesearch/internal/logging"
	"github.com/dshills/sourcesearch/internal/loop"
)

// Default tuning values.
const (
	DefaultChunkSize      = 64 * 1024
	DefaultRegexContext   = 2
	DefaultLookaheadLines = 16

	// maxLookahead caps how far past a scanned region a match may extend.
	maxLookahead = 64 * 1024
)

// Recorder receives counters about search activity.
type Recorder interface {
	ChunkScanned(bytes int64, matches int)
	TaskFinished(direction, outcome string)
	Replaced(count int)
	PatternFailed()
}

type nopRecorder struct{}

func (nopRecorder) ChunkScanned(int64, int)     {}
func (nopRecorder) TaskFinished(string, string) {}
func (nopRecorder) Replaced(int)                {}
func (nopRecorder) PatternFailed()              {}

// HighlightListener is told which parts of the buffer need repainting
// because their matches changed.
type HighlightListener interface {
	HighlightInvalidated(r buffer.Range)
}

// HighlightFunc adapts a function to HighlightListener.
type HighlightFunc func(r buffer.Range)

// HighlightInvalidated calls f(r).
func (f HighlightFunc) HighlightInvalidated(r buffer.Range) {
	f(r)
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLoop sets the loop that runs asynchronous searches and deferred
// highlight updates. Contexts sharing a buffer usually share a loop.
func WithLoop(l *loop.Loop) Option {
	return func(c *Context) {
		if l != nil {
			c.loop = l
		}
	}
}

// WithMetrics sets the activity recorder.
func WithMetrics(r Recorder) Option {
	return func(c *Context) {
		if r != nil {
			c.rec = r
		}
	}
}

// WithChunkSize sets the number of bytes scanned per step.
func WithChunkSize(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithContextLines sets how many lines around an edit are rescanned. A
// negative value selects the default, which follows the most newlines a
// match can hold: that count for literal searches, at least 2 for regular
// expressions, and the lookahead limit in bytes when a repetition leaves
// it unbounded.
func WithContextLines(n int) Option {
	return func(c *Context) {
		c.contextLines = n
	}
}

// WithLookaheadLines sets how many lines past a scanned region a regular
// expression match may extend. Expressions whose matches hold more
// newlines get one line more than that, and unbounded ones read up to the
// lookahead limit in bytes.
func WithLookaheadLines(n int) Option {
	return func(c *Context) {
		if n >= 0 {
			c.lookaheadLines = n
		}
	}
}

// WithLazyCounting makes OccurrencesCount and OccurrencePosition return
// immediately with an "unknown" result while parts of the buffer are
// unscanned, scheduling a background scan instead of blocking.
func WithLazyCounting() Option {
	return func(c *Context) {
		c.lazy = true
	}
}

// WithHighlightListener sets the listener told about repaint regions.
func WithHighlightListener(l HighlightListener) Option {
	return func(c *Context) {
		c.listener = l
	}
}

// WithHighlight sets the initial highlight flag. Highlighting is on by
// default.
func WithHighlight(enabled bool) Option {
	return func(c *Context) {
		c.highlight = enabled
	}
}
