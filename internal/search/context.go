package search

import (
	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/dshills/sourcesearch/internal/logging"
	"github.com/dshills/sourcesearch/internal/loop"
)

// Context keeps the matches of one Settings in one Buffer up to date while
// the buffer is edited. Several contexts may observe the same buffer.
//
// A Context is not safe for concurrent use. It must be driven from the
// goroutine that edits the buffer and runs its loop.
type Context struct {
	buf      *buffer.Buffer
	settings *Settings

	matcher  *Matcher
	regexErr error
	ix       *index
	query    Query // last compiled query, wrap-around cleared
	compiled bool

	// gen changes on every edit and settings change so that asynchronous
	// work can tell its snapshot is out of date.
	gen       uint64
	replacing bool
	closed    bool
	highlight bool

	unsubBuffer   func()
	unsubSettings func()

	tasks         map[*Task]struct{}
	countJob      loop.Handle
	highlightJob  loop.Handle
	highlightWant regionSet

	log            *logging.Logger
	loop           *loop.Loop
	rec            Recorder
	listener       HighlightListener
	chunkSize      int
	contextLines   int
	lookaheadLines int
	lazy           bool
}

// New creates a context searching buf with settings. A nil settings gets a
// fresh empty Settings.
func New(buf *buffer.Buffer, settings *Settings, opts ...Option) *Context {
	c := &Context{
		buf:            buf,
		ix:             &index{},
		highlight:      true,
		tasks:          make(map[*Task]struct{}),
		log:            logging.Discard(),
		rec:            nopRecorder{},
		chunkSize:      DefaultChunkSize,
		contextLines:   -1,
		lookaheadLines: DefaultLookaheadLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loop == nil {
		c.loop = loop.New()
	}
	c.log = c.log.WithComponent("search")

	c.unsubBuffer = buf.Subscribe(buffer.ListenerFunc(c.bufferChanged))
	c.attach(settings)
	return c
}

// Close detaches the context from its buffer and settings and cancels
// pending work. Queries on a closed context report no matches.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.unsubBuffer()
	c.unsubSettings()
	for t := range c.tasks {
		t.finish(Match{}, false, ErrClosed)
	}
	c.countJob.Cancel()
	c.highlightJob.Cancel()
	c.matcher = nil
	c.ix.reset(0)
	c.log.Debug("context closed")
}

// Buffer returns the searched buffer.
func (c *Context) Buffer() *buffer.Buffer {
	return c.buf
}

// Settings returns the observed settings.
func (c *Context) Settings() *Settings {
	return c.settings
}

// SetSettings replaces the observed settings. A nil value installs a fresh
// empty Settings.
func (c *Context) SetSettings(s *Settings) {
	if c.closed || s == c.settings {
		return
	}
	c.unsubSettings()
	c.attach(s)
}

// Loop returns the loop running asynchronous work.
func (c *Context) Loop() *loop.Loop {
	return c.loop
}

// Highlight reports whether highlight updates are produced.
func (c *Context) Highlight() bool {
	return c.highlight
}

// SetHighlight turns highlight updates on or off. Turning them on asks the
// listener to repaint the whole buffer.
func (c *Context) SetHighlight(enabled bool) {
	if c.highlight == enabled {
		return
	}
	c.highlight = enabled
	if enabled {
		c.invalidateHighlight(buffer.Range{Start: 0, End: c.buf.Len()})
	} else {
		c.highlightJob.Cancel()
		c.highlightWant.clear()
	}
}

// RegexError returns the compile error of the current regular expression,
// or nil.
func (c *Context) RegexError() error {
	return c.regexErr
}

func (c *Context) attach(s *Settings) {
	if s == nil {
		s = NewSettings()
	}
	c.settings = s
	c.unsubSettings = s.Subscribe(func(Query) { c.settingsChanged() })
	c.settingsChanged()
}

func (c *Context) settingsChanged() {
	if c.closed {
		return
	}
	q := c.settings.Query()
	key := q
	key.WrapAround = false
	if c.compiled && key == c.query {
		// Only navigation changed; the matches are the same.
		if c.matcher != nil {
			c.matcher.query.WrapAround = q.WrapAround
		}
		return
	}
	c.query, c.compiled = key, true
	c.gen++

	m, err := Compile(q)
	c.matcher = m
	c.regexErr = err
	length := c.buf.Len()
	if err != nil {
		c.rec.PatternFailed()
		c.log.WithField("pattern", q.Text).Warn("regex compile failed: %v", err)
	}
	if m == nil {
		c.ix.reset(length)
	} else {
		c.ix.invalidateAll(length)
	}
	c.countJob.Cancel()
	c.highlightWant.clear()
	c.invalidateHighlight(buffer.Range{Start: 0, End: length})
}

func (c *Context) bufferChanged(change buffer.Change) {
	if c.closed {
		return
	}
	c.gen++
	if c.replacing {
		return
	}
	if c.matcher == nil {
		c.ix.reset(c.buf.Len())
		return
	}

	dirty := c.dirtyWindow(change.NewRange)
	c.ix.applyChange(change, dirty)
	c.highlightWant.applyChange(change)
	c.invalidateHighlight(dirty)
}

// effectiveContextLines resolves the rescan margin for the current
// pattern. A match holding up to n newlines can reach an edit from n lines
// above it. The result is -1 when matches have no such bound.
func (c *Context) effectiveContextLines() int {
	if c.contextLines >= 0 {
		return c.contextLines
	}
	if c.matcher == nil {
		return 0
	}
	if c.matcher.span < 0 {
		return -1
	}
	if c.matcher.query.Regex {
		return max(DefaultRegexContext, c.matcher.span)
	}
	return c.matcher.span
}

// dirtyWindow expands an edited range to whole lines, trailing newline
// included, plus the context margin on both sides. Without a line bound
// the margin before the edit is the lookahead limit.
func (c *Context) dirtyWindow(r buffer.Range) buffer.Range {
	length := c.buf.Len()
	lines := c.effectiveContextLines()

	start := c.buf.LineStartAt(r.Start)
	if lines < 0 {
		start = c.buf.LineStartAt(max(r.Start-maxLookahead, 0))
		lines = DefaultRegexContext
	}
	for i := 0; i < lines && start > 0; i++ {
		start = c.buf.LineStartAt(start - 1)
	}

	end := c.buf.LineEndAt(r.End)
	if end < length {
		end++
	}
	for i := 0; i < lines && end < length; i++ {
		end = c.buf.LineEndAt(end)
		if end < length {
			end++
		}
	}
	return buffer.Range{Start: start, End: end}
}
