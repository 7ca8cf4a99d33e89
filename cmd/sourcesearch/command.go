package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/dshills/sourcesearch/internal/fileio"
	"github.com/dshills/sourcesearch/internal/loop"
	"github.com/dshills/sourcesearch/internal/search"
)

var errNoMatch = errors.New("no match")

// command runs one search operation against a loaded document.
type command struct {
	ctx    context.Context
	sc     *search.Context
	loop   *loop.Loop
	doc    *fileio.Document
	stdout io.Writer
	stderr io.Writer
}

// total returns the number of matches, driving the loop when counting is
// lazy.
func (c *command) total() (int, error) {
	n := c.sc.OccurrencesCount()
	if n >= 0 {
		return n, nil
	}
	if err := c.loop.RunUntilIdle(c.ctx); err != nil {
		return 0, err
	}
	return c.sc.OccurrencesCount(), nil
}

func (c *command) count() error {
	n, err := c.total()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, n)
	if n == 0 {
		return errNoMatch
	}
	return nil
}

func (c *command) list() error {
	n, err := c.total()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoMatch
	}
	buf := c.doc.Buffer
	for _, m := range c.sc.Matches(buffer.Range{Start: 0, End: buf.Len()}) {
		c.printMatch(m)
	}
	return nil
}

func (c *command) find(pos buffer.ByteOffset, forward bool) error {
	var task *search.Task
	if forward {
		task = c.sc.ForwardAsync(c.ctx, pos)
	} else {
		task = c.sc.BackwardAsync(c.ctx, pos)
	}
	if err := c.loop.RunUntilIdle(c.ctx); err != nil {
		task.Cancel()
	}

	m, found, err := task.Finish()
	if err != nil {
		return err
	}
	if !found {
		return errNoMatch
	}
	if m.Wrapped {
		fmt.Fprintln(c.stderr, "search wrapped around")
	}
	c.printMatch(m)
	if rank := c.sc.OccurrencePosition(m.Start, m.End); rank > 0 {
		fmt.Fprintf(c.stderr, "match %d of %d\n", rank, c.sc.OccurrencesCount())
	}
	return nil
}

func (c *command) replaceAll(text, output string) error {
	n, err := c.sc.ReplaceAll(text)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "replaced %d occurrences\n", n)

	if output == "" {
		err = c.doc.Encode(c.stdout)
	} else {
		err = c.doc.Save(output)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoMatch
	}
	return nil
}

// printMatch writes "line:col: text" with 1-based coordinates and the
// first line of the match.
func (c *command) printMatch(m search.Match) {
	buf := c.doc.Buffer
	p := buf.OffsetToPoint(m.Start)
	line := strings.TrimRight(buf.LineText(p.Line), "\r\n")
	fmt.Fprintf(c.stdout, "%s: %s\n", p, line)
}
