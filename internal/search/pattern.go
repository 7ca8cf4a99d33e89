package search

import (
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
	"github.com/rivo/uniseg"
)

// Matcher finds occurrences of a compiled query in text windows.
type Matcher struct {
	re    *regexp.Regexp
	query Query

	// after matches one rune followed by the expression. Searching with
	// it from the rune before a position keeps that rune visible to
	// anchors and \b.
	after *regexp.Regexp

	// span is the most newlines a match can hold, or -1 without a bound.
	span int
}

// Compile builds a matcher for q. An empty search text yields a nil matcher
// and no error. An invalid regular expression yields a *PatternError.
func Compile(q Query) (*Matcher, error) {
	if q.Text == "" {
		return nil, nil
	}

	if !q.Regex {
		pattern := regexp.QuoteMeta(q.Text)
		if !q.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &PatternError{Pattern: q.Text, Err: err}
		}
		return &Matcher{re: re, query: q, span: strings.Count(q.Text, "\n")}, nil
	}

	flags := "(?m)"
	if !q.CaseSensitive {
		flags = "(?i)" + flags
	}
	re, err := regexp.Compile(flags + q.Text)
	if err != nil {
		return nil, &PatternError{Pattern: q.Text, Err: err}
	}
	after, err := regexp.Compile(flags + "(?s:.)(?:" + q.Text + ")")
	if err != nil {
		return nil, &PatternError{Pattern: q.Text, Err: err}
	}
	tree, err := syntax.Parse(flags+q.Text, syntax.Perl)
	if err != nil {
		return nil, &PatternError{Pattern: q.Text, Err: err}
	}
	return &Matcher{re: re, query: q, after: after, span: maxNewlines(tree)}, nil
}

// maxNewlines returns the most newlines a match of re can hold, or -1 when
// a repetition makes it unbounded.
func maxNewlines(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		n := 0
		for _, r := range re.Rune {
			if r == '\n' {
				n++
			}
		}
		return n
	case syntax.OpCharClass:
		for i := 0; i+1 < len(re.Rune); i += 2 {
			if re.Rune[i] <= '\n' && '\n' <= re.Rune[i+1] {
				return 1
			}
		}
		return 0
	case syntax.OpAnyChar:
		return 1
	case syntax.OpCapture, syntax.OpQuest:
		return maxNewlines(re.Sub[0])
	case syntax.OpStar, syntax.OpPlus:
		if maxNewlines(re.Sub[0]) != 0 {
			return -1
		}
		return 0
	case syntax.OpRepeat:
		n := maxNewlines(re.Sub[0])
		switch {
		case n == 0:
			return 0
		case n < 0 || re.Max < 0:
			return -1
		}
		return n * re.Max
	case syntax.OpConcat:
		total := 0
		for _, sub := range re.Sub {
			n := maxNewlines(sub)
			if n < 0 {
				return -1
			}
			total += n
		}
		return total
	case syntax.OpAlternate:
		most := 0
		for _, sub := range re.Sub {
			n := maxNewlines(sub)
			if n < 0 {
				return -1
			}
			most = max(most, n)
		}
		return most
	}
	return 0
}

// spansLines reports whether a match can cross a line break.
func (m *Matcher) spansLines() bool {
	return m.span != 0
}

// Query returns the query the matcher was compiled from.
func (m *Matcher) Query() Query {
	return m.query
}

// Regexp returns the underlying expression.
func (m *Matcher) Regexp() *regexp.Regexp {
	return m.re
}

// window is a slice of buffer text handed to the matcher. Matches may only
// start in text[lead:limit]; the bytes before lead and after limit are
// context for anchors and word checks. Searching starts at lead, so lead
// must not fall inside a match that starts earlier.
type window struct {
	text  string
	base  buffer.ByteOffset // buffer offset of text[0]
	lead  int
	limit int

	// afterMatch is set when a match ends at lead, which rules out an
	// empty match there.
	afterMatch bool
}

// find returns the matches that start in the window's search span, in
// order, as buffer ranges. It repeats single searches from lead: an
// accepted match moves the search to its end, and a candidate rejected by
// the extra checks is retried one character later.
func (m *Matcher) find(w window) []buffer.Range {
	var out []buffer.Range
	prevEnd := -1
	if w.afterMatch {
		prevEnd = w.lead
	}
	pos := w.lead
	for pos <= len(w.text) && pos < w.limit {
		loc := m.next(w.text, pos)
		if loc == nil || loc[0] >= w.limit {
			break
		}
		start, end := loc[0], loc[1]
		if (start == end && start == prevEnd) || !m.accept(w, start, end) {
			pos = start + runeLen(w.text, start)
			continue
		}
		out = append(out, buffer.Range{Start: w.base + buffer.ByteOffset(start), End: w.base + buffer.ByteOffset(end)})
		prevEnd, pos = end, end
		if start == end {
			pos += runeLen(w.text, end)
		}
	}
	return out
}

// next returns the leftmost match starting at or after pos.
func (m *Matcher) next(text string, pos int) []int {
	if !m.query.Regex {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			return nil
		}
		return []int{pos + loc[0], pos + loc[1]}
	}
	return m.searchFrom(text, pos, false)
}

// searchFrom returns the offsets of the leftmost regex match starting at
// or after pos, with its groups when groups is set. The rune before pos is
// searched with the after expression so that it is consumed but still seen
// as context.
func (m *Matcher) searchFrom(text string, pos int, groups bool) []int {
	search := func(re *regexp.Regexp, s string) []int {
		if groups {
			return re.FindStringSubmatchIndex(s)
		}
		return re.FindStringIndex(s)
	}
	if pos == 0 {
		return search(m.re, text)
	}
	_, size := utf8.DecodeLastRuneInString(text[:pos])
	from := pos - size
	loc := search(m.after, text[from:])
	if loc == nil {
		return nil
	}
	_, skip := utf8.DecodeRuneInString(text[from+loc[0]:])
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	loc[0] += skip
	return loc
}

// runeLen returns the width of the rune at i, or 1 at the end of text.
func runeLen(text string, i int) int {
	if i >= len(text) {
		return 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return max(size, 1)
}

// accept applies the checks that the expression itself cannot express.
// Empty matches inside a grapheme cluster are dropped so that positions
// between a base character and its combining marks are never reported.
func (m *Matcher) accept(w window, start, end int) bool {
	if start == end && !isClusterBoundary(w.text, start) {
		return false
	}
	return !m.query.AtWordBoundaries || isWholeWord(w, start, end)
}

// submatch returns the group offsets of the match covering exactly
// [start, end) within the window, relative to w.text, or nil.
func (m *Matcher) submatch(w window, start, end buffer.ByteOffset) []int {
	s, e := int(start-w.base), int(end-w.base)
	if s < 0 || e > len(w.text) {
		return nil
	}
	loc := m.searchFrom(w.text, s, true)
	if loc == nil || loc[0] != s || loc[1] != e {
		return nil
	}
	return loc
}

// Replacement returns the text that replaces the match at [start, end).
// Literal searches insert the replacement verbatim; regex searches expand
// group references. The second result is false if the window no longer
// holds that match.
func (m *Matcher) replacement(w window, start, end buffer.ByteOffset, template string) (string, bool) {
	if !m.query.Regex {
		return template, true
	}
	loc := m.submatch(w, start, end)
	if loc == nil {
		return "", false
	}
	return expandTemplate(m.re, template, w.text, loc), true
}

// isWholeWord reports whether text[start:end] is not glued to a word
// character on either side. Boundaries are taken at grapheme clusters, so
// a match that ends before a combining mark is rejected.
func isWholeWord(w window, start, end int) bool {
	if start < end {
		if !isClusterBoundary(w.text, start) || !isClusterBoundary(w.text, end) {
			return false
		}
	}
	if r, ok := clusterBefore(w.text, start); ok && isWordRune(r) {
		return false
	}
	if r, ok := clusterAt(w.text, end); ok && isWordRune(r) {
		return false
	}
	return true
}

// isWordRune is the word character class: letters, digits, marks and
// connector punctuation such as '_'.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.Is(unicode.Pc, r)
}

// clusterLookback bounds how far back a cluster boundary is searched.
const clusterLookback = 32

// clusterStart returns a rune-aligned offset at least a few clusters
// before i to start segmenting from.
func clusterStart(text string, i int) int {
	from := max(i-clusterLookback, 0)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	return from
}

// isClusterBoundary reports whether offset i falls between two grapheme
// clusters of text.
func isClusterBoundary(text string, i int) bool {
	if i <= 0 || i >= len(text) {
		return true
	}
	rest := text[clusterStart(text, i):]
	pos := len(text) - len(rest)
	state := -1
	for len(rest) > 0 && pos < i {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += len(cluster)
	}
	return pos == i
}

// clusterBefore returns the first rune of the grapheme cluster that ends
// at offset i.
func clusterBefore(text string, i int) (rune, bool) {
	if i <= 0 {
		return 0, false
	}
	rest := text[clusterStart(text, i):i]
	var last string
	state := -1
	for len(rest) > 0 {
		last, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
	}
	r, _ := utf8.DecodeRuneInString(last)
	return r, true
}

// clusterAt returns the first rune of the grapheme cluster starting at i.
func clusterAt(text string, i int) (rune, bool) {
	if i >= len(text) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return r, true
}
