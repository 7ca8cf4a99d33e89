package search

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// Query is a snapshot of the settings a matcher is compiled from.
type Query struct {
	Text             string
	CaseSensitive    bool
	AtWordBoundaries bool
	Regex            bool
	WrapAround       bool
}

// Settings holds the search parameters observed by search contexts. One
// Settings value may be shared by several contexts.
type Settings struct {
	mu     sync.Mutex
	q      Query
	subs   []settingsSub
	nextID uint64
}

type settingsSub struct {
	id uint64
	fn func(Query)
}

// NewSettings returns settings with an empty search text, case-insensitive
// matching and everything else off.
func NewSettings() *Settings {
	return &Settings{}
}

// NewSettingsFrom returns settings initialized from q.
func NewSettingsFrom(q Query) *Settings {
	q.Text = sanitizeText(q.Text)
	return &Settings{q: q}
}

// Query returns the current values.
func (s *Settings) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q
}

// Subscribe registers fn to run after every change. The returned function
// removes it.
func (s *Settings) Subscribe(fn func(Query)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, settingsSub{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SearchText returns the text to search for.
func (s *Settings) SearchText() string { return s.Query().Text }

// CaseSensitive reports whether matching is case sensitive.
func (s *Settings) CaseSensitive() bool { return s.Query().CaseSensitive }

// AtWordBoundaries reports whether matches must be whole words.
func (s *Settings) AtWordBoundaries() bool { return s.Query().AtWordBoundaries }

// RegexEnabled reports whether the search text is a regular expression.
func (s *Settings) RegexEnabled() bool { return s.Query().Regex }

// WrapAround reports whether navigation wraps at the buffer ends.
func (s *Settings) WrapAround() bool { return s.Query().WrapAround }

// SetSearchText sets the text to search for. Invalid UTF-8 is replaced with
// U+FFFD. An empty string disables the search.
func (s *Settings) SetSearchText(text string) {
	text = sanitizeText(text)
	s.update(func(q *Query) { q.Text = text })
}

// SetCaseSensitive sets case sensitivity.
func (s *Settings) SetCaseSensitive(v bool) {
	s.update(func(q *Query) { q.CaseSensitive = v })
}

// SetAtWordBoundaries restricts matches to whole words.
func (s *Settings) SetAtWordBoundaries(v bool) {
	s.update(func(q *Query) { q.AtWordBoundaries = v })
}

// SetRegexEnabled switches between literal and regular expression search.
func (s *Settings) SetRegexEnabled(v bool) {
	s.update(func(q *Query) { q.Regex = v })
}

// SetWrapAround sets wrap-around navigation.
func (s *Settings) SetWrapAround(v bool) {
	s.update(func(q *Query) { q.WrapAround = v })
}

// Set replaces every value at once with a single notification.
func (s *Settings) Set(q Query) {
	q.Text = sanitizeText(q.Text)
	s.update(func(cur *Query) { *cur = q })
}

// update applies fn and notifies subscribers if anything changed.
func (s *Settings) update(fn func(*Query)) {
	s.mu.Lock()
	before := s.q
	fn(&s.q)
	after := s.q
	subs := s.subs
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, sub := range subs {
		sub.fn(after)
	}
}

func sanitizeText(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, string(utf8.RuneError))
}
