// Package search implements incremental search and replace over a
// buffer.Buffer.
//
// A Context pairs a buffer with Settings and keeps an index of the matches
// found so far. Edits to the buffer drop the matches around the edit and
// mark the surrounding lines for rescanning; settings changes discard the
// whole index. Queries scan only what they need: Forward scans toward the
// next match, OccurrencesCount scans everything. Asynchronous searches scan
// one chunk per step on a loop.Loop and can be cancelled.
//
// Literal and regular expression searches are supported. Regular
// expressions use RE2 syntax with ^ and $ matching at line boundaries.
// Whole-word matching and empty matches respect grapheme cluster
// boundaries.
package search
