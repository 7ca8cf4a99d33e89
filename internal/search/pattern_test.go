package search

import (
	"errors"
	"testing"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

func findAll(t *testing.T, q Query, text string) []buffer.Range {
	t.Helper()
	m, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(%+v) error = %v", q, err)
	}
	if m == nil {
		return nil
	}
	return m.find(window{text: text, limit: len(text) + 1})
}

func ranges(pairs ...int) []buffer.Range {
	var out []buffer.Range
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, buffer.Range{Start: buffer.ByteOffset(pairs[i]), End: buffer.ByteOffset(pairs[i+1])})
	}
	return out
}

func equalRanges(a, b []buffer.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompile_Empty(t *testing.T) {
	m, err := Compile(Query{})
	if m != nil || err != nil {
		t.Errorf("Compile(empty) = %v, %v; want nil, nil", m, err)
	}
}

func TestCompile_InvalidRegex(t *testing.T) {
	_, err := Compile(Query{Text: "a(b", Regex: true})
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !errors.Is(err, ErrPatternCompile) {
		t.Errorf("errors.Is(err, ErrPatternCompile) = false for %v", err)
	}
	var pe *PatternError
	if !errors.As(err, &pe) || pe.Pattern != "a(b" {
		t.Errorf("errors.As PatternError = %v", pe)
	}
	if errors.Unwrap(err) == nil {
		t.Error("PatternError should wrap the compile error")
	}
}

func TestCompile_LiteralIsNotRegex(t *testing.T) {
	got := findAll(t, Query{Text: "a.c", CaseSensitive: true}, "abc a.c")
	if want := ranges(4, 7); !equalRanges(got, want) {
		t.Errorf("literal a.c = %v, want %v", got, want)
	}
}

func TestMatcher_Find(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		text string
		want []buffer.Range
	}{
		{
			name: "literal case sensitive",
			q:    Query{Text: "Hello", CaseSensitive: true},
			text: "hello Hello HELLO",
			want: ranges(6, 11),
		},
		{
			name: "literal case insensitive",
			q:    Query{Text: "HELLO"},
			text: "hello Hello",
			want: ranges(0, 5, 6, 11),
		},
		{
			name: "literal non-overlapping",
			q:    Query{Text: "aa", CaseSensitive: true},
			text: "aaaaa",
			want: ranges(0, 2, 2, 4),
		},
		{
			name: "literal whole word",
			q:    Query{Text: "foo", CaseSensitive: true, AtWordBoundaries: true},
			text: "foo food _foo foo",
			want: ranges(0, 3, 14, 17),
		},
		{
			name: "whole word retries after rejected start",
			q:    Query{Text: "aa", CaseSensitive: true, AtWordBoundaries: true},
			text: "aaa aa",
			want: ranges(4, 6),
		},
		{
			name: "whole word rejects combining mark",
			q:    Query{Text: "cafe", CaseSensitive: true, AtWordBoundaries: true},
			text: "cafe\u0301 cafe",
			want: ranges(7, 11),
		},
		{
			name: "multi-line literal",
			q:    Query{Text: "b\nc", CaseSensitive: true},
			text: "ab\ncd",
			want: ranges(1, 4),
		},
		{
			name: "regex line anchors",
			q:    Query{Text: "^a", CaseSensitive: true, Regex: true},
			text: "ab\nab",
			want: ranges(0, 1, 3, 4),
		},
		{
			name: "regex end anchor",
			q:    Query{Text: "b$", CaseSensitive: true, Regex: true},
			text: "ab\nab",
			want: ranges(1, 2, 4, 5),
		},
		{
			name: "regex case insensitive",
			q:    Query{Text: "a+", Regex: true},
			text: "xAaAx a",
			want: ranges(1, 4, 6, 7),
		},
		{
			name: "regex whole word",
			q:    Query{Text: "ab?", Regex: true, CaseSensitive: true, AtWordBoundaries: true},
			text: "ab abc a",
			want: ranges(0, 2, 7, 8),
		},
		{
			name: "regex zero width",
			q:    Query{Text: "x*", Regex: true},
			text: "ab",
			want: ranges(0, 0, 1, 1, 2, 2),
		},
		{
			name: "zero width skips inside cluster",
			q:    Query{Text: "x*", Regex: true},
			text: "e\u0301",
			want: ranges(0, 0, 3, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findAll(t, tt.q, tt.text)
			if !equalRanges(got, tt.want) {
				t.Errorf("find(%q in %q) = %v, want %v", tt.q.Text, tt.text, got, tt.want)
			}
		})
	}
}

func TestMatcher_FindWindow(t *testing.T) {
	m, err := Compile(Query{Text: "ab", CaseSensitive: true})
	if err != nil {
		t.Fatal(err)
	}

	// Only starts in [lead, limit) count; the tail is lookahead.
	w := window{text: "ab ab ab", base: 100, lead: 1, limit: 4}
	got := m.find(w)
	if want := ranges(103, 105); !equalRanges(got, want) {
		t.Errorf("find(window) = %v, want %v", got, want)
	}
}

func TestMatcher_FindFromLead(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		w    window
		want []buffer.Range
	}{
		{
			name: "run continues past lead",
			q:    Query{Text: "a+", Regex: true, CaseSensitive: true},
			w:    window{text: "aaaa b a", lead: 2, limit: 8},
			want: ranges(2, 4, 7, 8),
		},
		{
			name: "word boundary sees the byte before lead",
			q:    Query{Text: `\ba`, Regex: true, CaseSensitive: true},
			w:    window{text: "aa ab", lead: 1, limit: 5},
			want: ranges(3, 4),
		},
		{
			name: "line anchor only after a newline",
			q:    Query{Text: "^b", Regex: true, CaseSensitive: true},
			w:    window{text: "ab\nb", lead: 1, limit: 4},
			want: ranges(3, 4),
		},
		{
			name: "multi-line alternative after lead",
			q:    Query{Text: "a\nb|bb", Regex: true, CaseSensitive: true},
			w:    window{text: "xa\nbbb", lead: 4, limit: 7},
			want: ranges(4, 6),
		},
		{
			name: "no empty match right after a match",
			q:    Query{Text: "x*", Regex: true, CaseSensitive: true},
			w:    window{text: "ab", lead: 1, limit: 3, afterMatch: true},
			want: ranges(2, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.find(tt.w); !equalRanges(got, tt.want) {
				t.Errorf("find = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Span(t *testing.T) {
	tests := []struct {
		q    Query
		want int
	}{
		{literal("ab"), 0},
		{literal("b\na\n"), 2},
		{Query{Text: "a.*b", Regex: true}, 0},
		{Query{Text: "a\nb|bb", Regex: true}, 1},
		{Query{Text: `\s`, Regex: true}, 1},
		{Query{Text: "[^x]{2}", Regex: true}, 2},
		{Query{Text: `(\n|x){3}\n?`, Regex: true}, 4},
		{Query{Text: "(?s).", Regex: true}, 1},
		{Query{Text: "a{0,3}", Regex: true}, 0},
		{Query{Text: "a\n+b", Regex: true}, -1},
		{Query{Text: `[\s\S]{2,}`, Regex: true}, -1},
	}
	for _, tt := range tests {
		m, err := Compile(tt.q)
		if err != nil {
			t.Fatalf("Compile(%q) error = %v", tt.q.Text, err)
		}
		if m.span != tt.want {
			t.Errorf("Compile(%q).span = %d, want %d", tt.q.Text, m.span, tt.want)
		}
	}
}

func TestMatcher_Replacement(t *testing.T) {
	re, err := Compile(Query{Text: `(\w+)@(?P<host>\w+)`, Regex: true, CaseSensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	w := window{text: "mail bob@example now", limit: 21}

	got, ok := re.replacement(w, 5, 16, `\2 at \g<host>: \1\n\\`)
	if !ok {
		t.Fatal("replacement reported stale match")
	}
	if want := "example at example: bob\n\\"; got != want {
		t.Errorf("replacement = %q, want %q", got, want)
	}

	if _, ok := re.replacement(w, 5, 15, `\0`); ok {
		t.Error("replacement should fail for a range that is not a match")
	}

	lit, err := Compile(Query{Text: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := lit.replacement(w, 5, 8, `\1\n`); got != `\1\n` {
		t.Errorf("literal replacement = %q, want it verbatim", got)
	}
}

func TestExpandTemplate(t *testing.T) {
	m, err := Compile(Query{Text: `(a)(b)?`, Regex: true, CaseSensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	src := "ac"
	loc := m.re.FindStringSubmatchIndex(src)

	tests := []struct {
		template string
		want     string
	}{
		{`plain`, "plain"},
		{`[\0]`, "[a]"},
		{`[\2]`, "[]"},
		{`\g<1>\g<9>`, "a"},
		{`\t\r`, "\t\r"},
		{`\q`, `\q`},
		{`\g<1`, `\g<1`},
		{`end\`, `end\`},
	}
	for _, tt := range tests {
		if got := expandTemplate(m.re, tt.template, src, loc); got != tt.want {
			t.Errorf("expandTemplate(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestIsWholeWord(t *testing.T) {
	tests := []struct {
		text       string
		start, end int
		want       bool
	}{
		{"foo bar", 0, 3, true},
		{"foo bar", 4, 7, true},
		{"foobar", 0, 3, false},
		{"x_foo", 2, 5, false},
		{"(foo)", 1, 4, true},
		{"\u00fcber", 0, 5, true},
		{"1foo", 1, 4, false},
	}
	for _, tt := range tests {
		w := window{text: tt.text, limit: len(tt.text)}
		if got := isWholeWord(w, tt.start, tt.end); got != tt.want {
			t.Errorf("isWholeWord(%q, %d, %d) = %v, want %v", tt.text, tt.start, tt.end, got, tt.want)
		}
	}
}

func TestIsClusterBoundary(t *testing.T) {
	text := "ae\u0301b" // a, e + combining acute, b
	tests := []struct {
		i    int
		want bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{4, true},
		{5, true},
	}
	for _, tt := range tests {
		if got := isClusterBoundary(text, tt.i); got != tt.want {
			t.Errorf("isClusterBoundary(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}
