// Package search compiles the user pattern once and scans extracted text,
// producing match counts and bounded context previews.
package search

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Match is one pattern occurrence: byte offsets into the scanned Text.
// Matches are produced non-overlapping, leftmost-first.
type Match struct {
	Start int
	End   int
}

// Preview is a bounded text window around one match. MatchStart and MatchEnd
// are byte offsets of the match within Snippet, for highlighting.
type Preview struct {
	Snippet    string
	MatchStart int
	MatchEnd   int
	Document   string // archive-internal name of the originating document
}

// FileResult is the final per-file outcome handed to output.
type FileResult struct {
	Path     string
	Title    string
	Count    int
	Previews []Preview
}

// Engine scans extracted text against a pattern compiled exactly once.
// An Engine is immutable after Compile and safe for concurrent use.
type Engine struct {
	re          *regexp.Regexp
	lead        int // context runes before a match
	lag         int // context runes after a match
	maxPreviews int // 0 disables previews
}

// Compile builds an Engine. Case sensitivity is fixed at compile time;
// a compilation failure is fatal to the whole run since the pattern is
// shared by every file.
func Compile(pattern string, ignoreCase bool, lead, lag, maxPreviews uint) (*Engine, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return &Engine{
		re:          re,
		lead:        int(lead),
		lag:         int(lag),
		maxPreviews: int(maxPreviews),
	}, nil
}

// Matches returns all non-overlapping, leftmost-first occurrences of the
// pattern in t, in ascending offset order.
func (e *Engine) Matches(t *Text) []Match {
	locs := e.re.FindAllStringIndex(t.Value(), -1)
	if locs == nil {
		return nil
	}
	out := make([]Match, len(locs))
	for i, loc := range locs {
		out[i] = Match{Start: loc[0], End: loc[1]}
	}
	return out
}

// Search scans t and returns the total match count and, when previews are
// enabled, windows for the first maxPreviews matches in match order.
func (e *Engine) Search(t *Text) (count int, previews []Preview) {
	matches := e.Matches(t)
	if len(matches) == 0 {
		return 0, nil
	}
	if e.maxPreviews > 0 {
		n := min(len(matches), e.maxPreviews)
		previews = make([]Preview, 0, n)
		for _, m := range matches[:n] {
			previews = append(previews, e.preview(t, m))
		}
	}
	return len(matches), previews
}

// preview builds the bounded window [start-lead, end+lag] around m, measured
// in runes and clipped at the text bounds. The window never extends past the
// extracted text; document-boundary clipping is intentionally not performed,
// the separator character is context like any other.
func (e *Engine) preview(t *Text, m Match) Preview {
	s := t.Value()
	start := runesBack(s, m.Start, e.lead)
	end := runesForward(s, m.End, e.lag)
	doc, _ := t.Locate(m.Start)
	return Preview{
		Snippet:    s[start:end],
		MatchStart: m.Start - start,
		MatchEnd:   m.End - start,
		Document:   doc,
	}
}

// runesBack steps at most n runes backwards from byte offset off.
func runesBack(s string, off, n int) int {
	for i := 0; i < n && off > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:off])
		off -= size
	}
	return off
}

// runesForward steps at most n runes forwards from byte offset off.
func runesForward(s string, off, n int) int {
	for i := 0; i < n && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}
