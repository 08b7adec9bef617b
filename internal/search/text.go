package search

import (
	"sort"
	"strings"
)

// Segment is the extracted text of one content document, tagged with the
// document's archive-internal name.
type Segment struct {
	Name string
	Text string
}

// Text is the concatenated extracted text of one file in reading order,
// with an offset table mapping positions back to the originating segment.
// A Text is owned by the worker that built it and discarded after matching.
type Text struct {
	value  string
	starts []int    // starts[i] is the offset of segment i in value
	names  []string // names[i] is the segment name
}

// NewText concatenates segments in order, separated by a single newline so
// that no pattern can match across a document boundary without a separator.
// Empty segments are dropped.
func NewText(segments []Segment) *Text {
	t := &Text{}
	var b strings.Builder
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		t.starts = append(t.starts, b.Len())
		t.names = append(t.names, seg.Name)
		b.WriteString(seg.Text)
	}
	t.value = b.String()
	return t
}

// Value returns the full concatenated text.
func (t *Text) Value() string {
	return t.value
}

// Len returns the length of the concatenated text in bytes.
func (t *Text) Len() int {
	return len(t.value)
}

// Locate maps a byte offset in the concatenated text to the name of the
// originating segment and the offset local to it. Offsets falling on a
// separator belong to the preceding segment.
func (t *Text) Locate(off int) (name string, local int) {
	if len(t.starts) == 0 {
		return "", 0
	}
	// First segment whose start is > off, minus one.
	i := sort.SearchInts(t.starts, off+1) - 1
	if i < 0 {
		i = 0
	}
	return t.names[i], off - t.starts[i]
}
