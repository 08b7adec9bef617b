// Package output renders final results and on-demand progress snapshots.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"epubgrep/internal/scan"
	"epubgrep/internal/search"
)

// Renderer writes file results and progress snapshots to a single writer.
// Color is used only when the writer is a terminal and not disabled.
type Renderer struct {
	w     io.Writer
	path  *color.Color
	count *color.Color
	match *color.Color
	dim   *color.Color
}

// NewRenderer creates a Renderer for w. noColor forces plain output;
// otherwise color is enabled when w is a TTY.
func NewRenderer(w io.Writer, noColor bool) *Renderer {
	useColor := !noColor
	if f, ok := w.(*os.File); ok {
		useColor = useColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	} else {
		useColor = false
	}

	r := &Renderer{
		w:     w,
		path:  color.New(color.FgMagenta),
		count: color.New(color.FgGreen),
		match: color.New(color.FgRed, color.Bold),
		dim:   color.New(color.FgCyan),
	}
	if !useColor {
		for _, c := range []*color.Color{r.path, r.count, r.match, r.dim} {
			c.DisableColor()
		}
	}
	return r
}

// Result prints one file result: "path: count" in grep style, the title when
// known, and the retained previews with the matched substring highlighted.
func (r *Renderer) Result(res search.FileResult) {
	line := fmt.Sprintf("%s: %s", r.path.Sprint(res.Path), r.count.Sprintf("%d", res.Count))
	if res.Title != "" {
		line += fmt.Sprintf(" (%s)", res.Title)
	}
	fmt.Fprintln(r.w, line)

	for _, p := range res.Previews {
		snippet := r.highlight(p)
		fmt.Fprintf(r.w, "  %s %s\n", r.dim.Sprintf("[%s]", p.Document), snippet)
	}
}

// highlight wraps the match inside the snippet in the match color and
// flattens separators so each preview stays on one line.
func (r *Renderer) highlight(p search.Preview) string {
	before := p.Snippet[:p.MatchStart]
	matched := p.Snippet[p.MatchStart:p.MatchEnd]
	after := p.Snippet[p.MatchEnd:]
	s := before + r.match.Sprint(matched) + after
	return strings.ReplaceAll(s, "\n", " ")
}

// Status prints a progress snapshot in a single burst, suitable for the
// out-of-band signal dump while a scan is running.
func (r *Renderer) Status(sn scan.Snapshot) {
	var b strings.Builder
	fmt.Fprintf(&b, "scanned %d/%d files (%.1f/s), %d skipped, %d failed\n",
		sn.Completed, sn.Total, sn.Rate(), sn.Skipped, sn.Failed)
	for _, p := range sn.InFlight {
		fmt.Fprintf(&b, "  scanning %s\n", p)
	}
	fmt.Fprint(r.w, b.String())
}
