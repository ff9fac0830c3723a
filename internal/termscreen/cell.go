package termscreen

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vito/midterm"
)

// Cell is one grid position: a Unicode scalar (or a wide-char continuation
// marker) plus the style in effect when it was written.
type Cell struct {
	Rune             rune
	WideContinuation bool
	Style            Style
}

// Line is one row of a Screen's viewport, as handed to the renderer.
// WrappedFromPrevious mirrors the source line's soft-wrap flag, used by
// copy-mode and reflow-aware consumers to tell a wrapped continuation
// from a hard newline.
type Line struct {
	Cells               []Cell
	WrappedFromPrevious bool
}

// String renders a Line back to plain text, continuation cells omitted,
// primarily for tests and debugging.
func (l Line) String() string {
	out := make([]rune, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c.WideContinuation {
			continue
		}
		out = append(out, c.Rune)
	}
	return string(out)
}

// renderLineANSI writes l back out as an SGR-styled string, resetting
// between runs of differing style the same way RenderLineFrom does
// against midterm directly — used for the scrollback path, which stores
// and replays whole lines rather than re-decoding per frame.
func renderLineANSI(l Line) string {
	var b strings.Builder
	var cur Style
	have := false
	for _, c := range l.Cells {
		if c.WideContinuation {
			continue
		}
		if !have || c.Style != cur {
			b.WriteString(encodeSGR(c.Style))
			cur = c.Style
			have = true
		}
		b.WriteRune(c.Rune)
	}
	b.WriteString("\x1b[0m")
	return b.String()
}

// snapshotLine converts row `row` of t into a Line, decoding the SGR runs
// midterm's Format.Regions reports into our own Style representation and
// inserting a WideContinuation cell after every double-width rune so
// column indices in the Line match the screen's column indices exactly.
func snapshotLine(t *midterm.Terminal, row int) Line {
	if row < 0 || row >= len(t.Content) {
		return Line{}
	}
	raw := t.Content[row]

	var cells []Cell
	var pos int
	var lastFormat midterm.Format
	style := Style{}
	haveFormat := false
	for region := range t.Format.Regions(row) {
		f := region.F
		if !haveFormat || f != lastFormat {
			style = decodeSGR(f.Render(), Style{})
			lastFormat = f
			haveFormat = true
		}
		end := pos + region.Size
		for i := pos; i < end && i < len(raw); i++ {
			r := rune(raw[i])
			cells = append(cells, Cell{Rune: r, Style: style})
			if runewidth.RuneWidth(r) == 2 {
				cells = append(cells, Cell{Rune: 0, WideContinuation: true, Style: style})
			}
		}
		pos = end
	}
	return Line{Cells: cells}
}
