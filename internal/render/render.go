// Package render composes one client's full-screen frame from its
// arrangement tree and the per-pane screens the tree's leaves name:
// pane content, borders and title bars, the status bar, and any
// message/command-line overlay. Grounded on the teacher's
// client.RenderScreen/RenderLineFrom/RenderStatusBar (internal/session
// /client/render.go) — the DECSC/DECRC bracketing and the per-row
// "\033[row;colH" + content + erase pattern — generalized from one
// full-width pane to an arbitrary rectangle per leaf of the split tree.
package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"pymux/internal/arrangement"
	"pymux/internal/termscreen"
)

// PaneScreens resolves a pane's live terminal so its content can be
// drawn; returns nil for a pane whose process has not started a screen
// yet (rendered as blank).
type PaneScreens func(arrangement.PaneID) *termscreen.Screen

// Theme holds the SGR sequences used for chrome the panes themselves
// don't draw: borders, title bars, the status line, and the background
// fill shown in a client's surplus viewport beyond its window's shared
// content area.
type Theme struct {
	ActiveBorder   string
	InactiveBorder string
	ActiveTitle    string
	InactiveTitle  string
	StatusBar      string
	Background     string
}

// DefaultTheme mirrors tmux's stock look: green active border, gray
// inactive border, black-on-green status bar.
func DefaultTheme() Theme {
	return Theme{
		ActiveBorder:   "\x1b[32m",
		InactiveBorder: "\x1b[90m",
		ActiveTitle:    "\x1b[32;1m",
		InactiveTitle:  "\x1b[90m",
		StatusBar:      "\x1b[30;42m",
		Background:     "\x1b[2;90m",
	}
}

// WindowTab is one entry in the status bar's window list.
type WindowTab struct {
	Index int
	Name  string
	Active bool
	Bell   bool
}

// Status is the information the status bar composes, supplied by the
// engine (spec.md §4.D / §6's status line).
type Status struct {
	SessionName string
	Windows     []WindowTab
	Clock       string
}

// Overlay replaces the status bar with a command-line prompt or a
// one-line message/confirmation, per spec.md §4.E's command-mode and
// confirmation states.
type Overlay struct {
	Message      string // plain status message, e.g. "no such command"
	Prompt       string // prefix shown before the editable buffer, e.g. ":"
	Buffer       string // the editable text itself
	CursorOffset int    // rune offset of the cursor within Buffer, -1 to hide
}

// Frame is one composed client update: the bytes to write verbatim to
// the client's output stream, plus where the real cursor should end up.
type Frame struct {
	Data          []byte
	CursorRow     int // 1-based
	CursorCol     int // 1-based
	CursorVisible bool
}

// Renderer composes frames using a fixed Theme. It holds no per-client
// state — Compose's offsets argument carries copy-mode scroll position explicitly so
// Compose stays a pure function of its arguments.
type Renderer struct {
	Theme Theme
}

// New returns a Renderer using DefaultTheme.
func New() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// Compose draws window's tree for client into a rows x cols frame: the
// top rows-1 rows hold panes (bordered and titled when the window has
// more than one), and the final row holds the status bar or, when
// overlay is non-nil, the command-line/message line it describes.
// winRows/winCols give the window's shared content area — the
// intersection of every client currently viewing it (spec.md §4.D/§8)
// — which may be smaller than this client's own rows/cols; any surplus
// on the right and/or bottom of this client's viewport is filled with a
// background dot pattern rather than stretched pane content. offsets
// gives the copy-mode scroll offset for panes currently in copy mode
// (spec.md §4.E); a pane absent from offsets, or not in copy mode,
// renders its live viewport.
func (r *Renderer) Compose(win *arrangement.Window, client arrangement.ClientID, screens PaneScreens, rows, cols, winRows, winCols int, status Status, overlay *Overlay, offsets map[arrangement.PaneID]int) Frame {
	return r.ComposeWithClocks(win, client, screens, rows, cols, winRows, winCols, status, overlay, offsets, nil)
}

// ComposeWithClocks is Compose extended with clocks, a pane-keyed clock
// face (spec.md §6's clock-mode) shown in place of the pane's live
// content for any pane present in the map.
func (r *Renderer) ComposeWithClocks(win *arrangement.Window, client arrangement.ClientID, screens PaneScreens, rows, cols, winRows, winCols int, status Status, overlay *Overlay, offsets map[arrangement.PaneID]int, clocks map[arrangement.PaneID]string) Frame {
	var buf strings.Builder
	available := rows - 1
	if available < 0 {
		available = 0
	}
	contentRows := clamp(winRows, 0, available)
	contentCols := clamp(winCols, 0, cols)

	active := win.ActivePane(client)
	panes := win.Panes()
	showBorders := len(panes) > 1

	cur := frameCursor{row: 1, col: 1, visible: true}
	if win.Zoom {
		if p := win.Pane(active); p != nil {
			rect := arrangement.Rect{Row: 0, Col: 0, Rows: contentRows, Cols: contentCols}
			win.SetRect(p.ID, rect)
			r.drawPane(&buf, p, rect, false, true, screens, offsets, clocks, &cur)
		}
	} else {
		r.renderNode(&buf, win, win.Root, arrangement.Rect{Row: 0, Col: 0, Rows: contentRows, Cols: contentCols}, showBorders, active, screens, offsets, clocks, &cur)
	}

	// A client whose own viewport exceeds the window's shared content
	// area (another, smaller client is also looking at this window)
	// gets the leftover strip on the right and/or the band below filled
	// with a dot pattern instead of stretched pane content.
	if cols > contentCols {
		r.fillBackground(&buf, 0, contentRows, contentCols, cols-contentCols)
	}
	if available > contentRows {
		r.fillBackground(&buf, contentRows, available-contentRows, 0, cols)
	}

	r.drawStatusLine(&buf, rows, cols, status, overlay)
	if overlay != nil && overlay.CursorOffset >= 0 {
		cur.row = rows
		cur.col = 1 + runewidth.StringWidth(overlay.Prompt) + runewidth.StringWidth(firstRunes(overlay.Buffer, overlay.CursorOffset))
		cur.visible = true
	}

	return Frame{Data: []byte(buf.String()), CursorRow: cur.row, CursorCol: cur.col, CursorVisible: cur.visible}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fillBackground paints a rowCount x colCount block starting at
// (rowStart, colStart) with a repeating dot pattern, used for the area
// of a client's viewport beyond its window's shared content size.
func (r *Renderer) fillBackground(buf *strings.Builder, rowStart, rowCount, colStart, colCount int) {
	if rowCount <= 0 || colCount <= 0 {
		return
	}
	pattern := strings.Repeat("·", colCount)
	for i := 0; i < rowCount; i++ {
		fmt.Fprintf(buf, "\x1b[%d;%dH%s%s\x1b[0m", rowStart+i+1, colStart+1, r.Theme.Background, pattern)
	}
}

type frameCursor struct {
	row, col int
	visible  bool
}

// renderNode recursively lays out n within rect, drawing separators
// between a Split's children and recording each pane's allocated Rect on
// win so FocusDirectional has up-to-date geometry for the next input
// event.
func (r *Renderer) renderNode(buf *strings.Builder, win *arrangement.Window, n arrangement.Node, rect arrangement.Rect, showBorders bool, active arrangement.PaneID, screens PaneScreens, offsets map[arrangement.PaneID]int, clocks map[arrangement.PaneID]string, cur *frameCursor) {
	switch v := n.(type) {
	case *arrangement.Pane:
		win.SetRect(v.ID, rect)
		r.drawPane(buf, v, rect, showBorders, v.ID == active, screens, offsets, clocks, cur)
	case *arrangement.Split:
		children := v.Children
		if len(children) == 0 {
			return
		}
		if v.Orientation == arrangement.Horizontal {
			sizes := distribute(rect.Rows, v.Weights)
			row := rect.Row
			for i, child := range children {
				h := sizes[i]
				r.renderNode(buf, win, child, arrangement.Rect{Row: row, Col: rect.Col, Rows: h, Cols: rect.Cols}, showBorders, active, screens, offsets, clocks, cur)
				row += h
				if i < len(children)-1 && row < rect.Row+rect.Rows {
					r.drawHSeparator(buf, row, rect.Col, rect.Cols)
					row++
				}
			}
		} else {
			sizes := distribute(rect.Cols, v.Weights)
			col := rect.Col
			for i, child := range children {
				w := sizes[i]
				r.renderNode(buf, win, child, arrangement.Rect{Row: rect.Row, Col: col, Rows: rect.Rows, Cols: w}, showBorders, active, screens, offsets, clocks, cur)
				col += w
				if i < len(children)-1 && col < rect.Col+rect.Cols {
					r.drawVSeparator(buf, rect.Row, col, rect.Rows)
					col++
				}
			}
		}
	}
}

// distribute splits total among weights using the largest-remainder
// method so the parts sum exactly to total, then clamps every part to
// at least 1 (a degenerate case when total is smaller than len(weights),
// which the arrangement package's own resize clamp otherwise prevents).
func distribute(total int, weights []int) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	sum := 0
	for _, w := range weights {
		if w < 1 {
			w = 1
		}
		sum += w
	}
	sizes := make([]int, n)
	remainders := make([]float64, n)
	allocated := 0
	for i, w := range weights {
		if w < 1 {
			w = 1
		}
		exact := float64(total) * float64(w) / float64(sum)
		sizes[i] = int(exact)
		remainders[i] = exact - float64(sizes[i])
		allocated += sizes[i]
	}
	remaining := total - allocated
	for remaining > 0 {
		best := 0
		for i := 1; i < n; i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		sizes[best]++
		remainders[best] = -1
		remaining--
	}
	for i := range sizes {
		if sizes[i] < 1 {
			sizes[i] = 1
		}
	}
	return sizes
}

func (r *Renderer) drawHSeparator(buf *strings.Builder, row, col, width int) {
	fmt.Fprintf(buf, "\x1b[%d;%dH%s%s\x1b[0m", row+1, col+1, r.Theme.InactiveBorder, strings.Repeat("─", width))
}

func (r *Renderer) drawVSeparator(buf *strings.Builder, row, col, height int) {
	for i := 0; i < height; i++ {
		fmt.Fprintf(buf, "\x1b[%d;%dH%s│\x1b[0m", row+i+1, col+1, r.Theme.InactiveBorder)
	}
}

// drawPane renders one pane's title bar (if showBorders) and content
// into rect, updating cur to the pane's own cursor position when active.
func (r *Renderer) drawPane(buf *strings.Builder, p *arrangement.Pane, rect arrangement.Rect, showBorders, isActive bool, screens PaneScreens, offsets map[arrangement.PaneID]int, clocks map[arrangement.PaneID]string, cur *frameCursor) {
	content := rect
	if showBorders && rect.Rows > 1 {
		r.drawTitleBar(buf, p, rect, isActive)
		content = arrangement.Rect{Row: rect.Row + 1, Col: rect.Col, Rows: rect.Rows - 1, Cols: rect.Cols}
	}

	var lines []string
	var sc *termscreen.Screen
	if face, ok := clocks[p.ID]; ok {
		lines = clockFace(face, content.Rows, content.Cols)
	} else {
		sc = screens(p.ID)
		offset := offsets[p.ID]
		switch {
		case sc == nil:
		case p.CopyMode && offset > 0:
			lines = sc.ViewportAt(offset)
		default:
			lines = sc.ViewportANSI()
		}
	}

	for i := 0; i < content.Rows; i++ {
		fmt.Fprintf(buf, "\x1b[%d;%dH", content.Row+i+1, content.Col+1)
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		buf.WriteString(line)
		buf.WriteString("\x1b[0m")
		if pad := content.Cols - visibleWidth(line); pad > 0 {
			buf.WriteString(strings.Repeat(" ", pad))
		}
	}

	if isActive && sc != nil {
		x, y, visible := sc.Cursor()
		cur.row = content.Row + y + 1
		cur.col = content.Col + x + 1
		cur.visible = visible && !p.CopyMode
	}
}

// clockFace centers face (typically "15:04:05") within a rows x cols
// block, styled the way the status bar's own text is — a plain
// vertically-centered line rather than tmux's multi-row ASCII-art digits,
// which this renderer has no glyph table for.
func clockFace(face string, rows, cols int) []string {
	if rows <= 0 {
		return nil
	}
	lines := make([]string, rows)
	mid := rows / 2
	pad := (cols - runewidth.StringWidth(face)) / 2
	if pad < 0 {
		pad = 0
	}
	lines[mid] = strings.Repeat(" ", pad) + face
	return lines
}

func (r *Renderer) drawTitleBar(buf *strings.Builder, p *arrangement.Pane, rect arrangement.Rect, isActive bool) {
	style := r.Theme.InactiveTitle
	if isActive {
		style = r.Theme.ActiveTitle
	}
	name := p.EffectiveName()
	if name == "" {
		name = "(noname)"
	}
	label := fmt.Sprintf(" %d: %s ", p.ID, name)
	if p.CopyMode {
		label += "[copy-mode] "
	}
	if p.Terminated {
		label += "[done] "
	}
	if runewidth.StringWidth(label) > rect.Cols {
		label = runewidth.Truncate(label, rect.Cols, "")
	}
	pad := rect.Cols - runewidth.StringWidth(label)
	fmt.Fprintf(buf, "\x1b[%d;%dH%s%s", rect.Row+1, rect.Col+1, style, label)
	if pad > 0 {
		buf.WriteString(strings.Repeat("─", pad))
	}
	buf.WriteString("\x1b[0m")
}

// drawStatusLine draws the bottom row: overlay's prompt/message when
// present, else the session name, window list, and clock.
func (r *Renderer) drawStatusLine(buf *strings.Builder, rows, cols int, status Status, overlay *Overlay) {
	fmt.Fprintf(buf, "\x1b[%d;1H", rows)
	var label string
	switch {
	case overlay != nil && overlay.Prompt != "":
		label = overlay.Prompt + overlay.Buffer
	case overlay != nil && overlay.Message != "":
		label = overlay.Message
	default:
		label = statusLabel(status)
	}
	if w := runewidth.StringWidth(label); w > cols {
		label = runewidth.Truncate(label, cols, "")
	}
	buf.WriteString(r.Theme.StatusBar)
	buf.WriteString(label)
	if pad := cols - runewidth.StringWidth(label); pad > 0 {
		buf.WriteString(strings.Repeat(" ", pad))
	}
	buf.WriteString("\x1b[0m")
}

func statusLabel(status Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", status.SessionName)
	for i, w := range status.Windows {
		if i > 0 {
			b.WriteString(" ")
		}
		mark := ""
		if w.Bell {
			mark = "!"
		}
		if w.Active {
			fmt.Fprintf(&b, "%d:%s%s*", w.Index, w.Name, mark)
		} else {
			fmt.Fprintf(&b, "%d:%s%s", w.Index, w.Name, mark)
		}
	}
	if status.Clock != "" {
		b.WriteString(" \"" + status.Clock + "\"")
	}
	return b.String()
}

// visibleWidth measures the on-screen width of an SGR-styled string,
// skipping "ESC [ ... m" runs, so padding comes out exact regardless of
// how much style text accompanies the visible characters.
func visibleWidth(s string) int {
	width := 0
	for i := 0; i < len(s); {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j + 1
			continue
		}
		r, size := decodeRune(s[i:])
		width += runewidth.RuneWidth(r)
		i += size
	}
	return width
}

func decodeRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 1
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if n > len(r) {
		n = len(r)
	}
	if n < 0 {
		n = 0
	}
	return string(r[:n])
}
