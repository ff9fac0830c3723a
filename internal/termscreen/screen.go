// Package termscreen implements the VT100/xterm emulation each pane uses
// to turn its child's byte stream into a character grid: primary and
// alternate screen buffers, cursor/mode tracking, and scrollback.
// The grid, cursor, and the CSI/OSC command set spec.md §4.A requires are
// delegated to github.com/vito/midterm (grounded on
// virtualterminal.VT's use of the same library); this package layers on
// top of it the xterm modes midterm does not expose as queryable state —
// mouse tracking/encoding, bracketed paste, application cursor/keypad,
// focus events, LNM, whole-screen reverse video, and the 1049 alt-screen
// swap — via a small byte-level sniffer that watches the same stream.
package termscreen

import (
	"io"
	"strconv"

	"github.com/vito/midterm"
)

// Screen is the per-pane emulator: a primary buffer (with scrollback) and
// an alternate buffer (without), switched by CSI ? 1049 h/l, plus the
// modes and title state the sniffer tracks alongside midterm's grid.
type Screen struct {
	primary   *midterm.Terminal
	alternate *midterm.Terminal

	historyLimit int
	rows, cols   int

	mode    ModeState
	snif    sniffer
	pending []byte // trailing incomplete UTF-8 sequence held across Write calls

	history     []historyLine // lines scrolled off the top of the primary buffer
	historyText []string      // parallel plain-text copy, for copy-mode search

	OnBell func()

	upstream io.Writer

	// FgColor/BgColor are the X11 "rgb:RRRR/GGGG/BBBB" strings answered
	// to an OSC 10/11 "?" query, set via SetColors from the attaching
	// client's detected terminal palette (see transport.StartGUIPayload).
	// Empty until SetColors is called, in which case a query goes
	// unanswered, same as a real terminal that doesn't support OSC 10/11.
	FgColor string
	BgColor string
}

// historyLine is one scrollback entry: its plain text (for search) plus
// the ANSI-rendered form midterm.Line.Display already produced (written
// verbatim by the renderer, cheaper than re-decoding SGR on every frame).
type historyLine struct {
	plain    string
	rendered string
}

// New creates a Screen sized rows x cols with the given scrollback limit
// for the primary buffer (spec §3's history_limit, default 2000 lines).
func New(rows, cols, historyLimit int) *Screen {
	s := &Screen{
		historyLimit: historyLimit,
		rows:         rows,
		cols:         cols,
		mode:         newModeState(),
	}
	s.primary = midterm.NewTerminal(rows, cols)
	s.alternate = midterm.NewTerminal(rows, cols)
	s.primary.OnScrollback(func(line midterm.Line) {
		s.appendHistory(string(line), line.Display()+"\x1b[0m")
	})
	return s
}

// appendHistory records one line pushed out of the primary buffer's top
// row, trimming to historyLimit (grounded on virtualterminal.VT's
// ScrollHistory trim-from-front pattern).
func (s *Screen) appendHistory(plain, rendered string) {
	s.history = append(s.history, historyLine{plain, rendered})
	s.historyText = append(s.historyText, plain)
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		trim := len(s.history) - s.historyLimit
		s.history = s.history[trim:]
		s.historyText = s.historyText[trim:]
	}
}

// HistoryLen returns the number of scrollback lines retained above the
// live primary viewport.
func (s *Screen) HistoryLen() int {
	return len(s.history)
}

// HistoryText returns the plain-text (unstyled) scrollback lines, oldest
// first, for copy-mode search to scan.
func (s *Screen) HistoryText() []string {
	return s.historyText
}

// ViewportAt returns `rows` display lines as pre-rendered ANSI text,
// starting `offset` lines above the bottom of the combined
// scrollback+live buffer (offset 0 is the live view). Used by copy-mode
// rendering; offset is clamped to the available history. Only the
// primary buffer has scrollback — calling this while the alternate
// screen is active returns the live alternate viewport regardless of
// offset, since alternate-screen programs have no history to browse.
func (s *Screen) ViewportAt(offset int) []string {
	if s.mode.AltScreen || offset <= 0 {
		return s.renderedLiveLines()
	}
	histLen := len(s.history)
	total := histLen + s.rows
	if offset > total-s.rows {
		offset = total - s.rows
	}
	start := total - s.rows - offset
	if start < 0 {
		start = 0
	}
	out := make([]string, s.rows)
	for i := 0; i < s.rows; i++ {
		row := start + i
		if row < 0 || row >= total {
			continue
		}
		if row < histLen {
			out[i] = s.history[row].rendered
		} else {
			out[i] = renderLineANSI(snapshotLine(s.primary, row-histLen))
		}
	}
	return out
}

// MaxScrollOffset is the largest offset ViewportAt accepts before
// clamping, i.e. how many lines of history are available to scroll into.
func (s *Screen) MaxScrollOffset() int {
	return len(s.history)
}

func (s *Screen) renderedLiveLines() []string {
	lines := s.Viewport()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = renderLineANSI(l)
	}
	return out
}

// SetUpstream wires the writer that CSI query replies (cursor position
// reports, device attributes) midterm generates internally are written
// to — the same path user keystrokes take to reach the child, per spec
// §4.A. Typically the pane's PTY master.
func (s *Screen) SetUpstream(w io.Writer) {
	s.upstream = w
	s.primary.ForwardResponses = w
	s.alternate.ForwardResponses = w
}

// SetColors records the foreground/background colors this screen
// answers OSC 10/11 queries with, each already formatted as an X11
// "rgb:RRRR/GGGG/BBBB" string (see internal/cmd's colorToX11). Grounded on
// virtualterminal.VT.OscFg/OscBg being set once, from the attach
// handshake, before the pane's child ever runs.
func (s *Screen) SetColors(fg, bg string) {
	s.FgColor = fg
	s.BgColor = bg
}

// respondOSCColors answers a completed OSC 10/11 "?" query observed by
// the sniffer during the most recent feed, mirroring
// virtualterminal.VT.RespondOSCColors's reply shape
// ("\x1b]10;rgb:...\x1b\\"). A query for a color SetColors was never
// called for goes unanswered.
func (s *Screen) respondOSCColors() {
	if s.upstream == nil {
		return
	}
	var code int
	var color string
	switch s.snif.colorQuery {
	case 10:
		code, color = 10, s.FgColor
	case 11:
		code, color = 11, s.BgColor
	default:
		return
	}
	if color == "" {
		return
	}
	s.upstream.Write([]byte("\x1b]" + strconv.Itoa(code) + ";" + color + "\x1b\\"))
}

// active returns whichever buffer is currently visible.
func (s *Screen) active() *midterm.Terminal {
	if s.mode.AltScreen {
		return s.alternate
	}
	return s.primary
}

// Write feeds child output to the screen: the visible buffer's grid via
// midterm, and the mode sniffer in parallel. A trailing incomplete UTF-8
// sequence is held back across calls (Open Question (c)) so midterm
// never sees a partial multi-byte rune split across two reads.
func (s *Screen) Write(p []byte) (int, error) {
	n := len(p)
	if len(s.pending) > 0 {
		p = append(append([]byte(nil), s.pending...), p...)
	}
	complete, pending := splitTrailingIncomplete(p)
	s.pending = pending
	if len(complete) == 0 {
		return n, nil
	}

	wasAlt := s.mode.AltScreen
	if s.snif.feed(complete, &s.mode) && s.OnBell != nil {
		s.OnBell()
	}
	s.respondOSCColors()
	if s.mode.AltScreen != wasAlt {
		s.handleAltScreenSwitch(wasAlt)
	}

	if _, err := s.active().Write(complete); err != nil {
		return 0, err
	}
	return n, nil
}

// handleAltScreenSwitch is invoked the moment the sniffer observes a 1049
// transition. Entering the alternate screen starts it blank at the
// current dimensions (no scrollback ever accumulates there); leaving it
// does nothing further since the primary buffer was never touched while
// the alternate one was visible, satisfying spec §8's "restore the
// primary buffer exactly as before the sequence" round-trip property.
func (s *Screen) handleAltScreenSwitch(wasAlt bool) {
	if !wasAlt && s.mode.AltScreen {
		s.alternate = midterm.NewTerminal(s.rows, s.cols)
		s.alternate.ForwardResponses = s.upstream
	}
}

// Resize changes the viewport size. The primary buffer reflows its
// content (delegated to midterm.Terminal.Resize, which already preserves
// and rewraps on width changes); the alternate buffer has no scrollback
// to preserve, so it is recreated blank at the new size — a conservative
// reading of spec §3's "discards content beyond the new bounds" that
// happens to match what full-screen alt-screen programs (vim, htop) do
// on SIGWINCH anyway: they repaint from scratch.
func (s *Screen) Resize(rows, cols int) {
	s.rows, s.cols = rows, cols
	s.primary.Resize(rows, cols)
	s.alternate = midterm.NewTerminal(rows, cols)
	s.alternate.ForwardResponses = s.upstream
}

// ViewportANSI is Viewport pre-rendered to SGR-styled text, one string per
// row, each exactly `cols` display columns wide. The renderer uses this
// directly instead of decoding Cells itself, matching the form copy-mode
// scrollback rows (ViewportAt) already come back in.
func (s *Screen) ViewportANSI() []string {
	return s.renderedLiveLines()
}

// Viewport returns a snapshot of the currently visible buffer's rows,
// decoded into this package's Cell representation. The renderer composes
// these into client frames; spec §8 requires this to be a bit-exact copy
// of the pane's emulator state at the moment the frame was composed,
// which holds here because the snapshot is computed synchronously with
// no buffering layer in between.
func (s *Screen) Viewport() []Line {
	t := s.active()
	lines := make([]Line, t.Height)
	for row := 0; row < t.Height; row++ {
		lines[row] = snapshotLine(t, row)
	}
	return lines
}

// Cursor returns the active buffer's cursor position and visibility.
func (s *Screen) Cursor() (x, y int, visible bool) {
	t := s.active()
	return t.Cursor.X, t.Cursor.Y, t.CursorVisible
}

// Mode returns a copy of the current mode state.
func (s *Screen) Mode() ModeState {
	return s.mode
}

// InAlternateScreen reports whether the alternate buffer is visible.
func (s *Screen) InAlternateScreen() bool {
	return s.mode.AltScreen
}

// Title returns the pane title set via OSC 0/2.
func (s *Screen) Title() string {
	return s.mode.Title
}

// IconName returns the icon name set via OSC 0/1.
func (s *Screen) IconName() string {
	return s.mode.IconName
}

// splitTrailingIncomplete separates a trailing, not-yet-complete UTF-8
// sequence (up to 3 bytes) from the end of p, so the caller can hold it
// back until more bytes arrive instead of handing a torn rune to a
// downstream decoder.
func splitTrailingIncomplete(p []byte) (complete, pendingTail []byte) {
	if len(p) == 0 {
		return p, nil
	}
	limit := 4
	if limit > len(p) {
		limit = len(p)
	}
	for k := 1; k <= limit; k++ {
		tail := p[len(p)-k:]
		if tail[0] < 0x80 {
			break
		}
		if runeStart(tail[0]) {
			if fullRune(tail) {
				break
			}
			return p[:len(p)-k], append([]byte(nil), tail...)
		}
	}
	return p, nil
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}

// fullRune reports whether tail begins with a complete UTF-8 encoding of
// one rune (i.e. it contains at least as many bytes as its lead byte
// declares).
func fullRune(tail []byte) bool {
	want := 1
	switch {
	case tail[0]&0xE0 == 0xC0:
		want = 2
	case tail[0]&0xF0 == 0xE0:
		want = 3
	case tail[0]&0xF8 == 0xF0:
		want = 4
	}
	return len(tail) >= want
}
