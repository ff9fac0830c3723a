package termscreen

import "fmt"

// MouseEncoding names one of the three mutually exclusive ways a pane may
// ask its mouse events to be formatted. The active encoding is whichever
// was enabled most recently (spec §4.A).
type MouseEncoding int

const (
	MouseEncodingNone MouseEncoding = iota
	MouseEncodingLegacy
	MouseEncodingURxvt
	MouseEncodingSGR
)

// MouseTracking names how eagerly a pane wants mouse events reported.
type MouseTracking int

const (
	MouseTrackingOff MouseTracking = iota
	MouseTrackingNormal    // 1000: button press/release only
	MouseTrackingButtonEvt // 1002: also report motion while a button is held
	MouseTrackingAnyEvt    // 1003: report all motion
)

// ModeState tracks the xterm modes spec §3 lists that midterm does not
// expose as queryable fields: mouse tracking/encoding, bracketed paste,
// application cursor/keypad, focus events, LNM, whole-screen reverse
// video, and which screen buffer (primary/alternate) is live. It is kept
// current by feeding every byte written to a Screen through sniff, in
// parallel with the same bytes being handed to the midterm grid.
type ModeState struct {
	Insert             bool
	Origin             bool
	Autowrap           bool
	ApplicationCursor   bool
	ApplicationKeypad   bool
	BracketedPaste      bool
	MouseTracking       MouseTracking
	MouseEncoding       MouseEncoding
	FocusEvents         bool
	ReverseVideo        bool
	LNM                 bool
	AltScreen           bool
	Title, IconName     string
}

// InApplicationMode reports whether arrow keys should be translated to
// SS3 form, per spec §3's "in_application_mode" derived flag.
func (m ModeState) InApplicationMode() bool {
	return m.ApplicationCursor || m.ApplicationKeypad
}

func newModeState() ModeState {
	return ModeState{Autowrap: true}
}

// FormatMouseEvent encodes a mouse event for pane delivery using enc, the
// encoding the target pane most recently enabled. col/row are 0-based
// screen coordinates; button follows the xterm convention (0-2 buttons,
// 3 release in legacy/urxvt form, 32+ for motion, 64+ for wheel). release
// only affects SGR form, which has a distinct terminator for button-up.
func FormatMouseEvent(enc MouseEncoding, button, col, row int, release bool) string {
	x, y := col+1, row+1
	switch enc {
	case MouseEncodingSGR:
		term := "M"
		if release {
			term = "m"
		}
		return fmt.Sprintf("\x1b[<%d;%d;%d%s", button, x, y, term)
	case MouseEncodingURxvt:
		return fmt.Sprintf("\x1b[%d;%d;%dM", button+32, x, y)
	case MouseEncodingLegacy:
		return fmt.Sprintf("\x1b[M%c%c%c", button+32, x+32, y+32)
	default:
		return ""
	}
}
