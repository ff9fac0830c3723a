package termscreen

import "strconv"

// parse states for the mode sniffer, named after the CSI/OSC grammar it
// walks. Mirrors the shape of virtualterminal.VT.CapturePlainHistory's
// mini state machine, generalized to decode CSI parameters instead of
// discarding them.
const (
	snifGround = iota
	snifEsc
	snifCSI
	snifOSC
	snifOSCEsc
)

// sniffer watches the same byte stream a Screen hands to midterm and
// maintains the modes midterm itself does not surface: mouse
// tracking/encoding, bracketed paste, application cursor/keypad, focus
// events, LNM, whole-screen reverse video, the 1049 alt-screen swap, and
// OSC 0/1/2 title/icon text. It has no effect on the character grid —
// that is entirely midterm's job.
type sniffer struct {
	state    int
	private  bool   // '?' seen after CSI (DEC private params)
	params   []byte // accumulated CSI parameter bytes
	oscBuf   []byte
	oscCode  int
	bellRung bool

	// colorQuery is set to 10 or 11 for the duration of the feed() call
	// in which an OSC "10;?" / "11;?" query completed, and reset to -1
	// at the start of every feed() call. Screen.Write checks it once per
	// call and answers via its upstream writer, the same
	// query-completes-inside-this-chunk assumption the sniffer's other
	// per-feed signal (bellRung) already makes.
	colorQuery int
}

// feed processes one Write's worth of bytes, updating mode and reporting
// whether a BEL control character occurred at top level (not inside an
// OSC string, where BEL is just a valid terminator).
func (s *sniffer) feed(p []byte, mode *ModeState) (bell bool) {
	s.bellRung = false
	s.colorQuery = -1
	for _, b := range p {
		s.step(b, mode)
	}
	return s.bellRung
}

func (s *sniffer) step(b byte, mode *ModeState) {
	switch s.state {
	case snifEsc:
		switch b {
		case '[':
			s.state = snifCSI
			s.private = false
			s.params = s.params[:0]
		case ']':
			s.state = snifOSC
			s.oscBuf = s.oscBuf[:0]
			s.oscCode = -1
		case '7':
			s.state = snifGround // DECSC, handled by midterm
		case '8':
			s.state = snifGround // DECRC, handled by midterm
		default:
			s.state = snifGround
		}
		return
	case snifCSI:
		if b == '?' && len(s.params) == 0 {
			s.private = true
			return
		}
		if (b >= '0' && b <= '9') || b == ';' {
			s.params = append(s.params, b)
			return
		}
		if b >= 0x40 && b <= 0x7e {
			s.applyCSI(b, mode)
			s.state = snifGround
			return
		}
		s.state = snifGround
		return
	case snifOSC:
		switch b {
		case 0x07:
			s.finishOSC(mode)
			s.state = snifGround
		case 0x1b:
			s.state = snifOSCEsc
		case ';':
			if s.oscCode < 0 {
				s.oscCode = atoiBytes(s.oscBuf)
				s.oscBuf = s.oscBuf[:0]
			} else {
				s.oscBuf = append(s.oscBuf, b)
			}
		default:
			s.oscBuf = append(s.oscBuf, b)
		}
		return
	case snifOSCEsc:
		if b == '\\' {
			s.finishOSC(mode)
			s.state = snifGround
		} else if b == 0x1b {
			// stay in snifOSCEsc
		} else {
			s.state = snifOSC
		}
		return
	default: // snifGround
		switch b {
		case 0x1b:
			s.state = snifEsc
		case 0x07:
			s.bellRung = true
		}
		return
	}
}

func (s *sniffer) finishOSC(mode *ModeState) {
	switch s.oscCode {
	case 0:
		mode.Title = string(s.oscBuf)
		mode.IconName = string(s.oscBuf)
	case 1:
		mode.IconName = string(s.oscBuf)
	case 2:
		mode.Title = string(s.oscBuf)
	case 10, 11:
		if string(s.oscBuf) == "?" {
			s.colorQuery = s.oscCode
		}
	}
}

func (s *sniffer) applyCSI(final byte, mode *ModeState) {
	nums := splitParamBytes(s.params)
	switch final {
	case 'h', 'l':
		set := final == 'h'
		if s.private {
			for _, n := range nums {
				applyDECMode(n, set, mode)
			}
		} else {
			for _, n := range nums {
				applyANSIMode(n, set, mode)
			}
		}
	}
}

func applyDECMode(n int, set bool, mode *ModeState) {
	switch n {
	case 1:
		mode.ApplicationCursor = set
	case 6:
		mode.Origin = set
	case 7:
		mode.Autowrap = set
	case 1000:
		if set {
			mode.MouseTracking = MouseTrackingNormal
		} else if mode.MouseTracking == MouseTrackingNormal {
			mode.MouseTracking = MouseTrackingOff
		}
	case 1002:
		if set {
			mode.MouseTracking = MouseTrackingButtonEvt
		} else if mode.MouseTracking == MouseTrackingButtonEvt {
			mode.MouseTracking = MouseTrackingOff
		}
	case 1003:
		if set {
			mode.MouseTracking = MouseTrackingAnyEvt
		} else if mode.MouseTracking == MouseTrackingAnyEvt {
			mode.MouseTracking = MouseTrackingOff
		}
	case 1004:
		mode.FocusEvents = set
	case 1005:
		if set {
			mode.MouseEncoding = MouseEncodingURxvt
		} else if mode.MouseEncoding == MouseEncodingURxvt {
			mode.MouseEncoding = MouseEncodingNone
		}
	case 1006:
		if set {
			mode.MouseEncoding = MouseEncodingSGR
		} else if mode.MouseEncoding == MouseEncodingSGR {
			mode.MouseEncoding = MouseEncodingNone
		}
	case 1015:
		if set {
			mode.MouseEncoding = MouseEncodingURxvt
		} else if mode.MouseEncoding == MouseEncodingURxvt {
			mode.MouseEncoding = MouseEncodingNone
		}
	case 1049:
		mode.AltScreen = set
	case 2004:
		mode.BracketedPaste = set
	case 25:
		// cursor visibility: tracked by midterm itself (CursorVisible).
	}
}

func applyANSIMode(n int, set bool, mode *ModeState) {
	switch n {
	case 4:
		mode.Insert = set
	case 20:
		mode.LNM = set
	}
}

func splitParamBytes(p []byte) []int {
	if len(p) == 0 {
		return nil
	}
	var nums []int
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == ';' {
			if i == start {
				nums = append(nums, 0)
			} else {
				nums = append(nums, atoiBytes(p[start:i]))
			}
			start = i + 1
		}
	}
	return nums
}

func atoiBytes(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0
	}
	return n
}
