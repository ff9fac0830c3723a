// Package inputrouter implements the per-client key decision procedure:
// confirmation dialogs, the ":" command prompt and text prompts, the
// prefix table, copy-mode key consumption, and translation of plain
// keystrokes into the bytes the active pane's process receives.
// Grounded on the teacher's per-client Mode dispatch in attach.go's
// readClientInput switch and client.Cursor* word-wise editing, and on
// original_source/pymux/key_bindings.py + layout.py's mouse_handler for
// the default binding table and mouse-encoding dispatch.
package inputrouter

import "strconv"

// SpecialKey names a non-printable key decodeKeys recognizes.
type SpecialKey int

const (
	None SpecialKey = iota
	Enter
	Backspace
	Tab
	BackTab
	Escape
	ArrowUp
	ArrowDown
	ArrowLeft
	ArrowRight
	Home
	End
	Delete
	PageUp
	PageDown
	EscDigit // Esc followed by a single digit, e.g. the "Esc 1".."Esc 5" layout bindings
	EscLetter
	MouseEvent
)

// Key is one decoded keystroke: either a rune (with Ctrl noting a C0
// control byte 1-26 folded back to its letter) or a SpecialKey.
type Key struct {
	Special SpecialKey
	Rune    rune // valid when Special == None
	Ctrl    bool
	Digit   byte // valid when Special == EscDigit
	Letter  byte // valid when Special == EscLetter

	// Mouse fields, valid when Special == MouseEvent. Col/Row are
	// 1-based terminal coordinates, matching the wire encodings
	// themselves (termscreen.FormatMouseEvent's inverse).
	MouseButton  int
	MouseCol     int
	MouseRow     int
	MouseRelease bool
}

func (k Key) String() string {
	switch k.Special {
	case None:
		if k.Ctrl {
			return "C-" + string(k.Rune)
		}
		return string(k.Rune)
	case Enter:
		return "Enter"
	case Backspace:
		return "Backspace"
	case Tab:
		return "Tab"
	case BackTab:
		return "BackTab"
	case Escape:
		return "Escape"
	case ArrowUp:
		return "Up"
	case ArrowDown:
		return "Down"
	case ArrowLeft:
		return "Left"
	case ArrowRight:
		return "Right"
	case Home:
		return "Home"
	case End:
		return "End"
	case Delete:
		return "Delete"
	case PageUp:
		return "PageUp"
	case PageDown:
		return "PageDown"
	case EscDigit:
		return "Esc " + strconv.Itoa(int(k.Digit))
	case EscLetter:
		return "Esc " + string(k.Letter)
	default:
		return "?"
	}
}

// DecodeKeys tokenizes a raw input chunk (as arrives over the "in" wire
// tag) into discrete keystrokes. A batch may hold several keys —
// fast typing, a paste, or a single escape sequence — so callers loop
// over the result rather than treating the chunk as one key.
func DecodeKeys(data []byte) []Key {
	var keys []Key
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case b == 0x1b && i+1 < len(data) && data[i+1] == '[' && i+2 < len(data) && data[i+2] == 'M':
			// legacy mouse: ESC [ M <cb> <cx> <cy>, three raw (unescaped)
			// bytes follow with +32 offset.
			if i+5 < len(data) {
				keys = append(keys, Key{
					Special:      MouseEvent,
					MouseButton:  int(data[i+3]) - 32,
					MouseCol:     int(data[i+4]) - 32,
					MouseRow:     int(data[i+5]) - 32,
					MouseRelease: (int(data[i+3])-32)&3 == 3,
				})
				i += 6
			} else {
				i = len(data)
			}
		case b == 0x1b && i+1 < len(data) && data[i+1] == '[' && i+2 < len(data) && data[i+2] == '<':
			k, n, ok := decodeSGRMouse(data[i:])
			if ok {
				keys = append(keys, k)
				i += n
			} else {
				i += n
			}
		case b == 0x1b && i+1 < len(data) && data[i+1] == '[' && isURxvtMouse(data[i:]):
			k, n := decodeURxvtMouse(data[i:])
			keys = append(keys, k)
			i += n
		case b == 0x1b && i+1 < len(data) && data[i+1] == '[':
			k, n := decodeCSI(data[i:])
			keys = append(keys, k)
			i += n
		case b == 0x1b && i+1 < len(data) && data[i+1] == 'O':
			k, n := decodeSS3(data[i:])
			keys = append(keys, k)
			i += n
		case b == 0x1b && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '9':
			keys = append(keys, Key{Special: EscDigit, Digit: data[i+1] - '0'})
			i += 2
		case b == 0x1b && i+1 < len(data):
			keys = append(keys, Key{Special: EscLetter, Letter: data[i+1]})
			i += 2
		case b == 0x1b:
			keys = append(keys, Key{Special: Escape})
			i++
		case b == '\r' || b == '\n':
			keys = append(keys, Key{Special: Enter})
			i++
		case b == 0x7f || b == 0x08:
			keys = append(keys, Key{Special: Backspace})
			i++
		case b == '\t':
			keys = append(keys, Key{Special: Tab})
			i++
		case b >= 1 && b <= 26 && b != '\t' && b != '\r' && b != '\n':
			keys = append(keys, Key{Ctrl: true, Rune: rune('a' + b - 1)})
			i++
		default:
			r, size := decodeRuneAt(data[i:])
			keys = append(keys, Key{Rune: r})
			i += size
		}
	}
	return keys
}

func decodeCSI(data []byte) (Key, int) {
	// data[0]==ESC, data[1]=='['
	if len(data) < 3 {
		return Key{Special: Escape}, 1
	}
	switch data[2] {
	case 'A':
		return Key{Special: ArrowUp}, 3
	case 'B':
		return Key{Special: ArrowDown}, 3
	case 'C':
		return Key{Special: ArrowRight}, 3
	case 'D':
		return Key{Special: ArrowLeft}, 3
	case 'H':
		return Key{Special: Home}, 3
	case 'F':
		return Key{Special: End}, 3
	case 'Z':
		return Key{Special: BackTab}, 3
	}
	// numeric CSI, e.g. ESC [ 3 ~ (Delete), ESC [ 5 ~ (PageUp)
	end := 2
	for end < len(data) && data[end] >= '0' && data[end] <= '9' {
		end++
	}
	if end < len(data) && data[end] == '~' {
		switch string(data[2:end]) {
		case "3":
			return Key{Special: Delete}, end + 1
		case "5":
			return Key{Special: PageUp}, end + 1
		case "6":
			return Key{Special: PageDown}, end + 1
		}
		return Key{Special: Escape}, end + 1
	}
	return Key{Special: Escape}, 2
}

// decodeSGRMouse parses "ESC [ < Cb ; Cx ; Cy M" (press) or "...m"
// (release), per termscreen.FormatMouseEvent's SGR encoding.
func decodeSGRMouse(data []byte) (Key, int, bool) {
	end := 3
	for end < len(data) && data[end] != 'M' && data[end] != 'm' {
		end++
	}
	if end >= len(data) {
		return Key{}, len(data), false
	}
	release := data[end] == 'm'
	fields := splitInts(data[3:end])
	if len(fields) != 3 {
		return Key{}, end + 1, false
	}
	return Key{
		Special:      MouseEvent,
		MouseButton:  fields[0],
		MouseCol:     fields[1],
		MouseRow:     fields[2],
		MouseRelease: release,
	}, end + 1, true
}

// isURxvtMouse reports whether data begins a "ESC [ Cb ; Cx ; Cy M"
// sequence — the only CSI form pymux ever terminates with 'M' that
// isn't already caught by the legacy/SGR prefixes above.
func isURxvtMouse(data []byte) bool {
	i := 2
	digitsSeen := false
	semis := 0
	for i < len(data) {
		switch {
		case data[i] >= '0' && data[i] <= '9':
			digitsSeen = true
			i++
		case data[i] == ';':
			semis++
			i++
		case data[i] == 'M':
			return digitsSeen && semis == 2
		default:
			return false
		}
	}
	return false
}

func decodeURxvtMouse(data []byte) (Key, int) {
	end := 2
	for end < len(data) && data[end] != 'M' {
		end++
	}
	fields := splitInts(data[2:end])
	if len(fields) != 3 {
		return Key{Special: Escape}, end + 1
	}
	return Key{
		Special:     MouseEvent,
		MouseButton: fields[0] - 32,
		MouseCol:    fields[1],
		MouseRow:    fields[2],
	}, end + 1
}

func splitInts(b []byte) []int {
	var out []int
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == ';' {
			n, err := strconv.Atoi(string(b[start:i]))
			if err != nil {
				return nil
			}
			out = append(out, n)
			start = i + 1
		}
	}
	return out
}

func decodeSS3(data []byte) (Key, int) {
	if len(data) < 3 {
		return Key{Special: Escape}, 1
	}
	switch data[2] {
	case 'A':
		return Key{Special: ArrowUp}, 3
	case 'B':
		return Key{Special: ArrowDown}, 3
	case 'C':
		return Key{Special: ArrowRight}, 3
	case 'D':
		return Key{Special: ArrowLeft}, 3
	}
	return Key{Special: Escape}, 2
}

func decodeRuneAt(data []byte) (rune, int) {
	for _, r := range string(data) {
		n := 1
		switch {
		case r < 0x80:
			n = 1
		case r < 0x800:
			n = 2
		case r < 0x10000:
			n = 3
		default:
			n = 4
		}
		return r, n
	}
	return rune(data[0]), 1
}
