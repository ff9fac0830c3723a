package termscreen

import (
	"strconv"
	"strings"
)

// ColorKind tags which representation a Color carries.
type ColorKind int

const (
	// Default is the terminal's ambient foreground/background color.
	Default ColorKind = iota
	// Indexed16 is one of the 16 classic ANSI colors (codes 30-37/90-97,
	// 40-47/100-107).
	Indexed16
	// Indexed256 is an xterm 256-color palette index (38;5;n / 48;5;n).
	Indexed256
	// RGB is a 24-bit true color (38;2;r;g;b / 48;2;r;g;b).
	RGB
)

// Color is a tagged union over the four color representations a cell's
// foreground or background may carry.
type Color struct {
	Kind  ColorKind
	Index uint8 // valid for Indexed16, Indexed256
	R, G, B uint8 // valid for RGB
}

// Style carries the attributes of one Cell: colors plus the boolean SGR
// toggles xterm supports.
type Style struct {
	FG, BG                                     Color
	Bold, Underline, Italic, Blink, Reverse, Strike bool
}

// decodeSGR parses every "ESC [ ... m" run found in s (as produced by
// midterm's Format.Render) and folds the parameter codes into a Style,
// starting from base. Unknown/unsupported codes are ignored rather than
// rejected, since xterm itself is forgiving here.
func decodeSGR(s string, base Style) Style {
	st := base
	for {
		i := strings.IndexByte(s, 0x1b)
		if i < 0 || i+1 >= len(s) || s[i+1] != '[' {
			return st
		}
		rest := s[i+2:]
		end := strings.IndexByte(rest, 'm')
		if end < 0 {
			return st
		}
		applySGRParams(rest[:end], &st)
		s = rest[end+1:]
	}
}

func applySGRParams(params string, st *Style) {
	fields := splitParams(params)
	if len(fields) == 0 {
		fields = []int{0}
	}
	for i := 0; i < len(fields); i++ {
		code := fields[i]
		switch {
		case code == 0:
			*st = Style{}
		case code == 1:
			st.Bold = true
		case code == 22:
			st.Bold = false
		case code == 3:
			st.Italic = true
		case code == 23:
			st.Italic = false
		case code == 4:
			st.Underline = true
		case code == 24:
			st.Underline = false
		case code == 5:
			st.Blink = true
		case code == 25:
			st.Blink = false
		case code == 7:
			st.Reverse = true
		case code == 27:
			st.Reverse = false
		case code == 9:
			st.Strike = true
		case code == 29:
			st.Strike = false
		case code == 39:
			st.FG = Color{}
		case code == 49:
			st.BG = Color{}
		case code >= 30 && code <= 37:
			st.FG = Color{Kind: Indexed16, Index: uint8(code - 30)}
		case code >= 90 && code <= 97:
			st.FG = Color{Kind: Indexed16, Index: uint8(code-90) + 8}
		case code >= 40 && code <= 47:
			st.BG = Color{Kind: Indexed16, Index: uint8(code - 40)}
		case code >= 100 && code <= 107:
			st.BG = Color{Kind: Indexed16, Index: uint8(code-100) + 8}
		case code == 38 || code == 48:
			consumed, col := decodeExtendedColor(fields[i+1:])
			if code == 38 {
				st.FG = col
			} else {
				st.BG = col
			}
			i += consumed
		}
	}
}

// decodeExtendedColor reads the ";5;n" or ";2;r;g;b" tail of a 38/48
// sequence (already split into integer fields) and reports how many
// extra fields it consumed.
func decodeExtendedColor(fields []int) (consumed int, col Color) {
	if len(fields) == 0 {
		return 0, Color{}
	}
	switch fields[0] {
	case 5:
		if len(fields) >= 2 {
			return 2, Color{Kind: Indexed256, Index: uint8(fields[1])}
		}
		return 1, Color{}
	case 2:
		if len(fields) >= 4 {
			return 4, Color{Kind: RGB, R: uint8(fields[1]), G: uint8(fields[2]), B: uint8(fields[3])}
		}
		return len(fields), Color{}
	default:
		return 0, Color{}
	}
}

// encodeSGR produces the "ESC [ ... m" sequence that sets the terminal to
// st, starting from a reset state — the inverse of decodeSGR, used by the
// renderer to write styled cells back out as ANSI text.
func encodeSGR(st Style) string {
	codes := []string{"0"}
	if st.Bold {
		codes = append(codes, "1")
	}
	if st.Italic {
		codes = append(codes, "3")
	}
	if st.Underline {
		codes = append(codes, "4")
	}
	if st.Blink {
		codes = append(codes, "5")
	}
	if st.Reverse {
		codes = append(codes, "7")
	}
	if st.Strike {
		codes = append(codes, "9")
	}
	codes = append(codes, colorCodes(st.FG, false)...)
	codes = append(codes, colorCodes(st.BG, true)...)
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func colorCodes(c Color, bg bool) []string {
	base30, base90, extBase := 30, 90, 38
	if bg {
		base30, base90, extBase = 40, 100, 48
	}
	switch c.Kind {
	case Indexed16:
		if c.Index < 8 {
			return []string{strconv.Itoa(base30 + int(c.Index))}
		}
		return []string{strconv.Itoa(base90 + int(c.Index) - 8)}
	case Indexed256:
		return []string{strconv.Itoa(extBase), "5", strconv.Itoa(int(c.Index))}
	case RGB:
		return []string{strconv.Itoa(extBase), "2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B))}
	default:
		return nil
	}
}

func splitParams(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			out = append(out, 0)
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
