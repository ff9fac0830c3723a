package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"pymux/internal/socketdir"
)

// terminalColorHints is what an attaching client detects about the real
// terminal it's running in, before raw mode is entered, so a pane
// spawned for it can answer an OSC 10/11 query with that terminal's
// actual palette rather than a guess.
type terminalColorHints struct {
	OscFg string `json:"osc_fg,omitempty"`
	OscBg string `json:"osc_bg,omitempty"`
}

// detectTerminalColorHints captures the attaching terminal's foreground
// and background color via termenv's OSC query round-trip. Non-terminal
// stdout (piped output, a test harness) falls back to the last detected
// values cached on disk, since there is nothing to query.
func detectTerminalColorHints() terminalColorHints {
	var hints terminalColorHints

	if term.IsTerminal(int(os.Stdout.Fd())) {
		output := termenv.NewOutput(os.Stdout)
		if fg := output.ForegroundColor(); fg != nil {
			hints.OscFg = colorToX11(fg)
		}
		if bg := output.BackgroundColor(); bg != nil {
			hints.OscBg = colorToX11(bg)
		}
		_ = persistTerminalColorHints(hints)
	} else if cached, ok := loadTerminalColorHints(); ok {
		hints = cached
	}

	if v := os.Getenv("PYMUX_OSC_FG"); v != "" {
		hints.OscFg = v
	}
	if v := os.Getenv("PYMUX_OSC_BG"); v != "" {
		hints.OscBg = v
	}
	return hints
}

// colorToX11 formats a termenv.Color the way an OSC 10/11 response
// carries it: "rgb:RRRR/GGGG/BBBB", 16 bits per channel. termenv only
// hands back 8 bits per channel, so each byte is replicated into both
// halves of its 16-bit field (0xab -> 0xabab) rather than scaled.
func colorToX11(c termenv.Color) string {
	if c == nil {
		return ""
	}
	var r, g, b uint8
	if hex, ok := c.(termenv.RGBColor); ok && len(hex) == 7 && hex[0] == '#' {
		r, g, b = hexChannel(hex, 1), hexChannel(hex, 3), hexChannel(hex, 5)
	} else {
		r, g, b = termenv.ConvertToRGB(c).RGB255()
	}
	return fmt.Sprintf("rgb:%s/%s/%s", x11Channel(r), x11Channel(g), x11Channel(b))
}

// hexChannel reads the two hex digits of s starting at offset as a byte.
func hexChannel(s termenv.RGBColor, offset int) uint8 {
	v, _ := strconv.ParseUint(string(s)[offset:offset+2], 16, 8)
	return uint8(v)
}

// x11Channel widens an 8-bit color channel to X11's 16-bit-per-channel
// "RRRR" hex form by doubling the byte (0xab -> 0xabab).
func x11Channel(v uint8) string {
	return fmt.Sprintf("%02x%02x", v, v)
}

func terminalColorHintsPath() string {
	return filepath.Join(socketdir.Dir(), "terminal-colors.json")
}

func persistTerminalColorHints(h terminalColorHints) error {
	path := terminalColorHintsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func loadTerminalColorHints() (terminalColorHints, bool) {
	data, err := os.ReadFile(terminalColorHintsPath())
	if err != nil {
		return terminalColorHints{}, false
	}
	var h terminalColorHints
	if err := json.Unmarshal(data, &h); err != nil {
		return terminalColorHints{}, false
	}
	return h, true
}
