// Package config holds the runtime-tunable options that shape a pymux
// session: base pane/window index, scrollback limits, default prefix key,
// and the handful of other knobs the engine consults when it creates new
// windows or panes. There is no on-disk config file: per-session options
// are set interactively via the set-option command and carried in memory
// for the lifetime of the daemon.
package config

import (
	"fmt"
	"time"
)

// Options holds the mutable settings of a running pymux session. Every
// field has a documented default and can be changed at runtime.
type Options struct {
	// BaseIndex is the index assigned to the first window/pane created in
	// a session. tmux defaults this to 0; pymux follows suit.
	BaseIndex int

	// HistoryLimit caps the number of scrollback lines retained per pane.
	HistoryLimit int

	// Prefix is the key sequence that must precede a command key before
	// pane-routed input is intercepted by the input router.
	Prefix string

	// TerminalName is the value assigned to $TERM inside spawned panes.
	TerminalName string

	// StatusInterval controls how often the status bar is asked to
	// refresh clock/title/activity fields absent any other trigger.
	StatusInterval time.Duration

	// BellAction controls what happens when a pane receives BEL: "none",
	// "flash" (marks the originating pane's window with "!" in the
	// status bar), or "audible" (the same mark, plus BEL forwarded to all
	// attached clients).
	BellAction string

	// MouseEnabled controls whether mouse reporting is enabled by default
	// on newly created panes.
	MouseEnabled bool

	// RemainOnExit keeps a pane around after its process exits, showing
	// the exit status in place of tearing the pane down immediately.
	RemainOnExit bool
}

// Default returns the option set a freshly started session begins with.
func Default() Options {
	return Options{
		BaseIndex:      0,
		HistoryLimit:   2000,
		Prefix:         "C-b",
		TerminalName:   "xterm-256color",
		StatusInterval: 1 * time.Second,
		BellAction:     "flash",
		MouseEnabled:   false,
		RemainOnExit:   false,
	}
}

var validBellActions = map[string]bool{
	"none":    true,
	"flash":   true,
	"audible": true,
}

// Validate rejects option combinations the engine cannot act on.
func (o Options) Validate() error {
	if o.HistoryLimit < 0 {
		return fmt.Errorf("history-limit: must be >= 0, got %d", o.HistoryLimit)
	}
	if o.Prefix == "" {
		return fmt.Errorf("prefix: must not be empty")
	}
	if o.TerminalName == "" {
		return fmt.Errorf("terminal-name: must not be empty")
	}
	if !validBellActions[o.BellAction] {
		return fmt.Errorf("bell-action: invalid value %q (want none, flash, or audible)", o.BellAction)
	}
	return nil
}

// Set applies a single named option (as accepted by the set-option
// command) to a copy of o, returning the updated Options. Unknown names
// and malformed values are reported as errors rather than panicking, since
// this is reachable from untrusted client input.
func (o Options) Set(name, value string) (Options, error) {
	switch name {
	case "base-index":
		n, err := parseInt(value)
		if err != nil {
			return o, fmt.Errorf("base-index: %w", err)
		}
		o.BaseIndex = n
	case "history-limit":
		n, err := parseInt(value)
		if err != nil {
			return o, fmt.Errorf("history-limit: %w", err)
		}
		o.HistoryLimit = n
	case "prefix":
		o.Prefix = value
	case "terminal-name":
		o.TerminalName = value
	case "bell-action":
		o.BellAction = value
	case "mouse":
		b, err := parseBool(value)
		if err != nil {
			return o, fmt.Errorf("mouse: %w", err)
		}
		o.MouseEnabled = b
	case "remain-on-exit":
		b, err := parseBool(value)
		if err != nil {
			return o, fmt.Errorf("remain-on-exit: %w", err)
		}
		o.RemainOnExit = b
	default:
		return o, fmt.Errorf("unknown option %q", name)
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func parseInt(s string) (int, error) {
	var n int
	var sign = 1
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	i := 0
	if s[0] == '-' {
		sign = -1
		i = 1
	}
	if i == len(s) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		n = n*10 + int(s[i]-'0')
	}
	return n * sign, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
