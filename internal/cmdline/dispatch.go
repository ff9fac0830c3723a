package cmdline

import (
	"fmt"
	"strconv"
	"strings"

	"pymux/internal/arrangement"
)

// Engine is the slice of the session engine a dispatched command can
// act on. Defined here, not imported from internal/engine, so the
// black-box command layer spec.md §1 describes depends only on the
// operations §4 names — internal/engine is the one importing cmdline,
// not the other way around.
type Engine interface {
	SplitWindow(client arrangement.ClientID, vertical bool) error
	NewWindow(client arrangement.ClientID) error
	NextWindow(client arrangement.ClientID) error
	PreviousWindow(client arrangement.ClientID) error
	SelectWindowIndex(client arrangement.ClientID, index int) error
	LastWindow(client arrangement.ClientID) error
	SelectPaneNext(client arrangement.ClientID) error
	SelectPaneDirection(client arrangement.ClientID, dir arrangement.Direction) error
	LastPane(client arrangement.ClientID) error
	RenameWindow(client arrangement.ClientID, name string) error
	RenamePane(client arrangement.ClientID, name string) error
	KillPane(client arrangement.ClientID) error
	BreakPane(client arrangement.ClientID) error
	DetachClient(client arrangement.ClientID) error
	SuspendClient(client arrangement.ClientID) error
	ClockMode(client arrangement.ClientID) error
	CopyMode(client arrangement.ClientID) error
	NextLayout(client arrangement.ClientID) error
	SelectLayout(client arrangement.ClientID, tag arrangement.LayoutTag) error
	ToggleZoom(client arrangement.ClientID) error
	SwapPane(client arrangement.ClientID, forward bool) error
	RotateWindow(client arrangement.ClientID, count int, beforeOnly, afterOnly bool) error
	ResizePane(client arrangement.ClientID, dir arrangement.Direction, delta int) error
	SetOption(name, value string) error
}

// Dispatcher adapts Engine to inputrouter.Dispatcher: it parses one
// command line and runs it, reporting a short status string (an error
// message, or "" on success) the way spec.md §4.E's per-client overlay
// expects.
type Dispatcher struct {
	Engine Engine
}

// NewDispatcher returns a Dispatcher that runs commands against e.
func NewDispatcher(e Engine) *Dispatcher {
	return &Dispatcher{Engine: e}
}

// Dispatch implements inputrouter.Dispatcher.
func (d *Dispatcher) Dispatch(client arrangement.ClientID, commandLine string) string {
	cmd, err := Parse(commandLine)
	if err != nil {
		return err.Error()
	}
	if err := d.run(client, cmd); err != nil {
		return err.Error()
	}
	return ""
}

func (d *Dispatcher) run(client arrangement.ClientID, cmd Command) error {
	switch cmd.Name {
	case "split-window":
		return d.Engine.SplitWindow(client, hasFlag(cmd.Args, "-v"))
	case "new-window":
		return d.Engine.NewWindow(client)
	case "next-window":
		return d.Engine.NextWindow(client)
	case "previous-window":
		return d.Engine.PreviousWindow(client)
	case "last-window":
		return d.Engine.LastWindow(client)
	case "last-pane":
		return d.Engine.LastPane(client)
	case "select-window":
		target, ok := flagValue(cmd.Args, "-t")
		if !ok {
			return fmt.Errorf("select-window: missing -t")
		}
		idx, err := parseWindowTarget(target)
		if err != nil {
			return err
		}
		return d.Engine.SelectWindowIndex(client, idx)
	case "select-pane":
		if hasFlag(cmd.Args, "-n") {
			return d.Engine.SelectPaneNext(client)
		}
		dir, err := parseDirectionFlag(cmd.Args)
		if err != nil {
			return fmt.Errorf("select-pane: %w", err)
		}
		return d.Engine.SelectPaneDirection(client, dir)
	case "rename-window":
		name, _ := firstPositional(cmd.Args, nil)
		return d.Engine.RenameWindow(client, name)
	case "rename-pane":
		name, _ := firstPositional(cmd.Args, nil)
		return d.Engine.RenamePane(client, name)
	case "kill-pane":
		return d.Engine.KillPane(client)
	case "break-pane":
		return d.Engine.BreakPane(client)
	case "detach-client":
		return d.Engine.DetachClient(client)
	case "suspend-client":
		return d.Engine.SuspendClient(client)
	case "clock-mode":
		return d.Engine.ClockMode(client)
	case "copy-mode":
		return d.Engine.CopyMode(client)
	case "next-layout":
		return d.Engine.NextLayout(client)
	case "select-layout":
		name, ok := firstPositional(cmd.Args, nil)
		if !ok {
			return fmt.Errorf("select-layout: missing layout name")
		}
		tag, err := parseLayoutTag(name)
		if err != nil {
			return err
		}
		return d.Engine.SelectLayout(client, tag)
	case "toggle-zoom":
		return d.Engine.ToggleZoom(client)
	case "swap-pane":
		if hasFlag(cmd.Args, "-U") {
			return d.Engine.SwapPane(client, false)
		}
		return d.Engine.SwapPane(client, true)
	case "rotate-window":
		return d.Engine.RotateWindow(client, 1, false, false)
	case "resize-pane":
		dir, err := parseDirectionFlag(cmd.Args)
		if err != nil {
			return fmt.Errorf("resize-pane: %w", err)
		}
		delta := 5
		if n, ok := firstPositional(cmd.Args, nil); ok {
			v, err := strconv.Atoi(n)
			if err != nil {
				return fmt.Errorf("resize-pane: invalid amount %q", n)
			}
			delta = v
		}
		return d.Engine.ResizePane(client, dir, delta)
	case "set-option":
		if len(cmd.Args) < 2 {
			return fmt.Errorf("set-option: usage: set-option <name> <value>")
		}
		return d.Engine.SetOption(cmd.Args[0], cmd.Args[1])
	default:
		return fmt.Errorf("unknown command: %s", cmd.Name)
	}
}

func parseDirectionFlag(args []string) (arrangement.Direction, error) {
	switch {
	case hasFlag(args, "-L"):
		return arrangement.Left, nil
	case hasFlag(args, "-R"):
		return arrangement.Right, nil
	case hasFlag(args, "-U"):
		return arrangement.Up, nil
	case hasFlag(args, "-D"):
		return arrangement.Down, nil
	}
	return 0, fmt.Errorf("missing direction flag (-L/-R/-U/-D)")
}

// parseWindowTarget accepts tmux-style ":N" targets, the only form
// spec.md §6's default bindings (the "0..9" select-window-by-index
// keys) ever produce.
func parseWindowTarget(target string) (int, error) {
	target = strings.TrimPrefix(target, ":")
	n, err := strconv.Atoi(target)
	if err != nil {
		return 0, fmt.Errorf("select-window: invalid target %q", target)
	}
	return n, nil
}

func parseLayoutTag(name string) (arrangement.LayoutTag, error) {
	switch name {
	case "even-horizontal":
		return arrangement.EvenHorizontal, nil
	case "even-vertical":
		return arrangement.EvenVertical, nil
	case "main-horizontal":
		return arrangement.MainHorizontal, nil
	case "main-vertical":
		return arrangement.MainVertical, nil
	case "tiled":
		return arrangement.Tiled, nil
	default:
		return 0, fmt.Errorf("select-layout: unknown layout %q", name)
	}
}
