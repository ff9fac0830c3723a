package inputrouter

import (
	"strings"

	"pymux/internal/arrangement"
	"pymux/internal/termscreen"
)

// Dispatcher runs one command line (already tokenized/parsed as
// internal/cmdline sees fit) against client's session and reports a
// short status message to show on the status line, or "" for none.
type Dispatcher interface {
	Dispatch(client arrangement.ClientID, commandLine string) string
}

// PaneContext answers the questions the router needs about a client's
// active pane without owning the arrangement/screen state itself.
type PaneContext interface {
	Mode(client arrangement.ClientID) termscreen.ModeState
	InCopyMode(client arrangement.ClientID) bool
	ExitCopyMode(client arrangement.ClientID)
	ScrollCopyMode(client arrangement.ClientID, delta int)
	SearchCopyMode(client arrangement.ClientID, pattern string, forward bool)
}

// Router holds the (mostly static) configuration a server applies to
// every client's keystrokes: the prefix key and its binding table.
type Router struct {
	PrefixKey Key
	Bindings  []Binding
}

// New builds a Router from config.Options' Prefix (the caller
// decodes the configured prefix string into a Key) and the default
// binding table.
func New(prefixKey Key) *Router {
	return &Router{PrefixKey: prefixKey, Bindings: DefaultBindings()}
}

// Result is what HandleInput produces for one input batch: bytes to
// write to the active pane's process, and an optional status message
// for the renderer's overlay.
type Result struct {
	Forward []byte
	Message string
}

// HandleInput runs spec.md §4.E's per-key decision procedure over every
// key decoded from raw, in order, mutating state as overlays open and
// close and accumulating bytes bound for the active pane.
func (r *Router) HandleInput(client arrangement.ClientID, raw []byte, state *ClientState, ctx PaneContext, dispatcher Dispatcher) Result {
	var forward strings.Builder
	var message string

	for _, k := range DecodeKeys(raw) {
		if k.Special == MouseEvent {
			// Mouse routing (pane-under-cursor lookup, focus-on-click,
			// status-bar clicks) needs screen geometry the router does
			// not hold; the engine handles MouseEvent keys itself from
			// the same input batch before calling HandleInput. Here
			// they are dropped so raw mouse bytes never reach the pane
			// as keystrokes.
			continue
		}

		switch {
		case state.Mode == ModeConfirm:
			message = r.handleConfirm(client, k, state, dispatcher)

		case state.Mode == ModeCommandPrompt || state.Mode == ModeTextPrompt || state.Mode == ModeCopySearch:
			message = r.handlePrompt(client, k, state, ctx, dispatcher)

		case state.HasPrefix:
			state.HasPrefix = false
			if b, ok := lookup(r.Bindings, k); ok {
				message = r.runBinding(client, b, state, dispatcher)
			}

		case k == r.PrefixKey:
			state.HasPrefix = true

		case ctx.InCopyMode(client):
			r.handleCopyMode(client, k, state, ctx, dispatcher)

		default:
			forward.Write(translateKey(k, ctx.Mode(client)))
		}
	}

	return Result{Forward: []byte(forward.String()), Message: message}
}

// runBinding executes the binding found after a prefix: most run
// straight through the dispatcher, but the command prompt, rename text
// prompts, and confirmations open an overlay this router owns instead.
func (r *Router) runBinding(client arrangement.ClientID, b Binding, state *ClientState, dispatcher Dispatcher) string {
	switch b.Kind {
	case KindCommandPrompt:
		state.Mode = ModeCommandPrompt
		state.PromptLabel = b.PromptLabel
		state.Buffer = ""
		state.Cursor = 0
		return ""
	case KindTextPrompt:
		state.Mode = ModeTextPrompt
		state.PromptLabel = b.PromptLabel
		state.PendingTemplate = b.Command
		state.Buffer = ""
		state.Cursor = 0
		return ""
	case KindConfirm:
		state.Mode = ModeConfirm
		state.ConfirmMessage = b.ConfirmMessage
		state.ConfirmCommand = b.Command
		return ""
	default:
		return dispatcher.Dispatch(client, b.Command)
	}
}

func (r *Router) handleConfirm(client arrangement.ClientID, k Key, state *ClientState, dispatcher Dispatcher) string {
	switch {
	case k.Rune == 'y' || k.Rune == 'Y':
		cmd := state.ConfirmCommand
		state.reset()
		return dispatcher.Dispatch(client, cmd)
	case k.Rune == 'n' || k.Rune == 'N' || (k.Ctrl && k.Rune == 'c'):
		state.reset()
	}
	return ""
}

func (r *Router) handlePrompt(client arrangement.ClientID, k Key, state *ClientState, ctx PaneContext, dispatcher Dispatcher) string {
	switch {
	case k.Ctrl && (k.Rune == 'c' || k.Rune == 'g'):
		state.reset()
		return ""
	case k.Special == Backspace:
		if !state.backspace() && len(state.Buffer) == 0 {
			state.reset()
		}
		return ""
	case k.Special == ArrowLeft:
		if state.Cursor > 0 {
			state.Cursor--
		}
		return ""
	case k.Special == ArrowRight:
		if state.Cursor < len([]rune(state.Buffer)) {
			state.Cursor++
		}
		return ""
	case k.Special == Home:
		state.Cursor = 0
		return ""
	case k.Special == End:
		state.Cursor = len([]rune(state.Buffer))
		return ""
	case k.Special == Enter:
		text := state.Buffer
		mode := state.Mode
		template := state.PendingTemplate
		state.reset()
		switch mode {
		case ModeCommandPrompt:
			return dispatcher.Dispatch(client, text)
		case ModeCopySearch:
			ctx.SearchCopyMode(client, text, true)
			return ""
		default:
			return dispatcher.Dispatch(client, strings.ReplaceAll(template, "%%", text))
		}
	case k.Special == None && !k.Ctrl:
		state.insertRune(k.Rune)
		return ""
	}
	return ""
}

func (r *Router) handleCopyMode(client arrangement.ClientID, k Key, state *ClientState, ctx PaneContext, dispatcher Dispatcher) {
	switch {
	case k.Rune == 'q' || (k.Ctrl && k.Rune == 'c'):
		ctx.ExitCopyMode(client)
	case k.Rune == 'j' || k.Special == ArrowDown:
		ctx.ScrollCopyMode(client, -1)
	case k.Rune == 'k' || k.Special == ArrowUp:
		ctx.ScrollCopyMode(client, 1)
	case k.Special == PageDown || (k.Ctrl && k.Rune == 'd'):
		ctx.ScrollCopyMode(client, -10)
	case k.Special == PageUp || (k.Ctrl && k.Rune == 'u'):
		ctx.ScrollCopyMode(client, 10)
	case k.Rune == 'g':
		ctx.ScrollCopyMode(client, 1<<30)
	case k.Rune == 'G':
		ctx.ScrollCopyMode(client, -(1 << 30))
	case k.Rune == '/':
		state.Mode = ModeCopySearch
		state.PromptLabel = "Search: "
	case k.Rune == 'n':
		ctx.SearchCopyMode(client, "", true)
	}
}

// translateKey turns one decoded keystroke bound for the active pane's
// process into the bytes that process expects, per spec.md §4.E step 6:
// arrow keys become SS3 sequences under application-cursor mode, '\n'
// becomes '\r', and everything else passes through as its own encoding.
func translateKey(k Key, mode termscreen.ModeState) []byte {
	arrow := func(csiLetter byte) []byte {
		if mode.ApplicationCursor {
			return []byte{0x1b, 'O', csiLetter}
		}
		return []byte{0x1b, '[', csiLetter}
	}
	switch k.Special {
	case ArrowUp:
		return arrow('A')
	case ArrowDown:
		return arrow('B')
	case ArrowRight:
		return arrow('C')
	case ArrowLeft:
		return arrow('D')
	case Enter:
		return []byte{'\r'}
	case Backspace:
		return []byte{0x7f}
	case Tab:
		return []byte{'\t'}
	case Escape:
		return []byte{0x1b}
	case Home:
		return []byte{0x1b, '[', 'H'}
	case End:
		return []byte{0x1b, '[', 'F'}
	case Delete:
		return []byte{0x1b, '[', '3', '~'}
	case EscLetter:
		return []byte{0x1b, k.Letter}
	case EscDigit:
		return []byte{0x1b, '0' + k.Digit}
	}
	if k.Ctrl {
		return []byte{byte(k.Rune-'a') + 1}
	}
	return []byte(string(k.Rune))
}

// WrapBracketedPaste wraps data in CSI 200~/201~ markers when the
// active pane's emulator has bracketed paste enabled; the engine calls
// this around a paste payload before handing it to translateKey's
// caller, since a paste arrives as one opaque blob rather than discrete
// keystrokes.
func WrapBracketedPaste(data []byte, mode termscreen.ModeState) []byte {
	if !mode.BracketedPaste {
		return data
	}
	out := make([]byte, 0, len(data)+12)
	out = append(out, "\x1b[200~"...)
	out = append(out, data...)
	out = append(out, "\x1b[201~"...)
	return out
}
