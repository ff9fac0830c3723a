package inputrouter

// DefaultPrefixKey is the key that, pressed without an active prompt or
// confirmation, arms the prefix table for the next keystroke. Default
// Ctrl-B per spec.md §6; config.Options.Prefix overrides it at the
// engine layer, which constructs a Router with that key instead.
var DefaultPrefixKey = Key{Ctrl: true, Rune: 'b'}

// BindingKind distinguishes a binding that runs straight through the
// command dispatcher from the handful that open a per-client overlay
// the router itself owns (the command prompt, a text prompt, or a
// confirmation dialog) — those need ClientState, which the dispatcher
// never sees.
type BindingKind int

const (
	KindDispatch BindingKind = iota
	KindCommandPrompt
	KindTextPrompt
	KindConfirm
)

// Binding is one prefix-table entry.
type Binding struct {
	Key            Key
	Kind           BindingKind
	Command        string // KindDispatch: the command line; KindTextPrompt: its "%%" template
	PromptLabel    string // KindCommandPrompt/KindTextPrompt
	ConfirmMessage string // KindConfirm
}

func dispatch(k Key, cmd string) Binding { return Binding{Key: k, Kind: KindDispatch, Command: cmd} }

// DefaultBindings is the table spec.md §6 requires every server to
// provide out of the box. Dispatch commands are plain dispatcher-syntax
// lines; internal/cmdline defines the verbs (split-window, select-pane,
// etc).
func DefaultBindings() []Binding {
	b := []Binding{
		dispatch(Key{Rune: '"'}, "split-window -v"),
		dispatch(Key{Rune: '%'}, "split-window -h"),
		dispatch(Key{Rune: 'c'}, "new-window"),
		dispatch(Key{Rune: 'n'}, "next-window"),
		dispatch(Key{Rune: 'p'}, "previous-window"),
		dispatch(Key{Rune: 'o'}, "select-pane -n"),
		dispatch(Key{Rune: ';'}, "last-pane"),
		dispatch(Key{Rune: 'l'}, "last-window"),
		{Key: Key{Rune: ','}, Kind: KindTextPrompt, PromptLabel: "rename-window: ", Command: "rename-window %%"},
		{Key: Key{Rune: '\''}, Kind: KindTextPrompt, PromptLabel: "rename-pane: ", Command: "rename-pane %%"},
		{Key: Key{Rune: 'x'}, Kind: KindConfirm, ConfirmMessage: "kill-pane? (y/n)", Command: "kill-pane"},
		dispatch(Key{Rune: '!'}, "break-pane"),
		dispatch(Key{Rune: 'd'}, "detach-client"),
		dispatch(Key{Rune: 't'}, "clock-mode"),
		dispatch(Key{Rune: '['}, "copy-mode"),
		dispatch(Key{Rune: ' '}, "next-layout"),
		dispatch(Key{Ctrl: true, Rune: 'z'}, "suspend-client"),
		{Key: Key{Rune: ':'}, Kind: KindCommandPrompt, PromptLabel: ":"},
		dispatch(Key{Rune: 'z'}, "toggle-zoom"),
		dispatch(Key{Rune: '{'}, "swap-pane -U"),
		dispatch(Key{Rune: '}'}, "swap-pane -D"),
		dispatch(Key{Ctrl: true, Rune: 'o'}, "rotate-window"),
		dispatch(Key{Special: EscLetter, Letter: 'o'}, "rotate-window"),

		dispatch(Key{Special: ArrowLeft}, "select-pane -L"),
		dispatch(Key{Special: ArrowRight}, "select-pane -R"),
		dispatch(Key{Special: ArrowUp}, "select-pane -U"),
		dispatch(Key{Special: ArrowDown}, "select-pane -D"),
		dispatch(Key{Ctrl: true, Rune: 'h'}, "select-pane -L"),
		dispatch(Key{Ctrl: true, Rune: 'j'}, "select-pane -D"),
		dispatch(Key{Ctrl: true, Rune: 'k'}, "select-pane -U"),
		dispatch(Key{Ctrl: true, Rune: 'l'}, "select-pane -R"),

		dispatch(Key{Rune: 'h'}, "resize-pane -L 5"),
		dispatch(Key{Rune: 'j'}, "resize-pane -D 5"),
		dispatch(Key{Rune: 'k'}, "resize-pane -U 5"),
		dispatch(Key{Rune: 'L'}, "resize-pane -R 5"),
	}
	for d := byte('0'); d <= '9'; d++ {
		b = append(b, dispatch(Key{Rune: rune(d)}, "select-window -t :"+string(d)))
	}
	for d := byte('1'); d <= '5'; d++ {
		b = append(b, dispatch(Key{Special: EscDigit, Digit: d - '0'}, "select-layout "+layoutTagName(d)))
	}
	return b
}

func layoutTagName(digit byte) string {
	switch digit {
	case '1':
		return "even-horizontal"
	case '2':
		return "even-vertical"
	case '3':
		return "main-horizontal"
	case '4':
		return "main-vertical"
	case '5':
		return "tiled"
	default:
		return "even-horizontal"
	}
}

// lookup finds the binding for k, if any.
func lookup(bindings []Binding, k Key) (Binding, bool) {
	for _, b := range bindings {
		if b.Key == k {
			return b, true
		}
	}
	return Binding{}, false
}
