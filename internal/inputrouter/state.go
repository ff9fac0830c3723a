package inputrouter

import "pymux/internal/arrangement"

// PromptMode names which per-client overlay, if any, is consuming keys
// ahead of the prefix table and the active pane (spec.md §4.E steps 1-2).
type PromptMode int

const (
	// ModeNormal: no overlay; the prefix table and pane process see keys.
	ModeNormal PromptMode = iota
	// ModeConfirm: a confirmation dialog ("kill-pane? (y/n)") is frontmost.
	ModeConfirm
	// ModeCommandPrompt: the ":" command line is being edited.
	ModeCommandPrompt
	// ModeTextPrompt: a command-prompt -p text substitution is being edited.
	ModeTextPrompt
	// ModeCopySearch: copy-mode's "/" search pattern is being edited.
	ModeCopySearch
)

// ClientState is the per-client input state the router reads and
// mutates: prefix-pending flag, active overlay, and that overlay's edit
// buffer. The engine owns one of these per attached client, alongside
// its arrangement.ClientID.
type ClientState struct {
	HasPrefix bool
	Mode      PromptMode

	// Buffer/Cursor hold the in-progress text for ModeCommandPrompt or
	// ModeTextPrompt (Cursor is a rune offset; edits insert or delete
	// one rune at a time at the cursor).
	Buffer string
	Cursor int

	// PromptLabel is shown before Buffer (": " or a command-prompt -p
	// label); ConfirmMessage is shown for ModeConfirm.
	PromptLabel string

	// PendingTemplate is the command-prompt -p command template, with
	// "%%" substituted by Buffer on submit.
	PendingTemplate string
	// ConfirmCommand runs if the confirmation is accepted.
	ConfirmCommand string
	ConfirmMessage string
}

func (s *ClientState) insertRune(r rune) {
	runes := []rune(s.Buffer)
	if s.Cursor < 0 || s.Cursor > len(runes) {
		s.Cursor = len(runes)
	}
	runes = append(runes[:s.Cursor], append([]rune{r}, runes[s.Cursor:]...)...)
	s.Buffer = string(runes)
	s.Cursor++
}

func (s *ClientState) backspace() bool {
	runes := []rune(s.Buffer)
	if s.Cursor <= 0 || len(runes) == 0 {
		return false
	}
	runes = append(runes[:s.Cursor-1], runes[s.Cursor:]...)
	s.Buffer = string(runes)
	s.Cursor--
	return true
}

func (s *ClientState) reset() {
	*s = ClientState{}
}

// CopyModeOffsets tracks the scroll offset the renderer should apply
// per pane currently in copy mode — owned by the engine, not this
// router, since it outlives any single client's input handling and is
// keyed by pane, not client (copy-mode is a pane property per spec.md
// §3, shared by every client viewing that pane).
type CopyModeOffsets = map[arrangement.PaneID]int
