// Package cmdline is the thin edge of the command parser/dispatcher
// spec.md §1 declares an out-of-scope black box: it tokenizes one
// command line (the ":" prompt's buffer, a prefix-table binding's
// Command string, or a run-command packet's payload) into a verb and
// its arguments, and turns the handful of verbs spec.md §6's default
// bindings and §4.C's operations actually name into calls against the
// engine. Grounded on the teacher's internal/bridge/exec.go, whose one
// reusable idiom — google/shlex argv tokenization of a single string —
// is carried forward here (see DESIGN.md's "Deleted teacher material").
package cmdline

import (
	"fmt"

	"github.com/google/shlex"
)

// Command is one parsed command line: its verb and the remaining
// shell-tokenized arguments.
type Command struct {
	Name string
	Args []string
}

// Parse tokenizes line the way a shell would (so a rename-window title
// containing spaces can be quoted) and splits off the leading verb.
func Parse(line string) (Command, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("cmdline: %w", err)
	}
	if len(tokens) == 0 {
		return Command{}, fmt.Errorf("cmdline: empty command")
	}
	return Command{Name: tokens[0], Args: tokens[1:]}, nil
}

// flagValue scans args for "-name value" and returns value, consumed.
func flagValue(args []string, name string) (string, bool) {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// hasFlag reports whether a bare boolean flag like "-v" is present.
func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// firstPositional returns the first argument not consumed as a flag or
// its value; callers pass the flags (with their arity) they've already
// accounted for so a flag's value isn't mistaken for a positional.
func firstPositional(args []string, valueFlags map[string]bool) (string, bool) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && a[0] == '-' {
			if valueFlags[a] {
				i++
			}
			continue
		}
		return a, true
	}
	return "", false
}
