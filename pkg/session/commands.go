package session

import (
	"fmt"
	"strings"
)

// Sigil marks a line as a command
const Sigil = "/"

// Kind identifies a command independent of the name it was typed with
type Kind int

const (
	KindAdd Kind = iota + 1
	KindRemove
	KindReset
	KindContext
	KindCopy
	KindMode
	KindCompose
	KindViewInstruction
	KindClearInstruction
	KindHelp
	KindQuit
)

func (k Kind) String() string {
	for _, spec := range catalog {
		if spec.kind == k {
			return spec.usage
		}
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is a parsed command line
type Command struct {
	Kind Kind
	Name string
	Args []string
}

type commandSpec struct {
	kind    Kind
	names   []string
	usage   string
	summary string
	minArgs int
	maxArgs int // -1 for no limit
}

// catalog lists every command in help order. An entry without names is
// reached through another command's arguments.
var catalog = []commandSpec{
	{kind: KindAdd, names: []string{"add"}, usage: "/add <path>...", summary: "Add files or directories to the context", minArgs: 1, maxArgs: -1},
	{kind: KindRemove, names: []string{"remove", "rm"}, usage: "/remove <path>...", summary: "Remove files or directories from the context", minArgs: 1, maxArgs: -1},
	{kind: KindReset, names: []string{"reset"}, usage: "/reset", summary: "Clear the selection, document and instruction"},
	{kind: KindContext, names: []string{"context"}, usage: "/context", summary: "Show the selected files and token count"},
	{kind: KindCopy, names: []string{"copy"}, usage: "/copy", summary: "Rebuild the document and copy it to the clipboard"},
	{kind: KindMode, names: []string{"mode"}, usage: "/mode [manual|prompt]", summary: "Show or switch the mode", maxArgs: 1},
	{kind: KindCompose, names: []string{"prompt"}, usage: "/prompt", summary: "Edit the instruction (switches to prompt mode)", maxArgs: 1},
	{kind: KindViewInstruction, usage: "/prompt show", summary: "Show the pending instruction"},
	{kind: KindClearInstruction, names: []string{"resetprompt", "clearprompt"}, usage: "/resetprompt", summary: "Clear the pending instruction"},
	{kind: KindHelp, names: []string{"help"}, usage: "/help", summary: "Show this help"},
	{kind: KindQuit, names: []string{"quit", "exit"}, usage: "/quit", summary: "Leave the session"},
}

// IsCommand reports whether line starts with the command sigil
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), Sigil)
}

// CommandNames returns every typeable command with its sigil, for
// completion.
func CommandNames() []string {
	var names []string
	for _, spec := range catalog {
		for _, n := range spec.names {
			names = append(names, Sigil+n)
		}
	}
	return names
}

// Parse turns a command line into a Command
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Sigil) {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}

	fields := splitArgs(strings.TrimPrefix(line, Sigil))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	spec, ok := lookup(name)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s%s", ErrUnknownCommand, Sigil, name)
	}

	kind := spec.kind
	if kind == KindCompose && len(args) == 1 {
		if !strings.EqualFold(args[0], "show") {
			return Command{}, fmt.Errorf("%w: %s or /prompt show", ErrUsage, spec.usage)
		}
		kind = KindViewInstruction
		args = nil
	}

	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		return Command{}, fmt.Errorf("%w: %s", ErrUsage, spec.usage)
	}

	return Command{Kind: kind, Name: name, Args: args}, nil
}

func lookup(name string) (commandSpec, bool) {
	for _, spec := range catalog {
		for _, n := range spec.names {
			if n == name {
				return spec, true
			}
		}
	}
	return commandSpec{}, false
}

// splitArgs splits on whitespace, keeping single or double quoted
// sections together.
func splitArgs(s string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, current.String())
	}
	return args
}
