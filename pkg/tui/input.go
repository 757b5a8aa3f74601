package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

// CommandInput is the single-line reader with command name completion
type CommandInput struct {
	input textinput.Model
	names []string
}

// NewCommandInput creates an input completing the given command names
func NewCommandInput(names []string) *CommandInput {
	ti := textinput.New()
	ti.CharLimit = 0
	ti.Width = 80
	ti.PromptStyle = PromptStyle
	ti.Focus()

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	c := &CommandInput{
		input: ti,
		names: sorted,
	}
	c.SetMode(models.ModeManual)
	return c
}

// SetWidth sets the width of the input line
func (c *CommandInput) SetWidth(width int) {
	c.input.Width = width - lipgloss.Width(c.input.Prompt) - 1
}

// SetMode updates the prompt and placeholder for the session mode
func (c *CommandInput) SetMode(mode models.Mode) {
	c.input.Prompt = mode.String() + "> "
	if mode == models.ModePrompt {
		c.input.Placeholder = "type instruction text, /prompt to edit, /copy"
	} else {
		c.input.Placeholder = "/add <path>, /help"
	}
}

func (c *CommandInput) Value() string {
	return c.input.Value()
}

func (c *CommandInput) SetValue(value string) {
	c.input.SetValue(value)
	c.input.CursorEnd()
}

func (c *CommandInput) Reset() {
	c.input.Reset()
}

func (c *CommandInput) Focus() tea.Cmd {
	return c.input.Focus()
}

func (c *CommandInput) Blur() {
	c.input.Blur()
}

// Complete expands the command name being typed. A unique match is
// completed with a trailing space, several matches are narrowed to their
// common prefix and returned so the caller can list them.
func (c *CommandInput) Complete() []string {
	matches := Completions(c.input.Value(), c.names)
	switch len(matches) {
	case 0:
		return nil
	case 1:
		c.SetValue(matches[0] + " ")
		return nil
	default:
		c.SetValue(commonPrefix(matches))
		return matches
	}
}

func (c *CommandInput) Update(msg tea.Msg) (*CommandInput, tea.Cmd) {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *CommandInput) View() string {
	return c.input.View()
}

// Completions returns the command names starting with value. Only the
// first word of a sigil-prefixed line is completed.
func Completions(value string, names []string) []string {
	value = strings.TrimLeft(value, " ")
	if !strings.HasPrefix(value, "/") || strings.ContainsAny(value, " \t") {
		return nil
	}

	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, strings.ToLower(value)) {
			matches = append(matches, name)
		}
	}
	return matches
}

func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, v := range values[1:] {
		for !strings.HasPrefix(v, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
