package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/session"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

func newTestApp(t *testing.T, contents map[string]string) (*App, *utils.MemoryClipboard) {
	t.Helper()
	root := t.TempDir()
	for name, content := range contents {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	policy, err := files.NewIgnorePolicy(root, models.DefaultSettings().Ignore)
	require.NoError(t, err)

	clip := &utils.MemoryClipboard{}
	s, err := session.New(session.Options{
		Policy:    policy,
		Tokenizer: utils.TokenizerFunc(func(text string) (int, error) { return len(text), nil }),
		Clipboard: clip,
	})
	require.NoError(t, err)

	app := NewApp(context.Background(), session.NewRouter(s, nil))
	app.SetSize(100, 30)
	return app, clip
}

// drain runs cmd and every command it batches, returning the messages
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, drain(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// press sends a key and feeds any routed result back into the app
func press(t *testing.T, app *App, key tea.KeyMsg) tea.Cmd {
	t.Helper()
	_, cmd := app.Update(key)
	var follow tea.Cmd
	for _, msg := range drain(cmd) {
		if res, ok := msg.(resultMsg); ok {
			_, follow = app.Update(res)
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			return cmd
		}
	}
	return follow
}

func typeLine(t *testing.T, app *App, line string) tea.Cmd {
	t.Helper()
	app.input.SetValue(line)
	return press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
}

func logText(app *App) string {
	var lines []string
	for _, e := range app.log {
		lines = append(lines, e.text)
	}
	return strings.Join(lines, "\n")
}

func isQuit(cmd tea.Cmd) bool {
	for _, msg := range drain(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

func TestCompletions(t *testing.T) {
	names := session.CommandNames()

	tests := []struct {
		value string
		want  []string
	}{
		{"/ad", []string{"/add"}},
		{"/AD", []string{"/add"}},
		{"/re", []string{"/remove", "/reset", "/resetprompt"}},
		{"/add x", nil},
		{"hello", nil},
		{"/zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := Completions(tt.value, names)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCommandInputComplete(t *testing.T) {
	input := NewCommandInput(session.CommandNames())

	input.SetValue("/co")
	matches := input.Complete()
	assert.ElementsMatch(t, []string{"/context", "/copy"}, matches)
	assert.Equal(t, "/co", input.Value())

	input.SetValue("/cop")
	assert.Nil(t, input.Complete())
	assert.Equal(t, "/copy ", input.Value())

	input.SetValue("/res")
	input.Complete()
	assert.Equal(t, "/reset", input.Value())
}

func TestStatusLine(t *testing.T) {
	snap := session.Snapshot{
		Selected: []string{"a.txt", "b.txt"},
		Document: session.Document{Tokens: 1234},
		Mode:     models.ModePrompt,
	}
	assert.Equal(t, "[2] files | [~1.2K tokens] | prompt", StatusLine(snap))

	snap.Editor = models.MultiLine
	assert.Equal(t, "[2] files | [~1.2K tokens] | prompt (editing)", StatusLine(snap))

	assert.Equal(t, "[0] files | [~0 tokens] | manual", StatusLine(session.Snapshot{}))
}

func TestAppRoutesLines(t *testing.T) {
	app, clip := newTestApp(t, map[string]string{"a.txt": "alpha"})

	typeLine(t, app, "/add a.txt")
	assert.False(t, app.busy)
	assert.Contains(t, logText(app), "manual> /add a.txt")
	assert.Contains(t, logText(app), "Added 1 file")
	assert.Equal(t, []string{"a.txt"}, app.router.Session().Snapshot().Selected)

	typeLine(t, app, "/copy")
	assert.Contains(t, clip.Text, "<source>a.txt</source>")
	assert.Empty(t, app.input.Value())

	assert.Contains(t, app.View(), "[1] files")
}

func TestAppMultiLineEditing(t *testing.T) {
	app, _ := newTestApp(t, nil)

	typeLine(t, app, "/mode prompt")
	typeLine(t, app, "keep")
	typeLine(t, app, "/prompt")
	require.True(t, app.editing)
	assert.Equal(t, "keep", app.editor.Value())

	app.editor.SetValue("line one\nline two\n:submit")
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, app.editing)
	snap := app.router.Session().Snapshot()
	assert.Equal(t, "line one\nline two", snap.Instruction)
	assert.Equal(t, models.SingleLine, snap.Editor)
	assert.Contains(t, logText(app), "Instruction saved (2 lines)")
}

func TestAppInterrupt(t *testing.T) {
	app, _ := newTestApp(t, nil)

	typeLine(t, app, "/mode prompt")
	typeLine(t, app, "/prompt")
	require.True(t, app.editing)

	cmd := press(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.False(t, isQuit(cmd))
	assert.False(t, app.editing)
	assert.Contains(t, logText(app), "Instruction edit cancelled")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestAppQuitCommand(t *testing.T) {
	app, _ := newTestApp(t, nil)

	_, cmd := app.Update(func() tea.KeyMsg {
		app.input.SetValue("/quit")
		return tea.KeyMsg{Type: tea.KeyEnter}
	}())

	var quit bool
	for _, msg := range drain(cmd) {
		if res, ok := msg.(resultMsg); ok {
			_, follow := app.Update(res)
			quit = isQuit(follow)
		}
	}
	assert.True(t, quit)
}

func TestAppTabListsMatches(t *testing.T) {
	app, _ := newTestApp(t, nil)

	app.input.SetValue("/c")
	app.Update(tea.KeyMsg{Type: tea.KeyTab})

	assert.Contains(t, logText(app), "/clearprompt  /context  /copy")
}
