package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		kind Kind
		args []string
	}{
		{"/add a.txt", KindAdd, []string{"a.txt"}},
		{"  /add a.txt src  ", KindAdd, []string{"a.txt", "src"}},
		{"/ADD a.txt", KindAdd, []string{"a.txt"}},
		{`/add "my notes.txt" 'other file.md'`, KindAdd, []string{"my notes.txt", "other file.md"}},
		{"/remove a.txt", KindRemove, []string{"a.txt"}},
		{"/rm a.txt", KindRemove, []string{"a.txt"}},
		{"/reset", KindReset, nil},
		{"/context", KindContext, nil},
		{"/copy", KindCopy, nil},
		{"/mode", KindMode, nil},
		{"/mode prompt", KindMode, []string{"prompt"}},
		{"/prompt", KindCompose, nil},
		{"/prompt show", KindViewInstruction, nil},
		{"/resetprompt", KindClearInstruction, nil},
		{"/clearprompt", KindClearInstruction, nil},
		{"/help", KindHelp, nil},
		{"/quit", KindQuit, nil},
		{"/exit", KindQuit, nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Kind)
			if tt.args == nil {
				assert.Empty(t, cmd.Args)
			} else {
				assert.Equal(t, tt.args, cmd.Args)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"/nope", ErrUnknownCommand},
		{"/", ErrUnknownCommand},
		{"hello", ErrUnknownCommand},
		{"/add", ErrUsage},
		{"/remove", ErrUsage},
		{"/reset now", ErrUsage},
		{"/mode manual prompt", ErrUsage},
		{"/prompt edit", ErrUsage},
		{"/copy everything", ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/add x"))
	assert.True(t, IsCommand("   /copy"))
	assert.False(t, IsCommand("Explain X"))
	assert.False(t, IsCommand(""))
}

func TestCommandNames(t *testing.T) {
	names := CommandNames()

	for _, want := range []string{"/add", "/remove", "/rm", "/reset", "/context", "/copy", "/mode", "/prompt", "/resetprompt", "/clearprompt", "/help", "/quit", "/exit"} {
		assert.Contains(t, names, want)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "/add <path>...", KindAdd.String())
	assert.Equal(t, "/prompt show", KindViewInstruction.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
