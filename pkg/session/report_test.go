package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

func TestContextReport(t *testing.T) {
	snap := Snapshot{
		Files: []FileEntry{{Key: "a.txt", Size: 5}, {Key: "src/b.go", Size: 2048}},
		Document: Document{
			Text:   "<documents>\n<document index=\"1\">\n</document>\n<document index=\"2\">\n</document>\n<document index=\"3\">\n</document>\n</documents>",
			Tokens: 42,
		},
		Mode:        models.ModePrompt,
		Instruction: "one\ntwo",
		Excludes:    []string{"*.log", "dist/**"},
		Encoding:    "cl100k_base",
	}

	report := ContextReport(snap)

	assert.Contains(t, report, "FILE")
	assert.Contains(t, report, "src/b.go")
	assert.Contains(t, report, "2 files, 2.1 kB")
	assert.Contains(t, report, "Document: 3 fragments, ~42 tokens")
	assert.Contains(t, report, "Encoding: cl100k_base\n")
	assert.Contains(t, report, "Excludes: *.log dist/**\n")
	assert.Contains(t, report, "Mode: prompt")
	assert.Contains(t, report, "Instruction: 2 lines")
}

func TestContextReportEmpty(t *testing.T) {
	report := ContextReport(Snapshot{Mode: models.ModeManual})

	assert.Contains(t, report, "No files selected")
	assert.Contains(t, report, "Document: 0 fragments")
	assert.NotContains(t, report, "Encoding:")
	assert.NotContains(t, report, "Excludes:")
	assert.NotContains(t, report, "Instruction:")
}

func TestSnapshotReportsPolicyAndEncoding(t *testing.T) {
	settings := models.DefaultSettings().Ignore
	settings.Exclude = []string{"*.log"}
	policy, err := files.NewIgnorePolicy(t.TempDir(), settings)
	require.NoError(t, err)

	s, err := New(Options{Policy: policy, Tokenizer: utils.NewTiktokenCounter("o200k_base")})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, []string{"*.log"}, snap.Excludes)
	assert.Equal(t, "o200k_base", snap.Encoding)

	s, err = New(Options{Policy: policy, Tokenizer: utils.TokenizerFunc(func(string) (int, error) { return 0, nil })})
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Encoding)
}
