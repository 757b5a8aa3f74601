package session

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/composer"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

// ContextReport renders the selected files, their sizes and the document
// totals as a table.
func ContextReport(snap Snapshot) string {
	var b strings.Builder

	if len(snap.Files) == 0 {
		b.WriteString("No files selected\n")
	} else {
		table := cli.NewTableFormatter(&b)
		table.Header("FILE", "SIZE")
		total := 0
		for _, f := range snap.Files {
			table.Row(f.Key, humanize.Bytes(uint64(f.Size)))
			total += f.Size
		}
		table.Flush()
		fmt.Fprintf(&b, "\n%s, %s\n", plural(len(snap.Files), "file"), humanize.Bytes(uint64(total)))
	}

	fmt.Fprintf(&b, "Document: %s, %s\n",
		plural(len(composer.DocumentIndices(snap.Document.Text)), "fragment"), formatTokens(snap.Document.Tokens))
	if snap.Encoding != "" {
		fmt.Fprintf(&b, "Encoding: %s\n", snap.Encoding)
	}
	if len(snap.Excludes) > 0 {
		fmt.Fprintf(&b, "Excludes: %s\n", strings.Join(snap.Excludes, " "))
	}
	fmt.Fprintf(&b, "Mode: %s", snap.Mode)
	if snap.Instruction != "" {
		fmt.Fprintf(&b, "\nInstruction: %s", plural(strings.Count(snap.Instruction, "\n")+1, "line"))
	}
	return b.String()
}

// HelpText lists every command with the modes it is available in. Commands
// unavailable in mode are marked.
func (r *Router) HelpText(mode models.Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commands (current mode: %s)\n\n", mode)

	table := cli.NewTableFormatter(&b)
	table.Header("COMMAND", "MODES", "DESCRIPTION")
	for _, spec := range catalog {
		var modes []string
		for _, m := range []models.Mode{models.ModeManual, models.ModePrompt} {
			if r.Allowed(spec.kind, m) {
				modes = append(modes, m.String())
			}
		}
		usage := spec.usage
		if !r.Allowed(spec.kind, mode) {
			usage += " *"
		}
		table.Row(usage, strings.Join(modes, ","), spec.summary)
	}
	table.Flush()

	fmt.Fprintf(&b, "\n* not available in %s mode", mode)
	if mode == models.ModePrompt {
		b.WriteString("\nLines without a leading / are added to the instruction")
	}
	return b.String()
}

func formatTokens(tokens int) string {
	return utils.FormatTokenCount(tokens)
}
