package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/session"
	"github.com/ctxpack/ctxpack-cli/pkg/utils"
)

// copySummary is what `copy --format json|yaml` reports
type copySummary struct {
	Files       []string `json:"files" yaml:"files"`
	Bytes       int      `json:"bytes" yaml:"bytes"`
	Tokens      int      `json:"tokens" yaml:"tokens"`
	Instruction bool     `json:"instruction" yaml:"instruction"`
	Clipboard   bool     `json:"clipboard" yaml:"clipboard"`
}

// NewCopyCommand creates the one-shot copy command
func NewCopyCommand(g *Globals) *cobra.Command {
	var (
		prompt string
		edit   bool
		stdout bool
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "copy <path>...",
		Short: "Build a context document from paths and copy it to the clipboard",
		Long: `Select files and directories, build the context document once and copy it
to the system clipboard, without starting the interactive session.

Ignored entries (hidden files, .gitignore matches, node_modules) are skipped
exactly as in the session.

Examples:
  # Copy a directory
  ctxpack copy src

  # Copy files with an instruction appended
  ctxpack copy main.go README.md --prompt "Explain the startup sequence"

  # Write the instruction in $EDITOR
  ctxpack copy src --edit

  # Print the document instead of using the clipboard
  ctxpack copy src --stdout > context.xml
  ctxpack copy src --output context.xml`,
		Args:    cobra.MinimumNArgs(1),
		Aliases: []string{"cp"},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.ValidateOutputFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			clip := newClipboard()
			if stdout || output != "" {
				clip = &utils.MemoryClipboard{}
			}

			env, err := openSession(g, clip)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			if _, err := env.session.Add(ctx, args...); err != nil {
				return fmt.Errorf("failed to add paths: %w", err)
			}

			if edit {
				edited, err := cli.NewEditorLauncher().Edit("ctxpack-instruction-*.md", prompt)
				if err != nil {
					return err
				}
				prompt = edited
			}
			if prompt = strings.TrimRight(prompt, "\r\n"); prompt != "" {
				if err := env.session.AppendInstruction(ctx, prompt); err != nil {
					return fmt.Errorf("failed to set instruction: %w", err)
				}
			}

			doc, err := env.session.Copy(ctx)
			copied := err == nil
			if err != nil && !errors.Is(err, session.ErrClipboard) {
				return fmt.Errorf("failed to build document: %w", err)
			}

			snap := env.session.Snapshot()
			if len(snap.Selected) == 0 {
				cli.PrintWarning("No files matched %s (everything was ignored)", strings.Join(args, " "))
			}

			if stdout {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
				return err
			}
			if output != "" {
				if err := files.WriteFile(output, doc.Text); err != nil {
					return err
				}
				cli.PrintSuccess("Wrote %d files to %s (%s)", len(snap.Selected), output, utils.FormatTokenCount(doc.Tokens))
				return nil
			}

			if cli.OutputFormat(format) != cli.FormatText {
				summary := copySummary{
					Files:       snap.Selected,
					Bytes:       len(doc.Text),
					Tokens:      doc.Tokens,
					Instruction: snap.Instruction != "",
					Clipboard:   copied,
				}
				if err := cli.OutputResults(cmd.OutOrStdout(), format, summary); err != nil {
					return err
				}
			}

			if !copied {
				return err
			}

			if cli.OutputFormat(format) == cli.FormatText {
				cli.PrintSuccess("Copied %d files to clipboard (%s)", len(snap.Selected), utils.FormatTokenCount(doc.Tokens))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Instruction appended after the documents")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Write the instruction in $EDITOR")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the document instead of copying it")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a file instead of copying it")
	cmd.Flags().StringVarP(&format, "format", "f", string(cli.FormatText), "Summary format (text, json, yaml)")

	return cmd
}
