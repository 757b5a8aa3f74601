package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

// NewRunCommand creates the headless session command
func NewRunCommand(g *Globals) *cobra.Command {
	var (
		script string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run session commands from a script or stdin",
		Long: `Feed session lines to ctxpack without the terminal interface. Every line
is handled exactly as if it was typed in the interactive session: commands
start with /, and in prompt mode other lines become the instruction.

Examples:
  # Run a script
  ctxpack run --script review.txt

  # Pipe commands
  printf '/add src\n/mode prompt\nReview this code\n/copy\n' | ctxpack run`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if script != "" {
				return cli.ValidateFilePath(script)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if script != "" {
				f, err := os.Open(script)
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			env, err := openSession(g, newClipboard())
			if err != nil {
				return err
			}
			defer env.Close()

			failures := 0
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				res := env.router.HandleLine(cmd.Context(), scanner.Text())
				for _, n := range res.Notices {
					cli.PrintNotice(n)
					if n.Level == models.NoticeError {
						failures++
					}
				}
				if res.Quit {
					break
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			if strict && failures > 0 {
				return fmt.Errorf("%d command(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&script, "script", "s", "", "Read session lines from a file instead of stdin")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error if any command failed")

	return cmd
}
