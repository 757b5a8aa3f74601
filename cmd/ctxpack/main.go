package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ctxpack/ctxpack-cli/cmd/commands"
	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/tui"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	globals     commands.Globals
	quiet       bool
	noColor     bool
	skipConfirm bool
)

var rootCmd = &cobra.Command{
	Use:   "ctxpack",
	Short: "Pack project files into an LLM-ready context document",
	Long: `ctxpack selects files from a project, merges them with a directory tree and
an optional instruction into one XML-tagged document, counts its tokens and
copies it to the clipboard.

Run without arguments to start an interactive session. When stdin is not a
terminal the session lines are read from stdin instead (see 'ctxpack run').`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.SetGlobalFlags(quiet, noColor, skipConfirm)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			run := commands.NewRunCommand(&globals)
			run.SetContext(cmd.Context())
			return run.RunE(run, nil)
		}

		router, closer, err := commands.NewSession(&globals)
		if err != nil {
			return err
		}
		defer closer.Close()

		if err := tui.Run(cmd.Context(), router); err != nil {
			return fmt.Errorf("failed to start the terminal user interface: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ctxpack",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ctxpack version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globals.Root, "root", "C", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "Log level: debug, info, warn, error, off (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable symbols and colors in output")
	rootCmd.PersistentFlags().BoolVarP(&skipConfirm, "yes", "y", false, "Answer yes to confirmations")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(commands.NewInitCommand(&globals))
	rootCmd.AddCommand(commands.NewCopyCommand(&globals))
	rootCmd.AddCommand(commands.NewRunCommand(&globals))
	rootCmd.AddCommand(commands.NewTreeCommand(&globals))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
