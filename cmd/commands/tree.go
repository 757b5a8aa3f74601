package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/tree"
)

// NewTreeCommand creates the tree command
func NewTreeCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print the project tree included in every document",
		Long: `Print the directory tree that ctxpack places first in every context
document, with the same ignore rules applied.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := g.Root
			if len(args) == 1 {
				root = args[0]
			}

			cc, err := cli.NewCommandContext(root)
			if err != nil {
				return err
			}
			defer cc.Close()

			policy, err := cc.Policy()
			if err != nil {
				return err
			}

			out, err := tree.Generate(cc.Root, policy)
			if err != nil {
				return fmt.Errorf("failed to render tree: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}
