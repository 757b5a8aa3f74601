package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ctxpack/ctxpack-cli/internal/cli"
	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

// NewInitCommand creates the init command
func NewInitCommand(g *Globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a ctxpack project",
		Long: `Creates the .ctxpack folder with a default settings.yaml and a logs
directory. Settings control ignore rules, the token encoding and the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := cli.NewCommandContext(g.Root)
			if err != nil {
				return err
			}

			cli.PrintInfo("Initializing ctxpack project in %s...", cc.Root)

			settingsPath := filepath.Join(cc.ProjectPath, files.SettingsFile)
			if _, err := os.Stat(settingsPath); err == nil {
				if !force {
					cli.PrintInfo("%s already exists, keeping it (use --force to reset)", settingsPath)
				} else {
					ok, err := cli.Confirm(fmt.Sprintf("Overwrite %s with defaults?", settingsPath), false)
					if err != nil {
						return err
					}
					if !ok {
						cli.PrintInfo("Cancelled")
						return nil
					}
					if err := files.WriteSettings(cc.ProjectPath, models.DefaultSettings()); err != nil {
						return err
					}
				}
			}

			if err := files.InitProjectStructure(cc.Root); err != nil {
				return fmt.Errorf("failed to initialize project structure: %w", err)
			}

			cli.PrintSuccess("Created %s", files.ProjectDir)
			cli.PrintInfo("Run 'ctxpack' to start a session.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reset settings.yaml to the defaults")

	return cmd
}
