package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ctxpack/ctxpack-cli/internal/logging"
	"github.com/ctxpack/ctxpack-cli/pkg/files"
	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

// CommandContext resolves the project root and lazily loads what commands
// share: settings, the ignore policy and the logger.
type CommandContext struct {
	Root        string
	ProjectPath string
	Settings    *models.Settings

	policy *files.IgnorePolicy
	closer io.Closer
}

// NewCommandContext creates a command context rooted at root, the working
// directory when empty
func NewCommandContext(root string) (*CommandContext, error) {
	if root == "" {
		root = "."
	}
	if err := ValidateDirectoryPath(root); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	return &CommandContext{
		Root:        abs,
		ProjectPath: files.ProjectPath(abs),
	}, nil
}

// LoadSettingsWithDefault loads settings or returns default if error
func (c *CommandContext) LoadSettingsWithDefault() *models.Settings {
	if c.Settings != nil {
		return c.Settings
	}

	settings, err := files.ReadSettings(c.ProjectPath)
	if err != nil {
		PrintWarning("Using default settings: %v", err)
		settings = models.DefaultSettings()
	}

	c.Settings = settings
	return settings
}

// Policy builds the ignore policy from the loaded settings
func (c *CommandContext) Policy() (*files.IgnorePolicy, error) {
	if c.policy != nil {
		return c.policy, nil
	}

	policy, err := files.NewIgnorePolicy(c.Root, c.LoadSettingsWithDefault().Ignore)
	if err != nil {
		return nil, err
	}
	c.policy = policy
	return policy, nil
}

// Logger opens the project log. levelOverride, when set, wins over the
// configured level. Call Close when done.
func (c *CommandContext) Logger(levelOverride string) (*slog.Logger, error) {
	name := c.LoadSettingsWithDefault().Log.Level
	if levelOverride != "" {
		name = levelOverride
	}

	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}

	logger, closer := logging.ForProject(c.ProjectPath, files.LogPath(c.Root), level)
	c.closer = closer
	return logger, nil
}

// Close releases the log file
func (c *CommandContext) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// EditorLauncher handles all editor-related operations
type EditorLauncher struct {
	DefaultEditor string
}

// NewEditorLauncher creates a new editor launcher
func NewEditorLauncher() *EditorLauncher {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return &EditorLauncher{
		DefaultEditor: editor,
	}
}

// OpenFile opens a file in the configured editor
func (e *EditorLauncher) OpenFile(filepath string) error {
	parts := strings.Fields(e.DefaultEditor)
	if len(parts) == 0 {
		return fmt.Errorf("no editor configured")
	}

	editorCmd := exec.Command(parts[0], append(parts[1:], filepath)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	return nil
}

// Edit opens content in the editor through a temp file and returns the
// saved text
func (e *EditorLauncher) Edit(name, content string) (string, error) {
	tmpFile, err := os.CreateTemp("", name)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmpFile.Name()
	defer os.Remove(path)

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := e.OpenFile(path); err != nil {
		return "", err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(edited), nil
}
