package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ctxpack/ctxpack-cli/pkg/models"
)

const (
	ProjectDir   = ".ctxpack"
	LogsDir      = "logs"
	SettingsFile = "settings.yaml"
	LogFile      = "ctxpack.log"
	EnvPrefix    = "CTXPACK"
)

// ProjectPath returns the .ctxpack directory for root
func ProjectPath(root string) string {
	return filepath.Join(root, ProjectDir)
}

// LogPath returns the session log file location for root
func LogPath(root string) string {
	return filepath.Join(root, ProjectDir, LogsDir, LogFile)
}

// InitProjectStructure creates the .ctxpack directory under root and writes
// the default settings file unless one already exists.
func InitProjectStructure(root string) error {
	dirs := []string{
		ProjectPath(root),
		filepath.Join(ProjectPath(root), LogsDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	settingsPath := filepath.Join(ProjectPath(root), SettingsFile)
	if _, err := os.Stat(settingsPath); err == nil {
		return nil
	}

	return WriteSettings(ProjectPath(root), models.DefaultSettings())
}

// ReadSettings loads settings.yaml from projectDir. Environment variables
// prefixed with CTXPACK_ override file values; a missing file yields the
// defaults.
func ReadSettings(projectDir string) (*models.Settings, error) {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(SettingsFile, filepath.Ext(SettingsFile)))
	v.SetConfigType("yaml")
	v.AddConfigPath(projectDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := models.DefaultSettings()
	v.SetDefault("ignore.hidden", def.Ignore.Hidden)
	v.SetDefault("ignore.gitignore", def.Ignore.GitIgnore)
	v.SetDefault("ignore.dependency_dir", def.Ignore.DependencyDir)
	v.SetDefault("ignore.exclude", def.Ignore.Exclude)
	v.SetDefault("tokenizer.encoding", def.Tokenizer.Encoding)
	v.SetDefault("session.workers", def.Session.Workers)
	v.SetDefault("session.sentinel", def.Session.Sentinel)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var settings models.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	settings.Normalize()

	return &settings, nil
}

// WriteSettings writes settings.yaml into projectDir
func WriteSettings(projectDir string, settings *models.Settings) error {
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for settings: %w", err)
	}

	content, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings to YAML: %w", err)
	}

	path := filepath.Join(projectDir, SettingsFile)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", path, err)
	}

	return nil
}

// WriteFile writes content to a file (for --output exports)
func WriteFile(path string, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
