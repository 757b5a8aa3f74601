package models

// Settings represents the application configuration
type Settings struct {
	Ignore    IgnoreSettings    `yaml:"ignore" mapstructure:"ignore"`
	Tokenizer TokenizerSettings `yaml:"tokenizer" mapstructure:"tokenizer"`
	Session   SessionSettings   `yaml:"session" mapstructure:"session"`
	Log       LogSettings       `yaml:"log" mapstructure:"log"`
}

// IgnoreSettings controls which entries the enumerator and the tree skip
type IgnoreSettings struct {
	Hidden        bool     `yaml:"hidden" mapstructure:"hidden"`
	GitIgnore     bool     `yaml:"gitignore" mapstructure:"gitignore"`
	DependencyDir string   `yaml:"dependency_dir" mapstructure:"dependency_dir"`
	Exclude       []string `yaml:"exclude" mapstructure:"exclude"`
}

// TokenizerSettings selects the BPE encoding used for token counts
type TokenizerSettings struct {
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

// SessionSettings tunes the interactive session
type SessionSettings struct {
	Workers  int    `yaml:"workers" mapstructure:"workers"`
	Sentinel string `yaml:"sentinel" mapstructure:"sentinel"`
}

// LogSettings controls the session log file
type LogSettings struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultSettings returns the default configuration
func DefaultSettings() *Settings {
	return &Settings{
		Ignore: IgnoreSettings{
			Hidden:        true,
			GitIgnore:     true,
			DependencyDir: "node_modules",
			Exclude:       []string{},
		},
		Tokenizer: TokenizerSettings{
			Encoding: "cl100k_base",
		},
		Session: SessionSettings{
			Workers:  8,
			Sentinel: ":submit",
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Normalize fills zero values with defaults so partially written
// settings files still produce a usable configuration.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	if s.Tokenizer.Encoding == "" {
		s.Tokenizer.Encoding = def.Tokenizer.Encoding
	}
	if s.Session.Workers <= 0 {
		s.Session.Workers = def.Session.Workers
	}
	if s.Session.Sentinel == "" {
		s.Session.Sentinel = def.Session.Sentinel
	}
	if s.Log.Level == "" {
		s.Log.Level = def.Log.Level
	}
	if s.Ignore.Exclude == nil {
		s.Ignore.Exclude = []string{}
	}
}
