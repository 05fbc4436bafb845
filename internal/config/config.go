package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// DefaultErrorKeywords mark a tool result as an error occurrence.
var DefaultErrorKeywords = []string{"error", "failed", "exception", "denied", "not found", "permission"}

// DefaultPreferenceKeywords mark a user message as a stated preference or rule.
var DefaultPreferenceKeywords = []string{
	"always", "never", "must", "should", "prefer", "don't", "do not", "convention", "make sure",
	"常に", "必ず", "絶対", "しないで", "してください", "禁止", "優先", "規約", "ルール",
}

type Config struct {
	ClaudeRoot         string   `toml:"claude_root"`
	CodexRoot          string   `toml:"codex_root"`
	ClaudePattern      string   `toml:"claude_pattern"`
	CodexPattern       string   `toml:"codex_pattern"`
	Deadline           string   `toml:"deadline"`
	Workers            int      `toml:"workers"`
	DisplayWidth       int      `toml:"display_width"`
	ErrorKeywords      []string `toml:"error_keywords"`
	PreferenceKeywords []string `toml:"preference_keywords"`

	// Path is the config file that was read, empty when none existed.
	Path string `toml:"-"`
}

// Default returns the configuration used when no config file exists.
func Default(home string) *Config {
	return &Config{
		ClaudeRoot:         filepath.Join(home, ".claude", "projects"),
		CodexRoot:          filepath.Join(home, ".codex", "sessions"),
		ClaudePattern:      "*/*.jsonl",
		CodexPattern:       "**/*.jsonl",
		Deadline:           "2m",
		Workers:            min(runtime.NumCPU(), 4),
		DisplayWidth:       160,
		ErrorKeywords:      append([]string(nil), DefaultErrorKeywords...),
		PreferenceKeywords: append([]string(nil), DefaultPreferenceKeywords...),
	}
}

// DefaultPath is where Load looks for a config file.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "sessionlog", "config.toml")
}

// Load reads the config file at path, or DefaultPath when path is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	return LoadFrom(path, home)
}

// LoadFrom is Load with an explicit home directory.
func LoadFrom(path, home string) (*Config, error) {
	cfg := Default(home)

	explicit := path != ""
	if !explicit {
		path = DefaultPath(home)
	}
	path = expandHome(path, home)

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
		cfg.Path = path
	} else if explicit {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CodexRoot = expandHome(cfg.CodexRoot, home)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Deadline); err != nil {
		return errors.Wrapf(err, "invalid deadline %q", c.Deadline)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.DisplayWidth <= 0 {
		return errors.Errorf("display_width must be positive, got %d", c.DisplayWidth)
	}
	return nil
}

// DeadlineDuration returns the parsed overall deadline.
func (c *Config) DeadlineDuration() time.Duration {
	d, err := time.ParseDuration(c.Deadline)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
