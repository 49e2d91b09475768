package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents compose-all's configuration
type Config struct {
	DockerCommand  string   `toml:"docker_command"`  // docker or podman; detected when empty
	ComposeCommand []string `toml:"compose_command"` // e.g. ["docker", "compose"]; detected when empty
	RequireRoot    bool     `toml:"require_root"`
	FollowSymlinks bool     `toml:"follow_symlinks"`
	Exclude        []string `toml:"exclude"` // glob patterns on directory names
	Defaults       Defaults `toml:"defaults"`
}

// Defaults are the command toggles used when the matching flag is not given
type Defaults struct {
	Kill   bool `toml:"kill"`
	NoRmi  bool `toml:"no_rmi"`
	NoPull bool `toml:"no_pull"`
	Clean  bool `toml:"clean"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		RequireRoot:    true,
		FollowSymlinks: true,
		Exclude:        []string{},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "compose-all", "config.toml")
}

// Load reads the config at path. A missing file yields Default(); keys the
// file leaves out keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if meta.IsDefined("docker_command") {
		cfg.DockerCommand = strings.TrimSpace(raw.DockerCommand)
	}
	if meta.IsDefined("compose_command") {
		cfg.ComposeCommand = normalizeList(raw.ComposeCommand)
	}
	if meta.IsDefined("require_root") {
		cfg.RequireRoot = raw.RequireRoot
	}
	if meta.IsDefined("follow_symlinks") {
		cfg.FollowSymlinks = raw.FollowSymlinks
	}
	if meta.IsDefined("exclude") {
		cfg.Exclude = normalizeList(raw.Exclude)
	}
	cfg.Defaults = raw.Defaults

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadExistingOrEmpty loads the config at path, falling back to defaults when
// it cannot be read.
func LoadExistingOrEmpty(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks values a file could get wrong
func (c *Config) Validate() error {
	for _, pattern := range c.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Save writes the config to path
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
