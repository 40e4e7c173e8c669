// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Player PlayerConfig `toml:"player"`
	// Hold is passed as-is to holdrepeat.ParseOptions, which tolerates
	// loosely typed values.
	Hold map[string]any `toml:"hold"`
}

// PlayerConfig maps playback settings.
type PlayerConfig struct {
	Speed   *int    `toml:"speed"`
	Lang    *string `toml:"lang"`
	Spacing *int    `toml:"spacing"`
	Width   *int    `toml:"width"`
	Rewind  *int    `toml:"rewind"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by the config command when no file exists yet.
const Template = `# sight-translation configuration

[player]
# speed = 100    # words per minute, 5..320
# lang = "en"    # interface language: en, it, es, fr
# spacing = 1    # blank lines between wrapped lines, 0..3
# width = 72     # wrap width in cells, 0 follows the terminal
# rewind = 5     # seconds skipped back by the rewind button

[hold]
# initial-delay = 400
# repeat-interval = 50    # milliseconds, never below 50
# max-iterations = 63
# acceleration = 0.9
# accelerate-after = 10
# min-repeat-interval = 10
`

// WriteTemplate creates path with the default template unless it exists.
// It reports whether a file was written.
func WriteTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
