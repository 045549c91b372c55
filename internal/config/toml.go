// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Trainer TrainerConfig `toml:"trainer"`
	Log     LogConfig     `toml:"log"`
}

// TrainerConfig maps input and loop settings. Timing thresholds are fixed
// and have no keys here.
type TrainerConfig struct {
	Device    *string `toml:"device"`
	TickRate  *int    `toml:"tick-rate"`
	LeftAlias *bool   `toml:"left-alias"`
	QueueSize *int    `toml:"queue-size"`
	Demo      *bool   `toml:"demo"`
}

// LogConfig maps logging and rotation settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	Format     *string `toml:"format"`
	File       *string `toml:"file"`
	MaxSizeMB  *int    `toml:"max-size-mb"`
	MaxBackups *int    `toml:"max-backups"`
	MaxAgeDays *int    `toml:"max-age-days"`
	Compress   *bool   `toml:"compress"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
