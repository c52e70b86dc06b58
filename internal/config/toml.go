// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tempo TempoConfig `toml:"tempo"`
	Input InputConfig `toml:"input"`
	Log   LogConfig   `toml:"log"`
}

// TempoConfig maps tracker settings.
type TempoConfig struct {
	Mode        *int `toml:"mode"`
	Samples     *int `toml:"samples"`
	IdleResetMs *int `toml:"idle-reset-ms"`
}

// InputConfig maps input source settings.
type InputConfig struct {
	Gamepad     *string `toml:"gamepad"`
	Keyboard    *string `toml:"keyboard"`
	MIDI        *string `toml:"midi"`
	MIDIChannel *int    `toml:"midi-channel"`
	FrameRate   *int    `toml:"frame-rate"`
	Mouse       *bool   `toml:"mouse"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	File  *string `toml:"file"`
	Level *string `toml:"level"`
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
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
