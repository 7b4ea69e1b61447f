package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/marbleworks/rxkit/pkg/pipeline"
)

// Config holds the optional TOML configuration file, merged under any
// explicit command-line flags.
//
// Example config (~/.config/rxkit/config.toml):
//
//	frame_ms = 25
//	addr = "localhost:9090"
//
//	[values]
//	a = "apple"
//	b = "banana"
type Config struct {
	// FrameMS is the default marble frame duration in milliseconds.
	FrameMS int `toml:"frame_ms"`

	// Addr is the default listen address for the serve command.
	Addr string `toml:"addr"`

	// Values is the default token-to-value mapping for diagrams.
	Values map[string]string `toml:"values"`
}

// defaultConfig returns the built-in defaults used when no file is present.
func defaultConfig() Config {
	return Config{
		FrameMS: pipeline.DefaultFrameMS,
		Addr:    "localhost:8080",
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing default file is not an error; a missing explicit
// file is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.FrameMS <= 0 {
		cfg.FrameMS = pipeline.DefaultFrameMS
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultConfig().Addr
	}
	return cfg, nil
}

// defaultConfigPath returns the XDG config location (~/.config/rxkit/config.toml).
func defaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}
