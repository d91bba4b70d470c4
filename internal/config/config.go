// Package config reads the versetip.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/FocuswithJustin/VerseTip/core/bookindex"
	"github.com/FocuswithJustin/VerseTip/core/ref"
)

// FileName is the configuration file looked up when a directory is given.
const FileName = "versetip.toml"

// Config is the file-level configuration. Command-line flags override it.
type Config struct {
	Corpus  string  `toml:"corpus"`
	Server  Server  `toml:"server"`
	Match   Match   `toml:"match"`
	Logging Logging `toml:"logging"`
}

type Server struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // empty allows any origin
	CacheSize      int      `toml:"cache_size"`
	RateLimit      int      `toml:"rate_limit"` // requests per minute per client, 0 disables
	APIKey         string   `toml:"api_key"`    // required for reloads when set
}

type Match struct {
	Threshold    float64 `toml:"threshold"`
	MaxNameWords int     `toml:"max_name_words"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{},
			CacheSize:      4096,
		},
		Match: Match{
			Threshold:    bookindex.DefaultThreshold,
			MaxNameWords: ref.MaxNameWords,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Read loads the configuration at path. A directory path means the
// FileName inside it. A missing file yields Default. Keys absent from the
// file keep their default values.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}

	if cfg.Corpus != "" && !filepath.IsAbs(cfg.Corpus) {
		cfg.Corpus = filepath.Join(filepath.Dir(path), cfg.Corpus)
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	case c.Server.CacheSize < 0:
		return fmt.Errorf("server.cache_size must not be negative")
	case c.Server.RateLimit < 0:
		return fmt.Errorf("server.rate_limit must not be negative")
	case c.Match.Threshold < 0 || c.Match.Threshold > 1:
		return fmt.Errorf("match.threshold %v not in [0,1]", c.Match.Threshold)
	case c.Match.MaxNameWords < 1:
		return fmt.Errorf("match.max_name_words must be at least 1")
	}
	return nil
}
