// Package config loads mscp settings.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// MSCP_* environment variables (which a .env file may supply). The merged
// result is validated against an embedded CUE schema before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvStoreDriver             = "MSCP_STORE_DRIVER"
	EnvStorePath               = "MSCP_STORE_PATH"
	EnvKeysDir                 = "MSCP_KEYS_DIR"
	EnvLogLevel                = "MSCP_LOG_LEVEL"
	EnvLogFormat               = "MSCP_LOG_FORMAT"
	EnvRejectStructuralContent = "MSCP_REJECT_STRUCTURAL_CONTENT"
)

// Config is the merged configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" json:"store"`
	Keys    KeysConfig    `yaml:"keys" json:"keys"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Program ProgramConfig `yaml:"program" json:"program"`
}

// StoreConfig selects the account store.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // "sqlite" | "pebble"
	Path   string `yaml:"path" json:"path"`
}

// KeysConfig locates keypair files.
type KeysConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json
}

// ProgramConfig tunes the social program.
type ProgramConfig struct {
	RejectStructuralContent bool `yaml:"reject_structural_content" json:"reject_structural_content"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store: StoreConfig{Driver: "sqlite", Path: "mscp.db"},
		Keys:  KeysConfig{Dir: "keys"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// LoadEnv loads .env style files into the process environment. Variables
// already set win. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML overlays data onto cfg, rejecting unknown keys.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvStoreDriver, &cfg.Store.Driver},
		{EnvStorePath, &cfg.Store.Path},
		{EnvKeysDir, &cfg.Keys.Dir},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}
	if v, ok := lookup(EnvRejectStructuralContent); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRejectStructuralContent, err)
		}
		cfg.Program.RejectStructuralContent = b
	}
	return nil
}
