package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every MSCP_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvStoreDriver, EnvStorePath, EnvKeysDir,
		EnvLogLevel, EnvLogFormat, EnvRejectStructuralContent,
	} {
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.Program.RejectStructuralContent)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("testdata/valid.yaml")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Store:   StoreConfig{Driver: "pebble", Path: "/var/lib/mscp/ledger"},
		Keys:    KeysConfig{Dir: "/etc/mscp/keys"},
		Log:     LogConfig{Level: "debug", Format: "json"},
		Program: ProgramConfig{RejectStructuralContent: true},
	}, cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("testdata/partial.yaml")
	require.NoError(t, err)
	assert.Equal(t, "social.db", cfg.Store.Path)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	clearEnv(t)
	_, err := Load("testdata/unknown_key.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pth")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_SchemaViolation(t *testing.T) {
	clearEnv(t)
	_, err := Load("testdata/bad_driver.yaml")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "driver")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStoreDriver, "pebble")
	t.Setenv(EnvStorePath, "/tmp/ledger")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvRejectStructuralContent, "true")

	cfg, err := Load("testdata/partial.yaml")
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.Store.Driver)
	assert.Equal(t, "/tmp/ledger", cfg.Store.Path, "environment wins over the file")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Program.RejectStructuralContent)
}

func TestLoad_BadBoolEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRejectStructuralContent, "sometimes")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvRejectStructuralContent)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, "path"},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }, "level"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"empty keys dir", func(c *Config) { c.Keys.Dir = "" }, "dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MSCP_LOG_LEVEL=warn\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "warn", os.Getenv(EnvLogLevel))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnv_ExistingVariableWins(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "error")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MSCP_LOG_LEVEL=debug\n"), 0o644))

	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "error", os.Getenv(EnvLogLevel))
}
