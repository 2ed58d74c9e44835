package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/baozi-order/internal/completion"
)

var allVars = []string{
	EnvAPIKey, EnvProvider, EnvModel, EnvBaseURL, EnvTemperature, EnvMaxTokens,
	EnvTimeout, EnvMaxAttempts, EnvDBPath, EnvSessionLimit, EnvHTTPAddr, EnvLogLevel,
}

// clearEnv blanks every variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.BaseURL)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, 1000, cfg.SessionLimit)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.LogLevel, "run mode picks the level")

	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, " sk-test ")
	t.Setenv(EnvModel, "deepseek-reasoner")
	t.Setenv(EnvTemperature, "0.2")
	t.Setenv(EnvMaxTokens, "512")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvMaxAttempts, "3")
	t.Setenv(EnvSessionLimit, "10")
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "deepseek-reasoner", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.SessionLimit)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)

	cc := cfg.Completion()
	assert.Equal(t, "sk-test", cc.APIKey)
	assert.Equal(t, 3, cc.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cc.Timeout)

	p := cfg.Params()
	assert.Equal(t, completion.Params{Model: "deepseek-reasoner", Temperature: 0.2, MaxTokens: 512}, p)
}

func TestFromEnvInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvTemperature, "warm"},
		{EnvMaxTokens, "lots"},
		{EnvTimeout, "30"},
		{EnvMaxAttempts, "x"},
		{EnvSessionLimit, "1e3"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.APIKey = "sk"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"temperature above 1", func(c *Config) { c.Temperature = 1.5 }},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"zero session limit", func(c *Config) { c.SessionLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("temperature error wraps sentinel", func(t *testing.T) {
		cfg := valid()
		cfg.Temperature = 2
		assert.ErrorIs(t, cfg.Validate(), completion.ErrTemperatureInRange)
	})
}

func TestLoadEnvFile(t *testing.T) {
	const fileOnly = "BAOZI_TEST_FILE_ONLY"
	const quoted = "BAOZI_TEST_QUOTED"
	t.Cleanup(func() {
		_ = os.Unsetenv(fileOnly)
		_ = os.Unsetenv(quoted)
	})
	_ = os.Unsetenv(fileOnly)
	_ = os.Unsetenv(quoted)

	clearEnv(t)
	_ = os.Unsetenv(EnvAPIKey)
	t.Setenv(EnvModel, "from-env")

	path := writeEnvFile(t, `
# comment
DEEPSEEK_API_KEY=sk-from-file
export BAOZI_TEST_FILE_ONLY=yes
BAOZI_TEST_QUOTED="两个 包子"
BAOZI_MODEL=from-file
`)

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { _ = os.Unsetenv(EnvAPIKey) })

	assert.Equal(t, "sk-from-file", os.Getenv(EnvAPIKey))
	assert.Equal(t, "yes", os.Getenv(fileOnly))
	assert.Equal(t, "两个 包子", os.Getenv(quoted))
	assert.Equal(t, "from-env", os.Getenv(EnvModel), "environment wins over file")
}

func TestLoadEnvFileInlineComment(t *testing.T) {
	clearEnv(t)
	_ = os.Unsetenv(EnvAPIKey)
	t.Cleanup(func() { _ = os.Unsetenv(EnvAPIKey) })

	path := writeEnvFile(t, "DEEPSEEK_API_KEY=sk-abc123 # team key\n")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "sk-abc123", os.Getenv(EnvAPIKey))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", cfg.APIKey)
}

func TestLoadEnvFileMalformed(t *testing.T) {
	path := writeEnvFile(t, "BAD-KEY=value\n")
	err := LoadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadEnvFileMissing(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "sk", cfg.APIKey)
}

func TestResolveDBPath(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := Default()
		cfg.DBPath = ":memory:"
		path, err := cfg.ResolveDBPath()
		require.NoError(t, err)
		assert.Equal(t, ":memory:", path)
	})

	t.Run("home expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg := Default()
		path, err := cfg.ResolveDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".baozi", "orders.db"), path)
		assert.DirExists(t, filepath.Join(home, ".baozi"))
	})
}
