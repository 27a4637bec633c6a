package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/upcycle/internal/chat"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, chat.DefaultModel, cfg.Chat.Model)
	assert.Equal(t, chat.DefaultSystemPrompt, cfg.Chat.SystemPrompt)
	assert.Empty(t, cfg.Chat.APIKey)
}

func TestParsePrecedence(t *testing.T) {
	file := writeFile(t, "upcycle.yaml", `
db: from-file.sqlite3
addr: ":7000"
upload_dir: file-uploads
chat:
  model: file-model
  temperature: 0.2
  timeout: 5s
`)
	env := envMap(map[string]string{
		EnvAddr:   ":7500",
		EnvModel:  "env-model",
		EnvAPIKey: "secret",
	})

	cfg, err := Parse([]string{"-c", file, "-a", ":9000"}, env)
	require.NoError(t, err)

	assert.Equal(t, "from-file.sqlite3", cfg.DBPath, "file overrides default")
	assert.Equal(t, ":9000", cfg.Addr, "flag overrides env and file")
	assert.Equal(t, "file-uploads", cfg.UploadDir)
	assert.Equal(t, "env-model", cfg.Chat.Model, "env overrides file")
	assert.Equal(t, "secret", cfg.Chat.APIKey)
	assert.Equal(t, 0.2, cfg.Chat.Temperature)
	assert.Equal(t, 5*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, chat.DefaultMaxTokens, cfg.Chat.MaxTokens, "unset keys keep defaults")
}

func TestParseLongAndShortFlags(t *testing.T) {
	cfg, err := Parse([]string{"-db", "x.sqlite3", "-u", "imgs", "-log", "out.log"}, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "x.sqlite3", cfg.DBPath)
	assert.Equal(t, "imgs", cfg.UploadDir)
	assert.Equal(t, "out.log", cfg.LogPath)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestParseEmptyEnvIgnored(t *testing.T) {
	cfg, err := Parse(nil, envMap(map[string]string{EnvDB: ""}))
	require.NoError(t, err)
	assert.Equal(t, "upcycle.sqlite3", cfg.DBPath)
}

func TestParseErrors(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		_, err := Parse([]string{"-h"}, envMap(nil))
		assert.ErrorIs(t, err, flag.ErrHelp)
	})

	t.Run("positional argument", func(t *testing.T) {
		_, err := Parse([]string{"serve"}, envMap(nil))
		assert.ErrorContains(t, err, "unexpected argument")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Parse([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, envMap(nil))
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("malformed config file", func(t *testing.T) {
		file := writeFile(t, "bad.yaml", "chat: [unclosed")
		_, err := Parse([]string{"-c", file}, envMap(nil))
		assert.ErrorContains(t, err, "parsing config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Parse(nil, envMap(map[string]string{EnvBaseURL: "ftp://example.com"}))
		assert.ErrorContains(t, err, "not an http(s) URL")
	})
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Addr = ""
	cfg.Chat.MaxTokens = 0
	cfg.Chat.Temperature = 3

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "listen address is empty")
	assert.ErrorContains(t, err, "max tokens")
	assert.ErrorContains(t, err, "temperature")
}

func TestDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "GROQ_API_KEY=from-dotenv\n# comment\nUPCYCLE_ADDR=:6000\n")

	vars, err := DotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", vars[EnvAPIKey])

	t.Setenv(EnvAddr, ":6100")
	lookup := Environ(vars)

	v, ok := lookup(EnvAddr)
	assert.True(t, ok)
	assert.Equal(t, ":6100", v, "process environment wins over .env")

	v, ok = lookup(EnvAPIKey)
	assert.True(t, ok)
	assert.Equal(t, "from-dotenv", v)
}

func TestDotEnvMissingFile(t *testing.T) {
	vars, err := DotEnv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, vars)
}
