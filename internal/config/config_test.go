package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err, "explicit missing file should error")

	// No explicit file: defaults apply even with nothing on disk.
	t.Setenv("HOME", t.TempDir())
	cfg, err = Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, "default", cfg.Template)
	assert.True(t, cfg.AutoUpdate)
	assert.Equal(t, 2*time.Minute, cfg.UpdateInterval())
	assert.Equal(t, "Meetings", cfg.Obsidian.Folder)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `backend: cli
template: standup
update_interval_sec: 30
obsidian:
  vault: /vault
recognizer:
  command: my-recognizer
  args: ["--lang", "en"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "cli", cfg.Backend)
	assert.Equal(t, "standup", cfg.Template)
	assert.Equal(t, 30*time.Second, cfg.UpdateInterval())
	assert.Equal(t, "/vault", cfg.Obsidian.Vault)
	assert.Equal(t, "my-recognizer", cfg.Recognizer.Command)
	assert.Equal(t, []string{"--lang", "en"}, cfg.Recognizer.Args)
	// untouched keys keep defaults
	assert.Equal(t, "Meetings", cfg.Obsidian.Folder)
}

func TestUpdateIntervalFloor(t *testing.T) {
	cfg := &Config{UpdateIntervalSec: 0}
	assert.Equal(t, 2*time.Minute, cfg.UpdateInterval())
	cfg.UpdateIntervalSec = 45
	assert.Equal(t, 45*time.Second, cfg.UpdateInterval())
}
