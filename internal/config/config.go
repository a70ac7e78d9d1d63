// Package config loads the application configuration from
// ~/.config/meeting-transcriber/config.yaml with viper, merging defaults,
// file values and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Backend        string `mapstructure:"backend"`
	Template       string `mapstructure:"template"`
	OutputDir      string `mapstructure:"output_dir"`
	FilenameFormat string `mapstructure:"filename_format"`

	AutoUpdate        bool `mapstructure:"auto_update"`
	UpdateIntervalSec int  `mapstructure:"update_interval_sec"`
	KeepHistory       bool `mapstructure:"keep_history"`

	Obsidian struct {
		Vault  string `mapstructure:"vault"`
		Folder string `mapstructure:"folder"`
	} `mapstructure:"obsidian"`

	Recognizer struct {
		Command string   `mapstructure:"command"`
		Args    []string `mapstructure:"args"`
	} `mapstructure:"recognizer"`

	Ollama struct {
		URL   string `mapstructure:"url"`
		Model string `mapstructure:"model"`
	} `mapstructure:"ollama"`

	DBPath  string `mapstructure:"db_path"`
	LogPath string `mapstructure:"log_path"`
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "meeting-transcriber"), nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", "auto")
	v.SetDefault("template", "default")
	v.SetDefault("output_dir", defaultOutputDir())
	v.SetDefault("filename_format", "meeting_20060102_150405")
	v.SetDefault("auto_update", true)
	v.SetDefault("update_interval_sec", 120)
	v.SetDefault("keep_history", true)
	v.SetDefault("obsidian.vault", "")
	v.SetDefault("obsidian.folder", "Meetings")
	v.SetDefault("recognizer.command", "")
	v.SetDefault("recognizer.args", []string{})
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.1")
	v.SetDefault("db_path", "")
	v.SetDefault("log_path", "")
}

// Load reads the config file (if present) and unmarshals the result. A
// missing file is not an error; defaults and environment apply.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MEETING_TRANSCRIBER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// UpdateInterval returns the auto-update cadence as a duration.
func (c *Config) UpdateInterval() time.Duration {
	if c.UpdateIntervalSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.UpdateIntervalSec) * time.Second
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "meeting_minutes"
	}
	return filepath.Join(home, "Documents", "meeting_minutes")
}
