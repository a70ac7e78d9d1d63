// meeting-transcriber records a meeting, streams recognized speech into a
// transcript ledger, and keeps AI-generated minutes up to date in a TUI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/h-wata/meeting-transcriber/internal/config"
)

var (
	cfgFile string

	flagBackend      string
	flagTemplate     string
	flagOutputDir    string
	flagVault        string
	flagNoAutoUpdate bool
	flagInterval     int
	flagRecognizer   string
	flagFakeSource   bool
)

var rootCmd = &cobra.Command{
	Use:   "meeting-transcriber",
	Short: "Live meeting minutes in your terminal",
	Long: `meeting-transcriber runs a recording session: speech segments stream
into a transcript, and an AI backend (claude CLI, Anthropic API, or a
local Ollama model) keeps structured meeting minutes current while the
meeting is still running.

Minutes are written to the session directory on exit, with optional
mirroring into an Obsidian vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runSession(cfg)
	},
}

func loadConfig() (*config.Config, error) {
	v := viper.New()
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	// Flags override file and environment.
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagTemplate != "" {
		cfg.Template = flagTemplate
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagVault != "" {
		cfg.Obsidian.Vault = flagVault
	}
	if flagNoAutoUpdate {
		cfg.AutoUpdate = false
	}
	if flagInterval > 0 {
		cfg.UpdateIntervalSec = flagInterval
	}
	if flagRecognizer != "" {
		cfg.Recognizer.Command = flagRecognizer
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/meeting-transcriber/config.yaml)")

	rootCmd.Flags().StringVarP(&flagBackend, "backend", "b", "", "AI backend: auto, cli, ollama, or api")
	rootCmd.Flags().StringVarP(&flagTemplate, "template", "t", "", "minutes template name")
	rootCmd.Flags().StringVarP(&flagOutputDir, "output-dir", "o", "", "directory for session output")
	rootCmd.Flags().StringVar(&flagVault, "obsidian-vault", "", "Obsidian vault to mirror minutes into")
	rootCmd.Flags().BoolVar(&flagNoAutoUpdate, "no-auto-update", false, "disable periodic minutes updates")
	rootCmd.Flags().IntVar(&flagInterval, "interval", 0, "seconds between automatic updates")
	rootCmd.Flags().StringVar(&flagRecognizer, "recognizer", "", "speech recognizer command")
	rootCmd.Flags().BoolVar(&flagFakeSource, "fake-recognizer", false, "use an in-process fake recognizer (for demos)")

	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(backendsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
