package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/h-wata/meeting-transcriber/internal/backend"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Probe AI backends and report which are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		candidates := []backend.Transport{
			backend.NewCLITransport(backend.OSRunner{}),
		}
		if ollama, oerr := backend.NewOllamaTransport(cfg.Ollama.URL, cfg.Ollama.Model); oerr == nil {
			candidates = append(candidates, ollama)
		}
		candidates = append(candidates, backend.NewAPITransport())

		for _, t := range candidates {
			if t.Available(ctx) {
				fmt.Printf("%-8s available\n", t.Name())
			} else {
				fmt.Printf("%-8s unavailable\n", t.Name())
			}
		}
		return nil
	},
}
