package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/h-wata/meeting-transcriber/internal/app"
	"github.com/h-wata/meeting-transcriber/internal/backend"
	"github.com/h-wata/meeting-transcriber/internal/config"
	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/export"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/logging"
	"github.com/h-wata/meeting-transcriber/internal/recognizer"
	"github.com/h-wata/meeting-transcriber/internal/store"
	"github.com/h-wata/meeting-transcriber/internal/template"
)

// runSession wires a full recording session and hands it to the TUI.
func runSession(cfg *config.Config) error {
	log, err := openLogger(cfg)
	if err != nil {
		return err
	}

	tmpl, err := loadTemplate(cfg.Template)
	if err != nil {
		return err
	}

	gateway, err := selectBackend(cfg, log)
	if err != nil {
		return err
	}

	session := engine.NewSession()
	log = log.WithSession(session.ID)
	led := ledger.New()

	st, err := store.Open(storePath(cfg))
	if err != nil {
		// The session still works without persistence.
		log.Warn("store_open_failed", nil, err)
		st = nil
	} else {
		defer st.Close()
		if err := st.CreateSession(session.ID, tmpl.Info.Name, session.StartTime); err != nil {
			log.Warn("session_persist_failed", nil, err)
		}
	}

	writer := &export.Writer{
		OutputDir:      cfg.OutputDir,
		FilenameFormat: cfg.FilenameFormat,
		ObsidianVault:  cfg.Obsidian.Vault,
		ObsidianFolder: cfg.Obsidian.Folder,
	}

	// Every accepted version refreshes minutes.md in the session directory
	// (with history snapshots when enabled) and lands in the session store.
	archivers := multiArchiver{export.Archiver{
		Writer:  writer,
		Start:   session.StartTime,
		History: cfg.KeepHistory,
	}}
	if st != nil {
		archivers = append(archivers, store.Archiver{Store: st, SessionID: session.ID})
	}

	eng := engine.New(engine.Config{
		Ledger:   led,
		Gateway:  gateway,
		Template: tmpl,
		Log:      log.WithComponent("engine"),
		Archiver: archivers,
		Start:    session.StartTime,
	})

	source, err := buildSource(cfg, log)
	if err != nil {
		return err
	}

	model := app.New(app.Options{
		Session:    session,
		Ledger:     led,
		Engine:     eng,
		Source:     source,
		Writer:     writer,
		Store:      st,
		Log:        log.WithComponent("app"),
		Backend:    gateway.TransportName(),
		Template:   tmpl.Info.Name,
		AutoUpdate: cfg.AutoUpdate,
		Interval:   cfg.UpdateInterval(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func openLogger(cfg *config.Config) (*logging.Logger, error) {
	path := cfg.LogPath
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "meeting-transcriber.log")
	}
	log, err := logging.Open(path, "main")
	if err != nil {
		// Logging is best-effort; the TUI owns the terminal anyway.
		return logging.Discard(), nil
	}
	return log, nil
}

func loadTemplate(name string) (*template.Template, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	reg := template.NewRegistry(filepath.Join(dir, "templates"))
	return reg.Get(name)
}

func storePath(cfg *config.Config) string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return store.DefaultDBPath()
}

// selectBackend probes transports and pins one per the configured
// preference.
func selectBackend(cfg *config.Config, log *logging.Logger) (*backend.Gateway, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	candidates := []backend.Transport{
		backend.NewCLITransport(backend.OSRunner{}),
	}
	if ollama, err := backend.NewOllamaTransport(cfg.Ollama.URL, cfg.Ollama.Model); err == nil {
		candidates = append(candidates, ollama)
	}
	candidates = append(candidates, backend.NewAPITransport())

	gateway, err := backend.Select(ctx, cfg.Backend, candidates, backend.Options{
		Log: log.WithComponent("backend"),
	})
	if err != nil {
		return nil, fmt.Errorf("selecting backend %q: %w", cfg.Backend, err)
	}
	fmt.Fprintf(os.Stderr, "using backend: %s\n", gateway.TransportName())
	return gateway, nil
}

// multiArchiver fans one accepted version out to every sink.
type multiArchiver []engine.Archiver

func (m multiArchiver) SaveVersion(doc engine.Document) error {
	var errs []error
	for _, a := range m {
		if err := a.SaveVersion(doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// demoScript feeds the fake recognizer so the TUI can be exercised without
// audio hardware or a recognizer binary.
var demoScript = []string{
	"Good morning everyone, let's get started.",
	"First item is the release schedule for next month.",
	"QA found two regressions in the export path, both have fixes in review.",
	"We agreed to move the release date by one week.",
	"Next up, the onboarding flow redesign.",
	"Design will share updated mockups on Thursday.",
	"Action item: Sam to draft the migration guide before Friday.",
	"Any other business? Okay, thanks everyone.",
}

func buildSource(cfg *config.Config, log *logging.Logger) (recognizer.Source, error) {
	if flagFakeSource {
		return recognizer.NewScriptedSource(demoScript, 4*time.Second), nil
	}
	if cfg.Recognizer.Command == "" {
		return nil, fmt.Errorf("no recognizer configured: set recognizer.command or pass --fake-recognizer")
	}
	return recognizer.NewProcessSource(cfg.Recognizer.Command, cfg.Recognizer.Args, log.WithComponent("recognizer")), nil
}
