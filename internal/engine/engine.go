// Package engine implements incremental minutes synthesis: deciding how much
// of the transcript is new, building generation requests, and merging results
// into the live document without overlapping passes.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/logging"
	"github.com/h-wata/meeting-transcriber/internal/template"
)

// Mode selects how a synthesis pass treats the existing document.
type Mode int

const (
	// Incremental merges only the unsynced delta into the current document.
	Incremental Mode = iota
	// Full regenerates the document from the entire transcript, discarding
	// prior document content from the prompt.
	Full
)

func (m Mode) String() string {
	if m == Full {
		return "full"
	}
	return "incremental"
}

// PassState is where the current pass is in its lifecycle.
type PassState int

const (
	PassIdle PassState = iota
	PassBuilding
	PassDispatched
)

func (s PassState) String() string {
	switch s {
	case PassBuilding:
		return "building"
	case PassDispatched:
		return "dispatched"
	}
	return "idle"
}

// Outcome classifies how a completed pass ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeMerged means the result was accepted into the document.
	OutcomeMerged
	// OutcomeRejected means generation failed; the document is unchanged.
	OutcomeRejected
	// OutcomeStale means the document version moved while the pass was in
	// flight. Invariant violation: logged, result discarded.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeRejected:
		return "rejected"
	case OutcomeStale:
		return "stale"
	}
	return "none"
}

// ErrUpdateInProgress is returned when a trigger arrives while a pass is
// outside Idle. Triggers are never queued.
var ErrUpdateInProgress = fmt.Errorf("update already in progress")

// ErrNothingNew is returned for an incremental trigger with an empty delta
// and no pending commands: a no-op that never reaches the gateway.
var ErrNothingNew = fmt.Errorf("nothing new to synthesize")

// Generator is the gateway capability the engine needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver persists accepted document versions. Optional.
type Archiver interface {
	SaveVersion(doc Document) error
}

// Status is the pass status exposed to the presentation layer.
type Status struct {
	State       PassState
	LastOutcome Outcome
	LastErr     error
	UpdateCount int
}

// Engine orchestrates synthesis passes. It is the single writer of the
// document and of the ledger's synced-through mark.
type Engine struct {
	ledger   *ledger.Ledger
	gateway  Generator
	tmpl     *template.Template
	commands *CommandQueue
	log      *logging.Logger
	archiver Archiver
	start    time.Time

	mu          sync.Mutex
	doc         Document
	state       PassState
	inFlight    bool
	lastOutcome Outcome
	lastErr     error
	updateCount int
}

// Config wires an Engine.
type Config struct {
	Ledger   *ledger.Ledger
	Gateway  Generator
	Template *template.Template
	Commands *CommandQueue
	Log      *logging.Logger
	Archiver Archiver
	Start    time.Time
}

// New creates an Engine with an empty document bound to the template.
func New(cfg Config) *Engine {
	if cfg.Log == nil {
		cfg.Log = logging.Discard()
	}
	if cfg.Commands == nil {
		cfg.Commands = NewCommandQueue()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}
	return &Engine{
		ledger:   cfg.Ledger,
		gateway:  cfg.Gateway,
		tmpl:     cfg.Template,
		commands: cfg.Commands,
		log:      cfg.Log,
		archiver: cfg.Archiver,
		start:    cfg.Start,
		doc:      Document{TemplateName: cfg.Template.Info.Name},
	}
}

// Pass is one prepared synthesis pass, ready to execute. Built under the
// engine lock; executed without it so generation never blocks ingestion or
// the UI.
type Pass struct {
	engine *Engine

	Mode          Mode
	prompt        string
	targetVersion int
	deltaMax      int64 // incremental: max sequence id in the delta
	latestID      int64 // full: latest ledger id at dispatch
	commandCount  int
}

// RequestUpdate is the single entry point for all triggers. It rejects
// concurrent triggers, snapshots the delta, drains pending commands, and
// returns the prepared pass. ErrNothingNew means there was nothing to do and
// the gateway was never involved.
func (e *Engine) RequestUpdate(mode Mode) (*Pass, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight {
		return nil, ErrUpdateInProgress
	}
	e.state = PassBuilding

	// The very first pass has no document to merge into.
	if mode == Incremental && e.doc.Empty() {
		mode = Full
	}

	p := &Pass{
		engine:        e,
		Mode:          mode,
		targetVersion: e.doc.Version,
	}

	switch mode {
	case Incremental:
		delta := e.ledger.DeltaSince(e.ledger.SyncedThrough())
		if len(delta) == 0 && e.commands.Len() == 0 {
			e.state = PassIdle
			return nil, ErrNothingNew
		}
		commands := e.commands.Drain()
		p.commandCount = len(commands)
		if len(delta) > 0 {
			p.deltaMax = delta[len(delta)-1].SequenceID
		} else {
			// Commands only: the mark stays put.
			p.deltaMax = e.ledger.SyncedThrough()
		}
		p.prompt = buildIncrementalPrompt(e.doc.Markdown(), delta, commands)

	case Full:
		all := e.ledger.All()
		if len(all) == 0 && e.commands.Len() == 0 {
			e.state = PassIdle
			return nil, ErrNothingNew
		}
		commands := e.commands.Drain()
		p.commandCount = len(commands)
		// The synced mark must come from the same snapshot the prompt is
		// built from; a segment appended between two separate ledger reads
		// would be marked synced without ever reaching the prompt.
		if len(all) > 0 {
			p.latestID = all[len(all)-1].SequenceID
		}
		p.prompt = buildFullPrompt(e.tmpl, all, commands, e.start, e.updateCount+1)
	}

	e.inFlight = true
	e.state = PassDispatched
	e.log.Info("pass_dispatched", map[string]any{
		"mode":     mode.String(),
		"version":  p.targetVersion,
		"commands": p.commandCount,
	})
	return p, nil
}

// Result is the outcome of an executed pass.
type Result struct {
	Outcome  Outcome
	Mode     Mode
	Document Document // snapshot after the pass; unchanged unless merged
	Err      error
}

// Execute invokes the gateway and merges the result. Blocking; run it off
// the UI loop. Exactly one Execute may be outstanding, enforced by
// RequestUpdate.
func (p *Pass) Execute(ctx context.Context) Result {
	text, err := p.engine.gateway.Generate(ctx, p.prompt)
	return p.engine.complete(p, text, err)
}

func (e *Engine) complete(p *Pass, text string, genErr error) Result {
	e.mu.Lock()
	defer func() {
		e.inFlight = false
		e.state = PassIdle
		e.mu.Unlock()
	}()

	if genErr != nil {
		// Drained commands are not restored: one shot per trigger.
		e.lastOutcome = OutcomeRejected
		e.lastErr = genErr
		e.log.Error("pass_rejected", map[string]any{"mode": p.Mode.String()}, genErr)
		return Result{Outcome: OutcomeRejected, Mode: p.Mode, Document: e.doc.snapshot(), Err: genErr}
	}

	if e.doc.Version != p.targetVersion {
		// Only reachable if the in-flight guard was bypassed. Hard invariant
		// violation: discard the result, leave the document alone.
		e.lastOutcome = OutcomeStale
		e.lastErr = nil
		e.log.Error("stale_result_discarded", map[string]any{
			"target_version":  p.targetVersion,
			"current_version": e.doc.Version,
		}, nil)
		return Result{Outcome: OutcomeStale, Mode: p.Mode, Document: e.doc.snapshot()}
	}

	title, sections := parseSections(text, e.tmpl.SectionList)
	e.doc.Title = title
	e.doc.Sections = sections
	e.doc.Version++
	e.updateCount++

	switch p.Mode {
	case Incremental:
		if err := e.ledger.MarkSynced(p.deltaMax); err != nil {
			e.log.Error("mark_synced_failed", map[string]any{"mark": p.deltaMax}, err)
		}
	case Full:
		e.doc.LastFullRegenAt = p.latestID
		if err := e.ledger.MarkSynced(p.latestID); err != nil {
			e.log.Error("mark_synced_failed", map[string]any{"mark": p.latestID}, err)
		}
	}

	if e.archiver != nil {
		if err := e.archiver.SaveVersion(e.doc.snapshot()); err != nil {
			e.log.Warn("archive_version_failed", map[string]any{"version": e.doc.Version}, err)
		}
	}

	e.lastOutcome = OutcomeMerged
	e.lastErr = nil
	e.log.Info("pass_merged", map[string]any{
		"mode":    p.Mode.String(),
		"version": e.doc.Version,
	})
	return Result{Outcome: OutcomeMerged, Mode: p.Mode, Document: e.doc.snapshot()}
}

// Commands exposes the command queue for user input.
func (e *Engine) Commands() *CommandQueue {
	return e.commands
}

// DocumentSnapshot returns a copy of the current document for display.
func (e *Engine) DocumentSnapshot() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.snapshot()
}

// PassStatus reports the pass state and last outcome.
func (e *Engine) PassStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		State:       e.state,
		LastOutcome: e.lastOutcome,
		LastErr:     e.lastErr,
		UpdateCount: e.updateCount,
	}
}
