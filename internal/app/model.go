// Package app holds the bubbletea model for the live minutes TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/export"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/logging"
	"github.com/h-wata/meeting-transcriber/internal/recognizer"
	"github.com/h-wata/meeting-transcriber/internal/store"
	"github.com/h-wata/meeting-transcriber/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusTranscript PanelFocus = iota
	FocusMinutes
)

// Options wires a Model.
type Options struct {
	Session    *engine.Session
	Ledger     *ledger.Ledger
	Engine     *engine.Engine
	Source     recognizer.Source
	Writer     *export.Writer
	Store      *store.Store
	Log        *logging.Logger
	Backend    string
	Template   string
	AutoUpdate bool
	Interval   time.Duration
}

// Model is the root bubbletea model for the minutes TUI.
type Model struct {
	session *engine.Session
	ledger  *ledger.Ledger
	eng     *engine.Engine
	source  recognizer.Source
	writer  *export.Writer
	store   *store.Store
	log     *logging.Logger

	backendName  string
	templateName string
	autoUpdate   bool
	interval     time.Duration

	// Transcript
	entries      []ledger.Segment
	segments     <-chan ledger.Segment
	sourceBroken bool

	// Minutes
	minutes        string
	minutesVersion int
	lastUpdateAt   time.Time

	// Pass state
	passInFlight bool

	// Command input
	commandInput   textinput.Model
	commandFocused bool

	// Shutdown
	stopping       bool
	finalRequested bool

	// UI state
	focusedPanel     PanelFocus
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool
	minutesScroll    int

	// Errors and status
	errorMessage   string
	errorTransient bool
	statusText     string
}

// New creates a Model wired to a running session.
func New(opts Options) Model {
	input := textinput.New()
	input.Placeholder = "instruction for the next update..."
	input.Prompt = ui.CommandPromptStyle.Render("> ")
	input.CharLimit = 500

	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	return Model{
		session:        opts.Session,
		ledger:         opts.Ledger,
		eng:            opts.Engine,
		source:         opts.Source,
		writer:         opts.Writer,
		store:          opts.Store,
		log:            log,
		backendName:    opts.Backend,
		templateName:   opts.Template,
		autoUpdate:     opts.AutoUpdate,
		interval:       opts.Interval,
		commandInput:   input,
		transcriptLive: true,
		focusedPanel:   FocusTranscript,
		statusText:     "Recording",
	}
}

// Init starts the recognizer stream and the auto-update timer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{startRecognizerCmd(m.source)}
	if m.autoUpdate {
		cmds = append(cmds, autoUpdateTickCmd(m.interval))
	}
	return tea.Batch(cmds...)
}

// startRecognizerCmd opens the segment stream.
func startRecognizerCmd(source recognizer.Source) tea.Cmd {
	return func() tea.Msg {
		ch, err := source.Segments(context.Background())
		if err != nil {
			return RecognizerErrorMsg{Err: err}
		}
		return RecognizerStartedMsg{Segments: ch}
	}
}

// waitSegmentCmd reads the next segment from the stream.
func waitSegmentCmd(ch <-chan ledger.Segment) tea.Cmd {
	return func() tea.Msg {
		seg, ok := <-ch
		if !ok {
			return RecognizerClosedMsg{}
		}
		return SegmentMsg{Segment: seg}
	}
}

// executePassCmd runs a prepared pass off the UI loop.
func executePassCmd(pass *engine.Pass) tea.Cmd {
	return func() tea.Msg {
		return PassFinishedMsg{Result: pass.Execute(context.Background())}
	}
}

// autoUpdateTickCmd schedules the next periodic update.
func autoUpdateTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return AutoUpdateTickMsg{}
	})
}

// saveTranscriptCmd writes the raw transcript to the session directory.
func saveTranscriptCmd(w *export.Writer, start time.Time, segments []ledger.Segment) tea.Cmd {
	return func() tea.Msg {
		return TranscriptSavedMsg{Err: w.SaveTranscript(start, segments)}
	}
}

// finalizeCmd writes the end-of-session export and closes the store session.
func finalizeCmd(w *export.Writer, st *store.Store, sessionID string, start time.Time, doc engine.Document, segments []ledger.Segment) tea.Cmd {
	return func() tea.Msg {
		dir, err := w.Save(start, doc, segments)
		if st != nil {
			if endErr := st.EndSession(sessionID, time.Now()); endErr != nil && err == nil {
				err = endErr
			}
		}
		return FinalizedMsg{Dir: dir, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RecognizerStartedMsg:
		m.segments = msg.Segments
		return m, waitSegmentCmd(m.segments)

	case RecognizerErrorMsg:
		m.errorMessage = "recognizer failed to start: " + msg.Err.Error()
		m.sourceBroken = true
		return m, nil

	case SegmentMsg:
		return m.handleSegment(msg.Segment)

	case RecognizerClosedMsg:
		if !m.stopping {
			m.statusText = "Recognizer stream ended"
		}
		return m, nil

	case PassFinishedMsg:
		return m.handlePassFinished(msg.Result)

	case AutoUpdateTickMsg:
		if m.stopping || !m.autoUpdate {
			return m, nil
		}
		next := autoUpdateTickCmd(m.interval)
		if m.passInFlight || m.session.State() != engine.Recording {
			return m, next
		}
		updated, cmd := m.triggerUpdate(engine.Incremental, true)
		return updated, tea.Batch(cmd, next)

	case TranscriptSavedMsg:
		if msg.Err != nil {
			m.errorMessage = "transcript save failed: " + msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		m.statusText = "Transcript saved"
		return m, nil

	case FinalizedMsg:
		if msg.Err != nil {
			m.log.Error("finalize_failed", nil, msg.Err)
		} else {
			m.log.Info("session_exported", map[string]any{"dir": msg.Dir})
		}
		return m, tea.Quit

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleSegment appends a recognizer segment to the ledger.
func (m Model) handleSegment(seg ledger.Segment) (tea.Model, tea.Cmd) {
	if m.sourceBroken {
		return m, nil
	}
	if m.session.State() == engine.Stopped {
		// The ledger is frozen after stop.
		return m, nil
	}
	// While paused, the source stops numbering and delivering, but segments
	// numbered before the pause reached it may still be in flight. Those
	// carry sequence numbers the ledger expects, so they are ingested.
	if err := m.ledger.Append(seg); err != nil {
		var ord *ledger.ErrOrderingViolation
		if errors.As(err, &ord) {
			m.sourceBroken = true
			m.errorMessage = "recognizer out of order: " + ord.Error()
			m.log.Error("ordering_violation", map[string]any{"got": ord.Got, "want": ord.Want}, nil)
			// Stop accepting segments from this source.
			return m, nil
		}
		m.errorMessage = "ledger append failed: " + err.Error()
		return m, waitSegmentCmd(m.segments)
	}
	m.entries = append(m.entries, seg)
	if m.transcriptLive {
		m.scrollToBottom()
	}
	if m.store != nil {
		if err := m.store.AppendSegment(m.session.ID, seg); err != nil {
			m.log.Warn("segment_persist_failed", map[string]any{"sequence_id": seg.SequenceID}, err)
		}
	}
	return m, waitSegmentCmd(m.segments)
}

// handlePassFinished merges a pass result into the view.
func (m Model) handlePassFinished(res engine.Result) (tea.Model, tea.Cmd) {
	m.passInFlight = false

	switch res.Outcome {
	case engine.OutcomeMerged:
		m.minutes = res.Document.Markdown()
		m.minutesVersion = res.Document.Version
		m.lastUpdateAt = time.Now()
		m.statusText = fmt.Sprintf("Minutes updated (%s)", res.Mode)
	case engine.OutcomeRejected:
		m.errorMessage = "update failed: " + res.Err.Error()
		m.errorTransient = true
	case engine.OutcomeStale:
		m.statusText = "Stale update discarded"
	}

	if m.stopping {
		return m.continueShutdown()
	}
	if res.Outcome == engine.OutcomeRejected {
		return m, clearTransientErrorCmd()
	}
	return m, nil
}

// triggerUpdate requests a synthesis pass. quiet suppresses the no-op
// error surface for timer-driven updates.
func (m Model) triggerUpdate(mode engine.Mode, quiet bool) (Model, tea.Cmd) {
	pass, err := m.eng.RequestUpdate(mode)
	if err != nil {
		if quiet && (errors.Is(err, engine.ErrNothingNew) || errors.Is(err, engine.ErrUpdateInProgress)) {
			return m, nil
		}
		m.errorMessage = err.Error()
		m.errorTransient = true
		return m, clearTransientErrorCmd()
	}
	m.passInFlight = true
	m.errorMessage = ""
	return m, executePassCmd(pass)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.commandFocused {
		return m.handleCommandKey(msg)
	}

	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m.beginShutdown()

	case KeyUpdate:
		if m.stopping {
			return m, nil
		}
		return m.triggerUpdate(engine.Incremental, false)

	case KeyFullRegen:
		if m.stopping {
			return m, nil
		}
		return m.triggerUpdate(engine.Full, false)

	case KeySaveText:
		if m.writer == nil {
			return m, nil
		}
		return m, saveTranscriptCmd(m.writer, m.session.StartTime, m.ledger.All())

	case KeyTogglePause:
		state, err := m.session.TogglePause()
		if err != nil {
			return m, nil
		}
		if state == engine.Paused {
			m.source.Pause()
			m.statusText = "Paused"
		} else {
			m.source.Resume()
			m.statusText = "Recording"
		}
		return m, nil

	case KeyCommandInput:
		if m.stopping {
			return m, nil
		}
		m.commandFocused = true
		m.commandInput.Focus()
		return m, textinput.Blink

	case KeyTab:
		if m.focusedPanel == FocusTranscript {
			m.focusedPanel = FocusMinutes
		} else {
			m.focusedPanel = FocusTranscript
		}
		return m, nil

	case KeyUp:
		if m.focusedPanel == FocusTranscript {
			m.transcriptLive = false
			if m.transcriptScroll > 0 {
				m.transcriptScroll--
			}
		} else if m.minutesScroll > 0 {
			m.minutesScroll--
		}
		return m, nil

	case KeyDown:
		if m.focusedPanel == FocusTranscript {
			maxScroll := m.maxTranscriptScroll()
			m.transcriptScroll++
			if m.transcriptScroll >= maxScroll {
				m.transcriptScroll = maxScroll
				m.transcriptLive = true
			}
		} else {
			m.minutesScroll++
		}
		return m, nil
	}

	return m, nil
}

// handleCommandKey routes keys to the command input field.
func (m Model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEnter:
		text := strings.TrimSpace(m.commandInput.Value())
		if text != "" {
			m.eng.Commands().Enqueue(text)
			m.statusText = fmt.Sprintf("Instruction queued (%d pending)", m.eng.Commands().Len())
		}
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.commandFocused = false
		return m, nil

	case KeyEscape:
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.commandFocused = false
		return m, nil

	case KeyCtrlC:
		return m.beginShutdown()
	}

	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

// beginShutdown stops the session and starts the final update and export.
func (m Model) beginShutdown() (tea.Model, tea.Cmd) {
	if m.stopping {
		return m, nil
	}
	m.stopping = true
	m.session.Stop()
	m.source.Pause()
	m.statusText = "Finalizing..."
	if m.passInFlight {
		// The in-flight pass may still merge; shutdown continues when it
		// lands.
		return m, nil
	}
	return m.continueShutdown()
}

// continueShutdown runs the final full pass, then exports and quits.
func (m Model) continueShutdown() (Model, tea.Cmd) {
	if !m.finalRequested && m.ledger.Len() > 0 {
		m.finalRequested = true
		pass, err := m.eng.RequestUpdate(engine.Full)
		if err == nil {
			m.passInFlight = true
			return m, executePassCmd(pass)
		}
		m.log.Warn("final_pass_skipped", nil, err)
	}
	return m, finalizeCmd(m.writer, m.store, m.session.ID, m.session.StartTime, m.eng.DocumentSnapshot(), m.ledger.All())
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) maxTranscriptScroll() int {
	totalLines := len(m.entries)
	visible := m.transcriptVisibleLines()
	if totalLines <= visible {
		return 0
	}
	return totalLines - visible
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + dividers(2) + command(1) + error(1) + footer(1) + padding
	reserved := 8
	return max(5, m.height-reserved)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 50
	}
	return max(30, m.width*45/100)
}

func (m Model) minutesPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.transcriptPanelWidth()-3)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.commandFocused {
		sections = append(sections, m.commandInput.View())
	}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("MEETING TRANSCRIBER")
	tmpl := ui.DimStyle.Render(" — " + m.templateName)
	backend := ui.DimStyle.Render(" [" + m.backendName + "]")
	return title + tmpl + backend
}

func (m Model) renderStatusBar() string {
	var dot string
	switch m.session.State() {
	case engine.Recording:
		dot = ui.RecordingDotStyle.Render("● REC")
	case engine.Paused:
		dot = ui.PausedDotStyle.Render("‖ PAUSED")
	default:
		dot = ui.StoppedDotStyle.Render("■ STOPPED")
	}

	elapsed := time.Since(m.session.StartTime).Round(time.Second)
	info := ui.StatusStyle.Render(fmt.Sprintf("  %s  %d segments", elapsed, m.ledger.Len()))

	var version string
	if m.minutesVersion > 0 {
		version = "  " + ui.VersionBadgeStyle.Render(fmt.Sprintf("v%d", m.minutesVersion))
	}

	var processing string
	if m.passInFlight {
		processing = "  " + ui.SpinnerStyle.Render("⟳ AI")
	}

	var pending string
	if n := m.eng.Commands().Len(); n > 0 {
		pending = "  " + ui.DimStyle.Render(fmt.Sprintf("%d instruction(s) queued", n))
	}

	status := "  " + ui.StatusStyle.Render(m.statusText)

	return dot + info + version + processing + pending + status
}

func (m Model) renderMainContent() string {
	transcriptW := m.transcriptPanelWidth()
	minutesW := m.minutesPanelWidth()
	contentH := m.transcriptVisibleLines()

	transcriptPanel := m.renderTranscriptPanel(transcriptW, contentH)
	minutesPanel := m.renderMinutesPanel(minutesW, contentH)

	divider := ui.DividerStyle.Render("│")

	transcriptLines := strings.Split(transcriptPanel, "\n")
	minutesLines := strings.Split(minutesPanel, "\n")

	for len(transcriptLines) < contentH {
		transcriptLines = append(transcriptLines, strings.Repeat(" ", transcriptW))
	}
	for len(minutesLines) < contentH {
		minutesLines = append(minutesLines, "")
	}

	var rows []string
	for i := 0; i < contentH; i++ {
		left := padRight(transcriptLines[i], transcriptW)
		right := ""
		if i < len(minutesLines) {
			right = minutesLines[i]
		}
		rows = append(rows, left+divider+right)
	}

	return strings.Join(rows, "\n")
}

func (m Model) renderTranscriptPanel(width, height int) string {
	var badge string
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	} else {
		badge = ui.ScrollBadgeStyle.Render(" SCROLL")
	}

	var header string
	if m.focusedPanel == FocusTranscript {
		header = ui.PanelTitleActiveStyle.Render("TRANSCRIPT") + badge
	} else {
		header = ui.PanelTitleStyle.Render("TRANSCRIPT") + badge
	}

	lines := []string{header}
	contentHeight := height - 1

	if len(m.entries) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Waiting for speech..."))
	} else {
		prefixWidth := 13 // "  [HH:MM:SS] "
		textWidth := max(10, width-prefixWidth-2)
		indentStr := strings.Repeat(" ", prefixWidth)

		var displayLines []string
		for _, e := range m.entries {
			ts := ui.TimestampStyle.Render(e.StartTime.Format("[15:04:05]"))
			wrapped := wrapText(e.Text, textWidth)
			displayLines = append(displayLines, ts+" "+wrapped[0])
			for _, wl := range wrapped[1:] {
				displayLines = append(displayLines, indentStr+wl)
			}
		}

		start := 0
		if m.transcriptLive {
			if len(displayLines) > contentHeight {
				start = len(displayLines) - contentHeight
			}
		} else {
			start = m.transcriptScroll
		}
		if start < 0 {
			start = 0
		}
		end := min(start+contentHeight, len(displayLines))
		for i := start; i < end; i++ {
			lines = append(lines, "  "+displayLines[i])
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderMinutesPanel(width, height int) string {
	var header string
	title := "MINUTES"
	if m.minutesVersion > 0 {
		title = fmt.Sprintf("MINUTES v%d", m.minutesVersion)
	}
	if m.focusedPanel == FocusMinutes {
		header = ui.PanelTitleActiveStyle.Render(title)
	} else {
		header = ui.PanelTitleStyle.Render(title)
	}

	lines := []string{header}
	contentHeight := height - 1

	if m.minutes == "" {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  No minutes yet. Press u to generate."))
	} else {
		var displayLines []string
		for _, raw := range strings.Split(m.minutes, "\n") {
			wrapped := wrapText(raw, max(10, width-4))
			displayLines = append(displayLines, wrapped...)
		}

		start := m.minutesScroll
		if start > max(0, len(displayLines)-contentHeight) {
			start = max(0, len(displayLines)-contentHeight)
		}
		end := min(start+contentHeight, len(displayLines))
		for i := start; i < end; i++ {
			line := displayLines[i]
			if strings.HasPrefix(line, "## ") {
				line = ui.PanelTitleStyle.Render(line)
			}
			lines = append(lines, "  "+line)
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	if !m.stopping {
		parts = append(parts, ui.FooterKeyStyle.Render("u")+ui.FooterDescStyle.Render(" Update"))
		parts = append(parts, ui.FooterKeyStyle.Render("f")+ui.FooterDescStyle.Render(" Full regen"))
		parts = append(parts, ui.FooterKeyStyle.Render("c")+ui.FooterDescStyle.Render(" Instruct"))
		parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Save text"))
		parts = append(parts, ui.FooterKeyStyle.Render("p")+ui.FooterDescStyle.Render(" Pause"))
		parts = append(parts, ui.FooterKeyStyle.Render("tab")+ui.FooterDescStyle.Render(" Focus"))
		parts = append(parts, ui.FooterKeyStyle.Render("↑↓")+ui.FooterDescStyle.Render(" Scroll"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Stop & save"))
	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
