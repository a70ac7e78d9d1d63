package engine

import (
	"strings"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/ledger"
	"github.com/h-wata/meeting-transcriber/internal/template"
)

// maxTranscriptChars caps the transcript text in a full prompt (roughly 100K
// tokens). When exceeded, the newest segments win.
const maxTranscriptChars = 150000

const fullPromptHeader = `You are a meeting-minutes assistant.
Produce structured minutes from the transcript below.

Rules:
- Follow the structure of the provided template.
- Summarize the key points of the discussion concisely.
- Extract decisions and action items explicitly.
- Attribute statements to speakers when they can be identified.
- Keep the chronological flow of the meeting.
`

const incrementalPromptHeader = `You are a meeting-minutes assistant.
Merge the new utterances below into the existing minutes.

Rules:
- Fold new information into the appropriate existing sections.
- Consolidate with existing content instead of duplicating it.
- Keep the chronological flow of the discussion.
- Add new decisions and action items to their sections.
- Preserve the overall structure and formatting; do not rewrite sections
  the new material does not touch.
`

const outputInstruction = `Output the complete updated minutes in Markdown. No commentary.`

func buildFullPrompt(tmpl *template.Template, segments []ledger.Segment, commands []Command, start time.Time, updateCount int) string {
	transcript := truncateTranscript(joinSegments(segments))
	rendered := tmpl.Render(template.RenderContext{
		StartTime:   start,
		EndTime:     time.Now(),
		UpdateCount: updateCount,
	})

	var b strings.Builder
	b.WriteString(fullPromptHeader)
	if tmpl.Preamble != "" {
		b.WriteString("\nMeeting context: " + tmpl.Preamble + "\n")
	}
	writeCommands(&b, commands)
	b.WriteString("\nTemplate:\n" + rendered + "\n")
	b.WriteString("\nTranscript:\n" + transcript + "\n")
	b.WriteString("\n" + outputInstruction + "\n")
	return b.String()
}

func buildIncrementalPrompt(current string, delta []ledger.Segment, commands []Command) string {
	var b strings.Builder
	b.WriteString(incrementalPromptHeader)
	writeCommands(&b, commands)
	b.WriteString("\nCurrent minutes:\n" + current + "\n")
	b.WriteString("\nNew utterances since the last update:\n" + joinSegments(delta) + "\n")
	b.WriteString("\n" + outputInstruction + "\n")
	return b.String()
}

func writeCommands(b *strings.Builder, commands []Command) {
	if len(commands) == 0 {
		return
	}
	b.WriteString("\nUser instructions for this update:\n")
	for _, c := range commands {
		b.WriteString("- " + c.Text + "\n")
	}
}

func joinSegments(segments []ledger.Segment) string {
	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

// truncateTranscript keeps the newest whole lines within maxTranscriptChars.
func truncateTranscript(text string) string {
	if len(text) <= maxTranscriptChars {
		return text
	}
	lines := strings.Split(text, "\n")
	total := 0
	keep := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		total += len(lines[i]) + 1
		if total > maxTranscriptChars {
			break
		}
		keep = i
	}
	return strings.Join(lines[keep:], "\n")
}
