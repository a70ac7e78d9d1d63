package app

import (
	"github.com/h-wata/meeting-transcriber/internal/engine"
	"github.com/h-wata/meeting-transcriber/internal/ledger"
)

// RecognizerStartedMsg is sent when the recognizer stream is up.
type RecognizerStartedMsg struct {
	Segments <-chan ledger.Segment
}

// RecognizerErrorMsg is sent when the recognizer fails to start.
type RecognizerErrorMsg struct {
	Err error
}

// SegmentMsg carries one finalized transcript segment from the recognizer.
type SegmentMsg struct {
	Segment ledger.Segment
}

// RecognizerClosedMsg is sent when the segment stream ends.
type RecognizerClosedMsg struct{}

// PassFinishedMsg carries the result of an executed synthesis pass.
type PassFinishedMsg struct {
	Result engine.Result
}

// AutoUpdateTickMsg triggers a periodic incremental update.
type AutoUpdateTickMsg struct{}

// TranscriptSavedMsg reports a manual transcript save.
type TranscriptSavedMsg struct {
	Err error
}

// FinalizedMsg reports the end-of-session export.
type FinalizedMsg struct {
	Dir string
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
