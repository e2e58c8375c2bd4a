// Package progress carries per-document progress events of a batch run to
// whoever displays them.
package progress

import "time"

// Stage describes a pipeline phase of one document.
type Stage string

const (
	// StageLoad covers parse, canonical reformat and reparse.
	StageLoad Stage = "load"
	// StageResolve is the schema lookup by root namespace.
	StageResolve Stage = "resolve"
	// StageFormal is the formal schema validation.
	StageFormal Stage = "formal"
	// StageCheck runs the profile and semantic checkers.
	StageCheck Stage = "check"
	// StageReport is the final snapshot of the collector.
	StageReport Stage = "report"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the document is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the document is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the document passed.
	StatusDone Status = "done"
	// StatusFailed indicates the document has Fatal or Error diagnostics.
	StatusFailed Status = "failed"
	// StatusCached indicates the report came from the cache.
	StatusCached Status = "cached"
	// StatusError indicates the run itself failed (IO, cancellation).
	StatusError Status = "error"
)

// Terminal reports whether no further events follow for the document.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusCached, StatusError:
		return true
	}
	return false
}

// Event reports progress for a document (or for the whole batch when File
// is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Err      error
	Errors   int // fatal and error diagnostics, set on the final event
	Warnings int
	Elapsed  time.Duration
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}
