package build

import (
	"time"
)

//go:generate go tool stringer -type=EventKind -linecomment -output=event_string.go

// EventKind classifies progress events.
type EventKind int

const (
	_ EventKind = iota // skip zero value

	StageStarted     // stage_started
	StageCompleted   // stage_completed
	StageFailed      // stage_failed
	SourceFetched    // source_fetched
	SourceFailed     // source_failed
	StepApplied      // step_applied
	SchemaLoaded     // schema_loaded
	SchemaViolations // schema_violations
	BundleWritten    // bundle_written
)

// Event is one progress notification. Only the fields relevant to Kind are
// set.
type Event struct {
	Kind     EventKind
	Command  string
	Stage    string
	Status   Status
	Duration time.Duration
	// Code is the error code of a failed stage.
	Code    string
	Message string
	// Name is the source or transform step the event is about.
	Name string
	// Note describes where a source reads from.
	Note string
	// Size is a payload or file size in bytes.
	Size int
	// Path is a schema file or bundle directory.
	Path string
	// Details holds violation lines or written file names.
	Details []string
}

// Observer receives events synchronously, in order.
type Observer func(Event)
