// Package adapter defines the downstream notification boundary.
//
// Adapters publish run-recorded notifications to downstream systems
// (quest/XP pipelines, activity feeds) once the authority has confirmed a
// submission. Publishing is best-effort: a failed publish never changes
// the submission outcome. The session owns adapter lifecycle; users
// provide configuration only.
package adapter

import (
	"context"
	"time"
)

// RunRecordedEvent is the payload published when the authority confirms
// a run.
type RunRecordedEvent struct {
	ContractVersion string  `json:"contract_version"`
	EventType       string  `json:"event_type"` // always "run_recorded"
	Identity        string  `json:"identity"`
	Jutsu           string  `json:"jutsu"`
	Mode            string  `json:"mode"`
	ScoreTime       float64 `json:"score_time"`
	RunHash         string  `json:"run_hash"`
	HashAlgorithm   string  `json:"hash_algorithm"`
	Timestamp       string  `json:"timestamp"` // ISO 8601
	Replayed        bool    `json:"replayed"`  // true when recovered from the outbox
}

// EventTypeRunRecorded is the EventType value for RunRecordedEvent.
const EventTypeRunRecorded = "run_recorded"

// Adapter publishes run-recorded events to a downstream system.
// Implementations must be safe for reuse across a session's runs.
type Adapter interface {
	// Publish sends a run-recorded event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunRecordedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff blocks for a retry's backoff slot, doubling unit per attempt:
// attempt 1 waits unit, attempt 2 waits 2*unit, and so on. Returns the
// context error if ctx is done first.
func Backoff(ctx context.Context, attempt int, unit time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(unit << uint(attempt-1)):
		return nil
	}
}
