// Package reader provides the read side of the handseal CLI: loading run
// result documents from disk or stdin and shaping outbox state into view
// payloads shared by JSON, table, YAML, and TUI rendering.
package reader

import "time"

// RecordSummary is one outbox record in list output.
type RecordSummary struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Jutsu       string    `json:"jutsu"`
	Mode        string    `json:"mode"`
	Attempts    int       `json:"attempts"`
	LastReason  string    `json:"last_reason"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InspectRecordResponse is the full detail view of one outbox record.
type InspectRecordResponse struct {
	ID            string    `json:"id"`
	Fingerprint   string    `json:"fingerprint"`
	Jutsu         string    `json:"jutsu"`
	Mode          string    `json:"mode"`
	ScoreTime     float64   `json:"score_time"`
	SignsLanded   int       `json:"signs_landed"`
	ExpectedSigns int       `json:"expected_signs"`
	ProofEvents   int       `json:"proof_events"`
	HasToken      bool      `json:"has_token"`
	Attempts      int       `json:"attempts"`
	LastReason    string    `json:"last_reason"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OutboxStats is the aggregate view of the pending queue.
type OutboxStats struct {
	// Pending is the total number of queued records.
	Pending int `json:"pending"`
	// Fresh counts records that have never been replayed.
	Fresh int `json:"fresh"`
	// Retrying counts records with at least one failed replay.
	Retrying int `json:"retrying"`
	// Attempts is the total replay attempts across all records.
	Attempts int `json:"attempts"`
}
