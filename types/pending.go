package types

import "time"

// PendingSubmission is one outbox record: a rank run whose submission
// failed for a retryable reason, held for replay. At most one record per
// fingerprint exists in the queue at any time.
type PendingSubmission struct {
	// ID is a unique record identifier.
	ID string `msgpack:"id" json:"id"`
	// Fingerprint is the dedup key for the attempt.
	Fingerprint string `msgpack:"fingerprint" json:"fingerprint"`
	// CreatedAt is when the record was first enqueued.
	CreatedAt time.Time `msgpack:"created_at" json:"createdAt"`
	// UpdatedAt is when the record was last (re)enqueued or replayed.
	UpdatedAt time.Time `msgpack:"updated_at" json:"updatedAt"`
	// Attempts is the number of replay attempts so far.
	Attempts int `msgpack:"attempts" json:"attempts"`
	// LastReason is the classification of the most recent failure.
	LastReason string `msgpack:"last_reason" json:"lastReason"`
	// Result is the full run result to resubmit.
	Result RunResult `msgpack:"result" json:"result"`
}
