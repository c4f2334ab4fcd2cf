// Package metrics provides per-session metrics collection for the
// submission pipeline.
//
// The Collector accumulates counters during one authenticated session. It
// is a leaf package with no internal dependencies. All increment methods
// are nil-receiver safe so callers never need to guard against an absent
// collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of session counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Submission lifecycle
	SubmissionsStarted  int64
	SubmissionsAccepted int64
	SubmissionsRejected int64
	SubmissionsQueued   int64
	DuplicatesCoalesced int64

	// Proof validation
	ProofsValidated int64
	ProofsRejected  int64

	// Token broker
	TokensIssued     int64
	TokensReused     int64
	TokenIssueFailed int64

	// Authority routing
	FallbackPathUsed int64

	// Outbox
	ReplaysRun       int64
	RecordsRecovered int64
	RecordsEvicted   int64
	RecordsDropped   int64

	// Downstream notification
	AdapterPublishFailures int64

	// Dimensions (informational, set at construction)
	Identity  string
	SessionID string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	submissionsStarted  int64
	submissionsAccepted int64
	submissionsRejected int64
	submissionsQueued   int64
	duplicatesCoalesced int64

	proofsValidated int64
	proofsRejected  int64

	tokensIssued     int64
	tokensReused     int64
	tokenIssueFailed int64

	fallbackPathUsed int64

	replaysRun       int64
	recordsRecovered int64
	recordsEvicted   int64
	recordsDropped   int64

	adapterPublishFailures int64

	identity  string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(identity, sessionID string) *Collector {
	return &Collector{identity: identity, sessionID: sessionID}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// IncSubmissionStarted records a submission attempt entering the pipeline.
func (c *Collector) IncSubmissionStarted() {
	if c == nil {
		return
	}
	c.inc(&c.submissionsStarted)
}

// IncSubmissionAccepted records an authority-accepted submission.
func (c *Collector) IncSubmissionAccepted() {
	if c == nil {
		return
	}
	c.inc(&c.submissionsAccepted)
}

// IncSubmissionRejected records a permanently rejected submission.
func (c *Collector) IncSubmissionRejected() {
	if c == nil {
		return
	}
	c.inc(&c.submissionsRejected)
}

// IncSubmissionQueued records a submission deferred to the outbox.
func (c *Collector) IncSubmissionQueued() {
	if c == nil {
		return
	}
	c.inc(&c.submissionsQueued)
}

// IncDuplicateCoalesced records a duplicate authority response treated as
// success.
func (c *Collector) IncDuplicateCoalesced() {
	if c == nil {
		return
	}
	c.inc(&c.duplicatesCoalesced)
}

// IncProofValidated records a proof passing validation.
func (c *Collector) IncProofValidated() {
	if c == nil {
		return
	}
	c.inc(&c.proofsValidated)
}

// IncProofRejected records a proof failing validation.
func (c *Collector) IncProofRejected() {
	if c == nil {
		return
	}
	c.inc(&c.proofsRejected)
}

// IncTokenIssued records a freshly issued run token.
func (c *Collector) IncTokenIssued() {
	if c == nil {
		return
	}
	c.inc(&c.tokensIssued)
}

// IncTokenReused records reuse of a token embedded in the proof.
func (c *Collector) IncTokenReused() {
	if c == nil {
		return
	}
	c.inc(&c.tokensReused)
}

// IncTokenIssueFailed records a failed token issuance.
func (c *Collector) IncTokenIssueFailed() {
	if c == nil {
		return
	}
	c.inc(&c.tokenIssueFailed)
}

// IncFallbackPathUsed records a call answered under the legacy procedure
// name.
func (c *Collector) IncFallbackPathUsed() {
	if c == nil {
		return
	}
	c.inc(&c.fallbackPathUsed)
}

// IncReplayRun records one outbox replay cycle.
func (c *Collector) IncReplayRun() {
	if c == nil {
		return
	}
	c.inc(&c.replaysRun)
}

// IncRecordRecovered records an outbox record delivered on replay.
func (c *Collector) IncRecordRecovered() {
	if c == nil {
		return
	}
	c.inc(&c.recordsRecovered)
}

// IncRecordEvicted records an outbox record evicted by capacity trimming.
func (c *Collector) IncRecordEvicted() {
	if c == nil {
		return
	}
	c.inc(&c.recordsEvicted)
}

// IncRecordDropped records an outbox record removed after a permanent
// rejection during replay.
func (c *Collector) IncRecordDropped() {
	if c == nil {
		return
	}
	c.inc(&c.recordsDropped)
}

// IncAdapterPublishFailure records a failed downstream notification.
func (c *Collector) IncAdapterPublishFailure() {
	if c == nil {
		return
	}
	c.inc(&c.adapterPublishFailures)
}

// Snapshot returns an immutable copy of all counters.
// Nil-receiver safe: returns a zero snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SubmissionsStarted:     c.submissionsStarted,
		SubmissionsAccepted:    c.submissionsAccepted,
		SubmissionsRejected:    c.submissionsRejected,
		SubmissionsQueued:      c.submissionsQueued,
		DuplicatesCoalesced:    c.duplicatesCoalesced,
		ProofsValidated:        c.proofsValidated,
		ProofsRejected:         c.proofsRejected,
		TokensIssued:           c.tokensIssued,
		TokensReused:           c.tokensReused,
		TokenIssueFailed:       c.tokenIssueFailed,
		FallbackPathUsed:       c.fallbackPathUsed,
		ReplaysRun:             c.replaysRun,
		RecordsRecovered:       c.recordsRecovered,
		RecordsEvicted:         c.recordsEvicted,
		RecordsDropped:         c.recordsDropped,
		AdapterPublishFailures: c.adapterPublishFailures,
		Identity:               c.identity,
		SessionID:              c.sessionID,
	}
}
