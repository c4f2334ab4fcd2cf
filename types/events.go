package types

// ProofContractVersion is the proof wire contract version shared with the
// in-game recognizer client.
const ProofContractVersion = "1.2.0"

// EventType represents the type of a recorded proof event.
type EventType string

// Event type constants. These match the recognizer client wire format.
const (
	// EventTypeRunStart marks the beginning of a timed run.
	EventTypeRunStart EventType = "run_start"
	// EventTypeSignOK records one correctly recognized hand sign.
	EventTypeSignOK EventType = "sign_ok"
	// EventTypeRunFinish marks the end of a timed run.
	EventTypeRunFinish EventType = "run_finish"
	// EventTypeOverflow marks that the client truncated the event log.
	EventTypeOverflow EventType = "event_overflow"
)

// Known returns true if this is a recognized event type.
func (e EventType) Known() bool {
	switch e {
	case EventTypeRunStart, EventTypeSignOK, EventTypeRunFinish, EventTypeOverflow:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if this event type ends a run.
func (e EventType) IsTerminal() bool {
	return e == EventTypeRunFinish
}

// ProofEvent is one timestamped fact in a run's event log.
// All fields use msgpack and json tags to match the recognizer client
// wire format. Events are immutable once recorded.
type ProofEvent struct {
	// T is seconds since run start. Must be >= -0.001.
	T float64 `msgpack:"t" json:"t"`
	// Type is the event type discriminator.
	Type EventType `msgpack:"type" json:"type"`
	// Step is the 1-based sign index. Present on sign_ok events.
	Step int `msgpack:"step,omitempty" json:"step,omitempty"`
	// Sign is the recognized sign token. Present on sign_ok events.
	Sign string `msgpack:"sign,omitempty" json:"sign,omitempty"`
	// Mode is the declared run mode. Optionally present on run_start.
	Mode *string `msgpack:"mode,omitempty" json:"mode,omitempty"`
	// ExpectedSigns is the declared sequence length. Optionally present
	// on run_start.
	ExpectedSigns *int `msgpack:"expected_signs,omitempty" json:"expected_signs,omitempty"`
}
