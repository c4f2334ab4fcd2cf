package authority

import (
	"errors"
	"strings"
)

// Class is the retry classification of a remote outcome.
type Class string

const (
	// ClassTransient marks failures worth queueing for replay: the same
	// payload may succeed once connectivity returns.
	ClassTransient Class = "transient"
	// ClassDuplicate marks already-recorded responses. Treated as
	// success: the run was accepted by a prior attempt.
	ClassDuplicate Class = "duplicate"
	// ClassPermanent marks everything else. Surfaced to the caller,
	// never queued.
	ClassPermanent Class = "permanent"
)

// Structured codes honored before message vocabulary. The authority's full
// error taxonomy is not published; these are the codes observed in the
// wild. Anything unrecognized falls through to substring matching.
var codeClasses = map[string]Class{
	"offline":        ClassTransient,
	"timeout":        ClassTransient,
	"unavailable":    ClassTransient,
	"rate_limited":   ClassTransient,
	"duplicate":      ClassDuplicate,
	"already_exists": ClassDuplicate,
	"token_used":     ClassDuplicate,
	"replay":         ClassDuplicate,
}

// transientVocabulary matches offline/network/timeout conditions in
// free-text failure messages.
var transientVocabulary = []string{
	"offline",
	"network",
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no route to host",
	"unreachable",
	"temporarily unavailable",
	"service unavailable",
	"dial tcp",
	"i/o timeout",
	"dns",
	"fetch failed",
	"socket",
	"502",
	"503",
	"504",
}

// duplicateVocabulary matches already-exists/replay/token-used conditions.
var duplicateVocabulary = []string{
	"already exists",
	"already recorded",
	"already submitted",
	"duplicate",
	"replayed",
	"replay detected",
	"token already used",
	"token used",
	"token consumed",
}

// Classify determines the retry classification of a remote error.
// nil classifies as permanent; callers should only classify actual
// failures. Substring matching against free-text messages is fragile but
// unavoidable until the authority publishes a structured error contract;
// structured codes are honored first when present.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code != "" {
		if class, ok := codeClasses[strings.ToLower(rpcErr.Code)]; ok {
			return class
		}
	}

	return ClassifyMessage(err.Error())
}

// ClassifyMessage classifies a free-text failure message.
func ClassifyMessage(message string) Class {
	lower := strings.ToLower(message)

	for _, probe := range duplicateVocabulary {
		if strings.Contains(lower, probe) {
			return ClassDuplicate
		}
	}
	for _, probe := range transientVocabulary {
		if strings.Contains(lower, probe) {
			return ClassTransient
		}
	}
	return ClassPermanent
}
