// Package canon provides deterministic, order-independent serialization
// used as the input to proof hashing.
//
// Two logically identical values must canonicalize to the same string
// regardless of field or key order, so the subsystem and the authority can
// derive the same hashes from the same proof. Object keys are sorted and
// numbers are serialized in RFC 8785 (JCS) form.
package canon

import (
	"encoding/json"
	"fmt"

	jsoncanonicalizer "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Canonicalize serializes a value into RFC 8785 canonical JSON.
//
// The function is total: it never fails, because a canonicalization error
// must never block a submission. Values that cannot be marshaled to JSON
// (channels, NaN, cycles) are coerced to their fmt string form instead.
func Canonicalize(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		// Marshal output is valid JSON, so this is effectively
		// unreachable; fall back to the plain encoding.
		return string(raw)
	}
	return string(out)
}
