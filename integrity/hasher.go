// Package integrity computes tamper-evident hashes over proof event logs.
//
// Two artifacts are derived per proof: a content hash of the whole event
// log, and a hash chain seeded by run identity and folded over each event
// in order. Any reordering, insertion, deletion, or field change anywhere
// in the log changes the final chain value, giving the authority a cheap
// tamper signal without re-deriving the full log.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"

	"github.com/shirogane-dev/handseal/canon"
	"github.com/shirogane-dev/handseal/types"
)

// Algorithm identifies the hash primitive used.
// The authority must be able to distinguish which was used; the marker is
// sent alongside every digest.
type Algorithm string

const (
	// AlgorithmSHA256 is the cryptographic default.
	AlgorithmSHA256 Algorithm = "sha256"
	// AlgorithmFNV32 is a non-cryptographic 32-bit fallback, kept for
	// parity with client environments that lack a crypto primitive.
	AlgorithmFNV32 Algorithm = "fnv32"
)

// chainSeedSuffix marks a chain seed as client-derived.
const chainSeedSuffix = "client"

// Hasher computes run hashes and hash chains with a fixed algorithm.
type Hasher struct {
	alg Algorithm
}

// New returns a Hasher using SHA-256.
func New() *Hasher {
	return &Hasher{alg: AlgorithmSHA256}
}

// NewWithAlgorithm returns a Hasher using the given algorithm.
// Unknown algorithms fall back to SHA-256.
func NewWithAlgorithm(alg Algorithm) *Hasher {
	switch alg {
	case AlgorithmSHA256, AlgorithmFNV32:
		return &Hasher{alg: alg}
	default:
		return &Hasher{alg: AlgorithmSHA256}
	}
}

// Algorithm returns the algorithm marker for this hasher.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

// RunHash returns the content fingerprint of the whole event log.
func (h *Hasher) RunHash(events []types.ProofEvent) string {
	return h.sum(canon.Canonicalize(events))
}

// Chain returns the final value of the hash chain over the event log.
//
// The chain is seeded by run identity and folded event by event:
//
//	chain0 = H(identity | mode | startedAt | "client")
//	chainN = H(chainN-1 | canonicalize(eventN))
func (h *Hasher) Chain(identity string, mode types.Mode, startedAt string, events []types.ProofEvent) string {
	chain := h.sum(fmt.Sprintf("%s|%s|%s|%s", identity, mode, startedAt, chainSeedSuffix))
	for i := range events {
		chain = h.sum(chain + "|" + canon.Canonicalize(events[i]))
	}
	return chain
}

// sum returns the hex digest of s under the configured algorithm.
func (h *Hasher) sum(s string) string {
	switch h.alg {
	case AlgorithmFNV32:
		f := fnv.New32a()
		_, _ = f.Write([]byte(s))
		return fmt.Sprintf("%08x", f.Sum32())
	default:
		digest := sha256.Sum256([]byte(s))
		return hex.EncodeToString(digest[:])
	}
}
