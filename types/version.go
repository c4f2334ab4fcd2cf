package types

// Version is the canonical project version.
// The CLI and the proof wire contract share this version per the lockstep
// versioning policy; the authority receives it as client_version on every
// submission.
const Version = "0.4.2"
