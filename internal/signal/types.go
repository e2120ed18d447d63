package signal

// Kind classifies how a signal was detected in the transcript.
type Kind string

const (
	// KindExplicitCorrection marks a direct user correction
	// ("actually...", "no, the correct way is...").
	KindExplicitCorrection Kind = "explicit_correction"

	// KindRepeatedPattern marks a topic phrase repeated across sessions
	// at or above the detection threshold.
	KindRepeatedPattern Kind = "repeated_pattern"

	// KindKeyDecision marks a declarative decision statement.
	KindKeyDecision Kind = "key_decision"
)

// Signal is a candidate correction or preference extracted from a session
// transcript. Signals are immutable once created: downstream stages
// reference them but never mutate them.
type Signal struct {
	// SessionID is the opaque identifier of the source conversation.
	SessionID string

	// Fingerprint is the stable dedup key derived from the session ID
	// and the normalized form of the triggering text.
	Fingerprint string

	// RawText is the correction phrase as extracted.
	RawText string

	// Kind is the rule family that produced this signal.
	Kind Kind

	// Turn is the utterance index within the transcript the signal was
	// extracted from. Signals from one session are evaluated in Turn
	// order.
	Turn int
}

// Utterance is a single turn from a session transcript.
type Utterance struct {
	// Role is the speaker role, "user" or "assistant".
	Role string

	// Text is the plain-text content of the turn.
	Text string

	// Turn is the utterance index within the transcript.
	Turn int
}
