package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// maxNormalizedRunes caps the normalized text used for fingerprinting. Two
// runs that extract differently truncated substrings of the same long
// correction still fingerprint identically, because anything past the cap is
// ignored. Fingerprinting the raw extracted text (or its length) is exactly
// the dedup bug this exists to prevent.
const maxNormalizedRunes = 160

var (
	// uuidPattern matches RFC 4122 style identifiers that vary per
	// session and must not contribute to the fingerprint.
	uuidPattern = regexp.MustCompile(
		`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-` +
			`[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	)

	// hexNoncePattern matches long hex strings (commit hashes, request
	// IDs).
	hexNoncePattern = regexp.MustCompile(`\b(0x)?[0-9a-fA-F]{12,}\b`)

	// timestampPattern matches ISO-8601 style timestamps.
	timestampPattern = regexp.MustCompile(
		`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`,
	)

	// whitespacePattern collapses any run of whitespace to one space.
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize produces the canonical form of a signal phrase used for
// fingerprinting: case-folded, session-specific nonces stripped, whitespace
// collapsed, edge punctuation trimmed, and capped at a fixed rune length.
func Normalize(text string) string {
	s := strings.ToLower(text)

	s = uuidPattern.ReplaceAllString(s, "")
	s = timestampPattern.ReplaceAllString(s, "")
	s = hexNoncePattern.ReplaceAllString(s, "")

	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .,!?:;\"'`")

	runes := []rune(s)
	if len(runes) > maxNormalizedRunes {
		runes = runes[:maxNormalizedRunes]
		s = strings.TrimRight(string(runes), " ")
	}

	return s
}

// Fingerprint derives the stable dedup key for a signal from its session ID
// and the normalized triggering text.
func Fingerprint(sessionID, text string) string {
	h := sha256.New()
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(Normalize(text)))

	return hex.EncodeToString(h.Sum(nil))
}

// NewSignal constructs a Signal with its fingerprint populated.
func NewSignal(sessionID, rawText string, kind Kind, turn int) Signal {
	return Signal{
		SessionID:   sessionID,
		Fingerprint: Fingerprint(sessionID, rawText),
		RawText:     rawText,
		Kind:        kind,
		Turn:        turn,
	}
}
