package skilldoc

import (
	"fmt"
	"strings"
)

// shortFingerprintLen is how much of the fingerprint appears in the
// commit subject line.
const shortFingerprintLen = 12

// CommitMessage renders the stable commit message for an applied
// learning. The engine does not run git itself; an external collaborator
// (hook or operator) commits with this payload.
func CommitMessage(doc *Document, l Learning) string {
	var b strings.Builder

	fmt.Fprintf(&b, "skill(%s): fold learning %s\n\n",
		doc.Name, shortFingerprint(l.Fingerprint))

	if l.Change != "" {
		b.WriteString(firstLine(l.Change) + "\n\n")
	}

	fmt.Fprintf(&b, "Version: %d\n", doc.Meta.Version)
	fmt.Fprintf(&b, "Confidence: %s\n", l.Confidence)
	if l.SessionID != "" {
		fmt.Fprintf(&b, "Session: %s\n", l.SessionID)
	}
	fmt.Fprintf(&b, "Fingerprint: %s\n", l.Fingerprint)

	return b.String()
}

func shortFingerprint(fp string) string {
	if len(fp) <= shortFingerprintLen {
		return fp
	}
	return fp[:shortFingerprintLen]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
