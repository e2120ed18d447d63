package skilldoc

import (
	"errors"
	"fmt"
)

// MergeStrategy decides what happens when an incoming learning collides
// with an entry already in the document (same fingerprint). The set is
// closed: every variant has an explicit handler and none silently
// discards data.
type MergeStrategy string

const (
	// StrategyTheirs keeps the entry already in the document.
	StrategyTheirs MergeStrategy = "theirs"

	// StrategyOurs rewrites the existing entry with the incoming one.
	StrategyOurs MergeStrategy = "ours"

	// StrategyAuto is the default: identical fingerprints mean the
	// reflection was already folded in, so keep the existing entry and
	// report a no-op.
	StrategyAuto MergeStrategy = "auto"

	// StrategyManual refuses to decide; the collision is surfaced for
	// a human.
	StrategyManual MergeStrategy = "manual"
)

// ErrManualMergeRequired is returned when StrategyManual hits a
// collision. Callers park the reflection for review instead of applying.
var ErrManualMergeRequired = errors.New(
	"learning collision requires manual merge",
)

// ParseStrategy converts a flag value into a MergeStrategy.
func ParseStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case StrategyTheirs, StrategyOurs, StrategyAuto, StrategyManual:
		return MergeStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q "+
			"(want theirs, ours, auto, or manual)", s)
	}
}

// mergeExisting applies the strategy to a collision. It reports whether
// the document was modified.
func (m MergeStrategy) mergeExisting(doc *Document, l Learning) (bool, error) {
	switch m {
	case StrategyTheirs, StrategyAuto:
		return false, nil

	case StrategyOurs:
		if !doc.replaceLearning(l) {
			return false, fmt.Errorf("learning %s not found "+
				"in %s", l.Fingerprint, doc.Name)
		}
		return true, nil

	case StrategyManual:
		return false, fmt.Errorf("skill %s already has learning "+
			"%s: %w", doc.Name, l.Fingerprint,
			ErrManualMergeRequired)

	default:
		return false, fmt.Errorf("unknown merge strategy %q", m)
	}
}
