package signal

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultRepeatThreshold is the minimum number of occurrences of a
	// topic phrase across recent sessions before it becomes a
	// repeated_pattern signal.
	DefaultRepeatThreshold = 3

	// DefaultLookbackWindow bounds how far back the repetition scan
	// looks.
	DefaultLookbackWindow = 7 * 24 * time.Hour

	// topicPhraseWords is how many leading words of a normalized
	// utterance form its topic phrase for repetition counting.
	topicPhraseWords = 8

	// minSignalLength filters out matches too short to carry a usable
	// learning.
	minSignalLength = 12
)

// correctionPatterns match explicit user corrections. Each pattern gates on
// the sentence containing it, not the whole utterance.
var correctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^actually[, ]`),
	regexp.MustCompile(`(?i)\bno[, ]+the correct\b`),
	regexp.MustCompile(`(?i)\bthat'?s (wrong|incorrect|not right)\b`),
	regexp.MustCompile(`(?i)\binstead of\b.+\buse\b`),
	regexp.MustCompile(`(?i)^(always|never) `),
	regexp.MustCompile(`(?i)\byou should (always|never)\b`),
	regexp.MustCompile(`(?i)\bdon'?t (ever )?use\b`),
	regexp.MustCompile(`(?i)\bplease (always|never|stop)\b`),
}

// decisionPatterns match declarative key-decision statements.
var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwe('ve| have)? decided\b`),
	regexp.MustCompile(`(?i)^decision:`),
	regexp.MustCompile(`(?i)\blet'?s go with\b`),
	regexp.MustCompile(`(?i)\bgoing forward[, ]`),
	regexp.MustCompile(`(?i)\bfrom now on[, ]`),
	regexp.MustCompile(`(?i)\bkey decision\b`),
}

// DetectorConfig holds tuning knobs for signal detection.
type DetectorConfig struct {
	// RepeatThreshold is the cross-session repetition count that
	// promotes a topic phrase to a signal.
	RepeatThreshold int

	// LookbackWindow bounds the repetition scan over past sessions.
	LookbackWindow time.Duration
}

// DefaultDetectorConfig returns sensible detection defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		RepeatThreshold: DefaultRepeatThreshold,
		LookbackWindow:  DefaultLookbackWindow,
	}
}

// Detector scans session transcripts for correction, repetition, and
// decision signals.
type Detector struct {
	cfg    DetectorConfig
	reader *TranscriptReader
	log    *slog.Logger
}

// NewDetector creates a detector over the given transcript reader.
func NewDetector(
	cfg DetectorConfig, reader *TranscriptReader, log *slog.Logger,
) *Detector {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RepeatThreshold <= 0 {
		cfg.RepeatThreshold = DefaultRepeatThreshold
	}
	if cfg.LookbackWindow <= 0 {
		cfg.LookbackWindow = DefaultLookbackWindow
	}

	return &Detector{
		cfg:    cfg,
		reader: reader,
		log:    log.With("component", "detector"),
	}
}

// Detect scans one session transcript and returns the signals found, in
// extraction order. Detection is a pure function of the transcript and the
// lookback window: it never fails the caller. If transcript access fails it
// logs a warning and returns an empty list, since the hook invoking a run
// must never be blocked by a missing transcript.
func (d *Detector) Detect(projectKey, sessionID string) []Signal {
	utterances, err := d.reader.ReadTranscript(projectKey, sessionID)
	if err != nil {
		d.log.Warn("Failed to read transcript",
			"project_key", projectKey,
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}

	var signals []Signal
	seen := make(map[string]struct{})

	emit := func(text string, kind Kind, turn int) {
		if len(Normalize(text)) < minSignalLength {
			return
		}

		sig := NewSignal(sessionID, text, kind, turn)
		if _, ok := seen[sig.Fingerprint]; ok {
			return
		}
		seen[sig.Fingerprint] = struct{}{}
		signals = append(signals, sig)
	}

	for _, u := range utterances {
		if u.Role != "user" {
			continue
		}

		for _, sentence := range splitSentences(u.Text) {
			if matchesAny(sentence, correctionPatterns) {
				emit(sentence, KindExplicitCorrection, u.Turn)
				continue
			}
			if matchesAny(sentence, decisionPatterns) {
				emit(sentence, KindKeyDecision, u.Turn)
			}
		}
	}

	for _, rep := range d.detectRepetition(projectKey, utterances) {
		emit(rep.text, KindRepeatedPattern, rep.turn)
	}

	return signals
}

// repeatedPhrase pairs a repeated utterance with the turn it occurred at in
// the current session.
type repeatedPhrase struct {
	text string
	turn int
}

// detectRepetition counts topic phrases across the sessions modified within
// the lookback window and reports phrases from the current transcript that
// meet the threshold. Repetition detection is best effort: failure to read
// a past session only narrows the count.
func (d *Detector) detectRepetition(
	projectKey string, current []Utterance,
) []repeatedPhrase {
	cutoff := time.Now().Add(-d.cfg.LookbackWindow)

	sessionIDs, err := d.reader.ListRecentSessions(projectKey, cutoff)
	if err != nil {
		d.log.Warn("Failed to list recent sessions",
			"project_key", projectKey, "error", err,
		)
		return nil
	}

	counts := make(map[string]int)
	for _, id := range sessionIDs {
		utterances, err := d.reader.ReadTranscript(projectKey, id)
		if err != nil {
			continue
		}
		perSession := make(map[string]struct{})
		for _, u := range utterances {
			if u.Role != "user" {
				continue
			}
			phrase := topicPhrase(u.Text)
			if phrase == "" {
				continue
			}
			// Count each phrase at most once per session so a
			// user repeating themselves within one conversation
			// doesn't trip the cross-session threshold.
			if _, ok := perSession[phrase]; ok {
				continue
			}
			perSession[phrase] = struct{}{}
			counts[phrase]++
		}
	}

	var repeated []repeatedPhrase
	emitted := make(map[string]struct{})
	for _, u := range current {
		if u.Role != "user" {
			continue
		}
		phrase := topicPhrase(u.Text)
		if phrase == "" || counts[phrase] < d.cfg.RepeatThreshold {
			continue
		}
		if _, ok := emitted[phrase]; ok {
			continue
		}
		emitted[phrase] = struct{}{}
		repeated = append(repeated, repeatedPhrase{
			text: u.Text,
			turn: u.Turn,
		})
	}

	return repeated
}

// topicPhrase reduces an utterance to its leading normalized words for
// repetition counting.
func topicPhrase(text string) string {
	norm := Normalize(text)
	if norm == "" {
		return ""
	}

	words := strings.Fields(norm)
	if len(words) < 3 {
		return ""
	}
	if len(words) > topicPhraseWords {
		words = words[:topicPhraseWords]
	}

	return strings.Join(words, " ")
}

// splitSentences breaks an utterance into rough sentence units. Newlines
// always split; terminal punctuation splits when followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		for _, s := range sentenceBoundary.Split(line, -1) {
			s = strings.TrimSpace(s)
			if s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	return sentences
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// matchesAny reports whether any pattern matches the sentence.
func matchesAny(sentence string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(sentence) {
			return true
		}
	}
	return false
}
