package signal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultMaxTranscriptLines bounds how much of a transcript tail is scanned.
const DefaultMaxTranscriptLines = 2000

// TranscriptReader reads Claude Code session transcripts from disk.
type TranscriptReader struct {
	basePath string
	maxLines int
}

// NewTranscriptReader creates a new TranscriptReader with the given base
// path and max lines to read.
func NewTranscriptReader(basePath string, maxLines int) *TranscriptReader {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			basePath = "/root"
		} else {
			basePath = home
		}
		basePath = filepath.Join(basePath, ".claude")
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxTranscriptLines
	}
	return &TranscriptReader{basePath: basePath, maxLines: maxLines}
}

// transcriptLine is the subset of a Claude Code transcript record we care
// about. Content is either a plain string or a list of typed blocks.
type transcriptLine struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// contentBlock is one element of a structured message content list.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReadTranscript reads a session transcript file and returns the ordered
// sequence of utterances. Malformed lines are skipped rather than failing
// the whole transcript.
func (r *TranscriptReader) ReadTranscript(
	projectKey, sessionID string,
) ([]Utterance, error) {
	path, err := r.findTranscriptPath(projectKey, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find transcript: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript %s: %w", path, err)
	}
	defer f.Close()

	var utterances []Utterance

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	turn := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record transcriptLine
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			// A single malformed record never fails the batch.
			continue
		}

		if record.Type != "user" && record.Type != "assistant" {
			continue
		}

		text := extractText(record.Message.Content)
		if text == "" {
			continue
		}

		role := record.Message.Role
		if role == "" {
			role = record.Type
		}

		utterances = append(utterances, Utterance{
			Role: role,
			Text: text,
			Turn: turn,
		})
		turn++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript %s: %w", path, err)
	}

	// Tail to maxLines.
	if len(utterances) > r.maxLines {
		utterances = utterances[len(utterances)-r.maxLines:]
	}

	return utterances, nil
}

// extractText flattens message content into plain text. Content is either a
// bare JSON string or a list of typed blocks; only text blocks contribute.
func extractText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return plain
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}

	return strings.Join(parts, "\n")
}

// FindActiveSession discovers the most recent session file for a project
// key.
func (r *TranscriptReader) FindActiveSession(projectKey string) (string, error) {
	sessions, err := r.ListRecentSessions(projectKey, time.Time{})
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf(
			"no session files in %s", r.projectDir(projectKey),
		)
	}

	return sessions[0], nil
}

// ListRecentSessions returns session IDs for a project whose transcript
// files were modified at or after the given cutoff, most recent first. A
// zero cutoff returns all sessions.
func (r *TranscriptReader) ListRecentSessions(
	projectKey string, since time.Time,
) ([]string, error) {
	projectDir := r.projectDir(projectKey)

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf(
			"read project dir %s: %w", projectDir, err,
		)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}

	var sessions []fileInfo
	for _, e := range entries {
		if e.IsDir() || !isSessionFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !since.IsZero() && info.ModTime().Before(since) {
			continue
		}
		sessions = append(sessions, fileInfo{
			name:    e.Name(),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].modTime.After(sessions[j].modTime)
	})

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = strings.TrimSuffix(s.name, filepath.Ext(s.name))
	}

	return ids, nil
}

// findTranscriptPath resolves the file path for a session transcript.
func (r *TranscriptReader) findTranscriptPath(
	projectKey, sessionID string,
) (string, error) {
	// Try several known locations for session data.
	candidates := []string{
		filepath.Join(
			r.projectDir(projectKey), sessionID+".jsonl",
		),
		filepath.Join(
			r.projectDir(projectKey), sessionID+".json",
		),
		filepath.Join(
			r.projectDir(projectKey),
			"sessions", sessionID+".jsonl",
		),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf(
		"transcript not found for session %s in project %s",
		sessionID, projectKey,
	)
}

// projectDir returns the directory for a project key. Raw filesystem
// paths are mangled the way Claude Code names project directories, which
// also neutralizes traversal sequences.
func (r *TranscriptReader) projectDir(projectKey string) string {
	return filepath.Join(r.basePath, "projects", MangleProjectKey(projectKey))
}

// MangleProjectKey converts a project path to its transcript directory
// name: every rune outside [A-Za-z0-9-] becomes a dash. Already-mangled
// keys pass through unchanged.
func MangleProjectKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-':

			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// isSessionFile checks if a filename looks like a session transcript.
func isSessionFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".jsonl" || ext == ".json"
}
