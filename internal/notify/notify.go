// Package notify publishes best-effort run events so external
// collaborators (dashboards, commit bots) can react to applied
// reflections. Delivery failures never affect a run.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectApplied is published when a reflection is folded into a
	// skill document.
	SubjectApplied = "reflect.applied"

	// SubjectSkipped is published when a reflection resolves to a
	// non-applied terminal outcome.
	SubjectSkipped = "reflect.skipped"

	// SubjectRun is published once per completed run with the summary
	// counts.
	SubjectRun = "reflect.run"
)

// Event is the JSON payload published on every subject.
type Event struct {
	RunID       string         `json:"run_id"`
	SessionID   string         `json:"session_id,omitempty"`
	SkillName   string         `json:"skill_name,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Counts      map[string]int `json:"counts,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Sink delivers events. Implementations must be safe for concurrent use
// and must never block a run on delivery problems.
type Sink interface {
	// Publish delivers one event. Errors are the sink's problem, not
	// the caller's.
	Publish(subject string, ev Event)

	// Close releases any connection the sink holds.
	Close()
}

// NoopSink drops every event. Used when no NATS URL is configured.
type NoopSink struct{}

// Publish implements Sink.
func (NoopSink) Publish(string, Event) {}

// Close implements Sink.
func (NoopSink) Close() {}

// NatsSink publishes events to a NATS server. The connection is
// established lazily on first publish so a missing broker costs one
// failed dial, logged at debug, instead of failing startup.
type NatsSink struct {
	url string
	log *slog.Logger

	mu     sync.Mutex
	conn   *nats.Conn
	failed bool
}

// NewNatsSink creates a sink for the given NATS URL.
func NewNatsSink(url string, log *slog.Logger) *NatsSink {
	return &NatsSink{
		url: url,
		log: log.With("component", "notify"),
	}
}

// Publish implements Sink. All errors are swallowed after a debug log.
func (s *NatsSink) Publish(subject string, ev Event) {
	conn := s.connect()
	if conn == nil {
		return
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Debug("marshal event failed",
			"subject", subject, "err", err)
		return
	}

	if err := conn.Publish(subject, payload); err != nil {
		s.log.Debug("publish failed",
			"subject", subject, "err", err)
	}
}

// Close implements Sink.
func (s *NatsSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// connect dials the broker once. A failed dial marks the sink dead for
// the rest of the process.
func (s *NatsSink) connect() *nats.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn
	}
	if s.failed {
		return nil
	}

	conn, err := nats.Connect(s.url,
		nats.RetryOnFailedConnect(false),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		s.failed = true
		s.log.Debug("nats connect failed", "url", s.url, "err", err)
		return nil
	}

	s.conn = conn
	return conn
}
