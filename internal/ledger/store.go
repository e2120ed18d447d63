package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roasbeef/skillreflect/internal/db"
	"github.com/roasbeef/skillreflect/internal/db/sqlc"
)

// Store is the deduplication ledger plus its audit history, backed by one
// SQLite database. The ledger half answers "have we seen this fingerprint";
// the history half answers "show me everything that ever happened". The two
// are always written in the same transaction: a history row with no ledger
// row (or the reverse) would reproduce the re-detection bug the ledger
// exists to prevent.
type Store struct {
	db *db.Store
}

// NewStore creates a ledger store over the given database.
func NewStore(dbStore *db.Store) *Store {
	return &Store{db: dbStore}
}

// RecordParams describes a signal resolution to be recorded.
type RecordParams struct {
	Fingerprint       string
	SessionID         string
	SignalKind        string
	SkillName         string
	RawText           string
	Confidence        string
	ChangeDescription string
	Rationale         string
	Outcome           Outcome
	ReviewedBy        string
}

// IsNew reports whether a fingerprint has never been recorded. Pending
// entries count as seen: they await a human decision and must not be
// re-analyzed.
func (s *Store) IsNew(ctx context.Context, fingerprint string) (bool, error) {
	_, err := s.Get(ctx, fingerprint)
	switch {
	case errors.Is(err, ErrEntryNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}

// Get retrieves the ledger entry for a fingerprint.
func (s *Store) Get(ctx context.Context, fingerprint string) (Entry, error) {
	var entry Entry

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		row, err := q.GetLedgerEntry(ctx, fingerprint)
		if err != nil {
			return err
		}

		entry = entryFromSqlc(row)

		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get ledger entry: %w", err)
	}

	return entry, nil
}

// Record durably records a signal resolution. The insert is atomic
// insert-if-absent: when two runs race on the same fingerprint, exactly one
// insert wins and the loser observes the winner's entry. Recording the same
// outcome twice is a no-op; recording a different outcome against an
// existing entry returns TerminalConflictError. Terminal outcomes also get
// a history row in the same transaction.
//
// The returned bool is true iff this call created the entry: for applied
// outcomes it is the claim that authorizes the caller to perform the skill
// document mutation exactly once.
func (s *Store) Record(
	ctx context.Context, params RecordParams,
) (Entry, bool, error) {
	if !params.Outcome.Valid() {
		return Entry{}, false, fmt.Errorf("%w: %q", ErrInvalidOutcome,
			params.Outcome)
	}

	now := time.Now()

	entry, err := s.insertEntry(ctx, params, now)
	if err == nil {
		return entry, true, nil
	}

	// Any error other than a unique violation is a real failure.
	if !db.IsUniqueConstraintError(err) {
		return Entry{}, false, fmt.Errorf("record ledger entry: %w",
			err)
	}

	// Unique violation: someone recorded this fingerprint first. Trust
	// the existing entry.
	existing, getErr := s.Get(ctx, params.Fingerprint)
	if getErr != nil {
		return Entry{}, false, fmt.Errorf(
			"fetch existing ledger entry: %w", getErr,
		)
	}

	if existing.Outcome == params.Outcome {
		// Idempotent re-record: no-op.
		return existing, false, nil
	}

	return existing, false, &TerminalConflictError{
		Fingerprint: params.Fingerprint,
		Existing:    existing.Outcome,
		Attempted:   params.Outcome,
	}
}

// insertEntry inserts the ledger entry and, for terminal outcomes, the
// matching history row in one transaction.
func (s *Store) insertEntry(
	ctx context.Context, params RecordParams, now time.Time,
) (Entry, error) {
	var entry Entry

	err := s.db.WithTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		resolvedAt := sql.NullInt64{}
		if params.Outcome.IsTerminal() {
			resolvedAt = sql.NullInt64{
				Int64: now.Unix(),
				Valid: true,
			}
		}

		row, err := q.InsertLedgerEntry(ctx, sqlc.InsertLedgerEntryParams{
			Fingerprint:       params.Fingerprint,
			SessionID:         params.SessionID,
			SignalKind:        params.SignalKind,
			SkillName:         toNullString(params.SkillName),
			RawText:           params.RawText,
			Confidence:        params.Confidence,
			ChangeDescription: params.ChangeDescription,
			Rationale:         params.Rationale,
			Outcome:           string(params.Outcome),
			ReviewedBy:        params.ReviewedBy,
			CreatedAt:         now.Unix(),
			ResolvedAt:        resolvedAt,
		})
		if err != nil {
			return err
		}
		entry = entryFromSqlc(row)

		if !params.Outcome.IsTerminal() {
			return nil
		}

		_, err = q.InsertSkillReflection(ctx, sqlc.InsertSkillReflectionParams{
			Fingerprint: params.Fingerprint,
			SkillName:   params.SkillName,
			Confidence:  params.Confidence,
			Outcome:     string(params.Outcome),
			ReviewedBy:  params.ReviewedBy,
			AppliedAt:   now.Unix(),
		})
		if err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}

		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ResolvePending transitions a pending_review entry to a terminal outcome,
// exactly once. The guarded UPDATE only matches rows still pending, so two
// racing resolvers cannot both succeed. The history row is written in the
// same transaction.
func (s *Store) ResolvePending(
	ctx context.Context, fingerprint string, outcome Outcome,
	reviewedBy string,
) (Entry, error) {
	if !outcome.IsTerminal() {
		return Entry{}, fmt.Errorf("%w: %q is not terminal",
			ErrInvalidOutcome, outcome)
	}

	now := time.Now()

	var resolved Entry
	err := s.db.WithTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		rows, err := q.ResolveLedgerEntry(ctx, sqlc.ResolveLedgerEntryParams{
			Outcome:    string(outcome),
			ReviewedBy: reviewedBy,
			ResolvedAt: sql.NullInt64{
				Int64: now.Unix(),
				Valid: true,
			},
			Fingerprint: fingerprint,
		})
		if err != nil {
			return err
		}

		if rows == 0 {
			// Either the entry doesn't exist or it is no longer
			// pending; disambiguate for the caller.
			_, err := q.GetLedgerEntry(ctx, fingerprint)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEntryNotFound
			}
			if err != nil {
				return err
			}

			return ErrNotPending
		}

		row, err := q.GetLedgerEntry(ctx, fingerprint)
		if err != nil {
			return err
		}
		resolved = entryFromSqlc(row)

		_, err = q.InsertSkillReflection(ctx, sqlc.InsertSkillReflectionParams{
			Fingerprint: fingerprint,
			SkillName:   resolved.SkillName,
			Confidence:  resolved.Confidence,
			Outcome:     string(outcome),
			ReviewedBy:  reviewedBy,
			AppliedAt:   now.Unix(),
		})
		if err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}

		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return resolved, nil
}

// ListPending returns all entries awaiting human review, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		rows, err := q.ListLedgerEntriesByOutcome(
			ctx, string(OutcomePendingReview),
		)
		if err != nil {
			return err
		}

		entries = make([]Entry, len(rows))
		for i, row := range rows {
			entries[i] = entryFromSqlc(row)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of ledger entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		var err error
		count, err = q.CountLedgerEntries(ctx)
		return err
	})

	return count, err
}

// HistoryBySkill returns terminal resolutions for one skill since the given
// time, most recent first.
func (s *Store) HistoryBySkill(
	ctx context.Context, skillName string, since time.Time,
) ([]HistoryRecord, error) {
	var records []HistoryRecord

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		rows, err := q.ListReflectionsBySkill(
			ctx, sqlc.ListReflectionsBySkillParams{
				SkillName: skillName,
				AppliedAt: since.Unix(),
			},
		)
		if err != nil {
			return err
		}

		records = make([]HistoryRecord, len(rows))
		for i, row := range rows {
			records[i] = historyFromSqlc(row)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history by skill: %w", err)
	}

	return records, nil
}

// RecentHistory returns terminal resolutions across all skills since the
// given time, most recent first.
func (s *Store) RecentHistory(
	ctx context.Context, since time.Time, limit int,
) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []HistoryRecord

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		rows, err := q.ListRecentReflections(
			ctx, sqlc.ListRecentReflectionsParams{
				AppliedAt: since.Unix(),
				Limit:     int64(limit),
			},
		)
		if err != nil {
			return err
		}

		records = make([]HistoryRecord, len(rows))
		for i, row := range rows {
			records[i] = historyFromSqlc(row)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recent history: %w", err)
	}

	return records, nil
}

// OutcomeCounts returns per-outcome totals since the given time, for run
// reporting.
func (s *Store) OutcomeCounts(
	ctx context.Context, since time.Time,
) (map[Outcome]int64, error) {
	counts := make(map[Outcome]int64)

	err := s.db.WithReadTx(ctx, func(
		ctx context.Context, q *sqlc.Queries,
	) error {
		rows, err := q.GetOutcomeCounts(ctx, since.Unix())
		if err != nil {
			return err
		}

		for _, row := range rows {
			counts[Outcome(row.Outcome)] = row.Count
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get outcome counts: %w", err)
	}

	return counts, nil
}

// toNullString converts a string to sql.NullString, treating empty strings
// as NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}
