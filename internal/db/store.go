package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	prand "math/rand"
	"time"

	"github.com/roasbeef/skillreflect/internal/db/sqlc"
)

const (
	// DefaultNumTxRetries is the default number of times we'll retry a
	// transaction if it fails with an error that permits transaction
	// repetition.
	DefaultNumTxRetries = 10

	// DefaultInitialRetryDelay is the default initial delay between
	// retries. This will be used to generate a random delay between -50%
	// and +50% of this value, so 20 to 60 milliseconds. The retry will be
	// doubled after each attempt until we reach DefaultMaxRetryDelay.
	DefaultInitialRetryDelay = time.Millisecond * 40

	// DefaultMaxRetryDelay is the default maximum delay between retries.
	DefaultMaxRetryDelay = time.Second * 3
)

// Store wraps the sqlc Queries with transaction support and retry handling
// for busy/locked sqlite errors.
type Store struct {
	db      *sql.DB
	queries *sqlc.Queries
	log     *slog.Logger
}

// NewStore creates a new Store instance wrapping the given database
// connection.
func NewStore(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		db:      db,
		queries: sqlc.New(db),
		log:     log.With("component", "db"),
	}
}

// Queries returns the underlying sqlc Queries for direct access to generated
// query methods.
func (s *Store) Queries() *sqlc.Queries {
	return s.queries
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TxFunc is the function signature for transaction callbacks. The callback
// receives a Queries instance bound to the transaction.
type TxFunc func(ctx context.Context, q *sqlc.Queries) error

// WithTx executes the given function within a writable database transaction.
// Transactions that fail with a serialization or deadlock error are retried
// with a randomized exponential backoff, up to DefaultNumTxRetries attempts.
func (s *Store) WithTx(ctx context.Context, fn TxFunc) error {
	return s.execTx(ctx, false, fn)
}

// WithReadTx executes the given function within a read-only database
// transaction, with the same retry semantics as WithTx.
func (s *Store) WithReadTx(ctx context.Context, fn TxFunc) error {
	return s.execTx(ctx, true, fn)
}

// execTx runs fn inside a transaction, retrying on transient sqlite
// busy/locked errors.
func (s *Store) execTx(ctx context.Context, readOnly bool, fn TxFunc) error {
	for attempt := 0; attempt < DefaultNumTxRetries; attempt++ {
		err := s.tryTx(ctx, readOnly, fn)
		if err == nil {
			return nil
		}

		dbErr := MapSQLError(err)
		if !IsSerializationOrDeadlockError(dbErr) {
			return dbErr
		}

		retryDelay := randRetryDelay(attempt)
		s.log.DebugContext(
			ctx, "Retrying transaction due to tx serialization "+
				"or deadlock error",
			"attempt_number", attempt,
			"delay", retryDelay,
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// If we get to this point, then we weren't able to successfully
	// commit a tx given the max number of retries.
	return ErrRetriesExceeded
}

// tryTx performs a single transaction attempt.
func (s *Store) tryTx(ctx context.Context, readOnly bool, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Rollback is safe to call even if the tx is already closed, so if
	// the tx commits successfully, this is a no-op.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, sqlc.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// randRetryDelay returns a random retry delay between -50% and +50% of the
// initial delay that is doubled for each attempt and capped at a max value.
func randRetryDelay(attempt int) time.Duration {
	halfDelay := DefaultInitialRetryDelay / 2
	randDelay := prand.Int63n(int64(DefaultInitialRetryDelay)) //nolint:gosec

	// 50% plus 0%-100% gives us the range of 50%-150%.
	initialDelay := halfDelay + time.Duration(randDelay)

	// If this is the first attempt, we just return the initial delay.
	if attempt == 0 {
		return initialDelay
	}

	// For each subsequent delay, we double the initial delay. This still
	// gives us a somewhat random delay, but it still increases with each
	// attempt.
	factor := time.Duration(math.Pow(2, math.Min(float64(attempt), 32)))
	actualDelay := initialDelay * factor //nolint:durationcheck

	if actualDelay > DefaultMaxRetryDelay {
		return DefaultMaxRetryDelay
	}

	return actualDelay
}
