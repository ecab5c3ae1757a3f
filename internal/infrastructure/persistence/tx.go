package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type txKey struct{}

// withTx attaches a transaction handle to the context so repositories
// participating in the same scope share it.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// dbFrom returns the transaction from ctx if one is active, otherwise
// the given base connection.
func dbFrom(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return base.WithContext(ctx)
}

// GormTransactionScope implements shared.TransactionScope over a GORM
// connection.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a transaction scope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. Repositories invoked
// with the ctx passed to fn join the transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}

// RetryingTransactionScope wraps a transaction scope and retries the
// whole transaction on transient database errors (deadlocks,
// serialization failures, dropped connections). Each attempt is a fresh
// transaction; a failed attempt leaves no partial writes.
type RetryingTransactionScope struct {
	inner    *GormTransactionScope
	attempts int
	backoff  time.Duration
}

// NewRetryingTransactionScope creates a retrying scope with the given
// attempt budget.
func NewRetryingTransactionScope(db *gorm.DB, attempts int) *RetryingTransactionScope {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingTransactionScope{
		inner:    NewGormTransactionScope(db),
		attempts: attempts,
		backoff:  50 * time.Millisecond,
	}
}

// Execute runs fn, retrying on transient errors up to the attempt budget
func (s *RetryingTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff << uint(attempt-1)):
			}
		}

		err = s.inner.Execute(ctx, fn)
		if err == nil || !IsTransientError(err) {
			return err
		}
	}
	return err
}

// Transient Postgres error classes: serialization failure, deadlock,
// connection exceptions.
var transientSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"57P03": true, // cannot_connect_now
}

// IsTransientError reports whether a database error is worth retrying
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Code]
	}

	msg := err.Error()
	for state := range transientSQLStates {
		if strings.Contains(msg, state) {
			return true
		}
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe")
}
