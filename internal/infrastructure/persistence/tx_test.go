package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	scope := NewGormTransactionScope(db)
	wantErr := errors.New("boom")

	err := scope.Execute(context.Background(), func(ctx context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_CommitsOnSuccess(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	scope := NewGormTransactionScope(db)

	err := scope.Execute(context.Background(), func(ctx context.Context) error {
		// Repositories called with this ctx would share the transaction
		_, ok := ctx.Value(txKey{}).(*gorm.DB)
		assert.True(t, ok)
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryingTransactionScope(t *testing.T) {
	t.Run("retries transient errors until success", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		scope := NewRetryingTransactionScope(db, 3)
		scope.backoff = 0

		attempts := 0
		err := scope.Execute(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				return &pgconn.PgError{Code: "40001"}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not retry fatal errors", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		scope := NewRetryingTransactionScope(db, 3)
		scope.backoff = 0

		attempts := 0
		wantErr := errors.New("constraint violated")
		err := scope.Execute(context.Background(), func(ctx context.Context) error {
			attempts++
			return wantErr
		})

		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		for i := 0; i < 2; i++ {
			mock.ExpectBegin()
			mock.ExpectRollback()
		}

		scope := NewRetryingTransactionScope(db, 2)
		scope.backoff = 0

		attempts := 0
		err := scope.Execute(context.Background(), func(ctx context.Context) error {
			attempts++
			return &pgconn.PgError{Code: "40P01"}
		})

		assert.Error(t, err)
		assert.Equal(t, 2, attempts)
	})
}

func TestIsTransientError(t *testing.T) {
	assert.False(t, IsTransientError(nil))
	assert.False(t, IsTransientError(errors.New("unique constraint")))
	assert.True(t, IsTransientError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransientError(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransientError(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransientError(&pgconn.PgError{Code: "23505"}))
}
