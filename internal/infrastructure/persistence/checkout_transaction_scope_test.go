package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockTransactionScope(t *testing.T) (*GormTransactionScope, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return NewGormTransactionScope(gormDB), mock, mockDB
}

func TestGormTransactionScope_SetsLockTimeout(t *testing.T) {
	scope, mock, mockDB := newMockTransactionScope(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := scope.Execute(context.Background(), func(repos checkout.TransactionalRepositories) error {
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_LockTimeoutSurfacesAsContention(t *testing.T) {
	scope, mock, mockDB := newMockTransactionScope(t)
	defer mockDB.Close()

	listingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: pgCodeLockNotAvailable})
	mock.ExpectRollback()

	err := scope.Execute(context.Background(), func(repos checkout.TransactionalRepositories) error {
		_, err := repos.ListingRepo().FindByIDForUpdate(context.Background(), listingID)
		return err
	})

	assert.ErrorIs(t, err, shared.ErrContention)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateLockError(t *testing.T) {
	t.Run("maps lock race error codes to contention", func(t *testing.T) {
		for _, code := range []string{pgCodeLockNotAvailable, pgCodeDeadlockDetected, pgCodeSerializationFailure} {
			err := translateLockError(&pgconn.PgError{Code: code})
			assert.ErrorIs(t, err, shared.ErrContention, "code %s", code)
		}
	})

	t.Run("passes other errors through unchanged", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, translateLockError(plain))

		pgErr := &pgconn.PgError{Code: "23505"}
		assert.Equal(t, error(pgErr), translateLockError(pgErr))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateLockError(nil))
	})
}
