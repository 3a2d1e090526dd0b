package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// checkoutLockTimeout bounds how long a checkout transaction waits on a
// contended listing row before giving up with a retryable error.
const checkoutLockTimeout = 3 * time.Second

// Postgres error codes that signal the transaction lost a lock race.
const (
	pgCodeLockNotAvailable     = "55P03"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeSerializationFailure = "40001"
)

// GormTransactionScope implements checkout.TransactionScope using GORM
// transactions. Stock decrements and order creation run against the
// same transaction, so either all lines are reserved or none are.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Lock waits are bounded by checkoutLockTimeout; a timed-out or
// deadlocked transaction surfaces as shared.ErrContention so the caller
// can retry the whole request.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos checkout.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SET LOCAL is scoped to this transaction and resets on
		// commit or rollback.
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", checkoutLockTimeout.Milliseconds())
		if err := tx.Exec(timeout).Error; err != nil {
			return err
		}
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
	return translateLockError(err)
}

// translateLockError maps lock wait timeouts, deadlocks and
// serialization failures to the retryable contention error. Everything
// else passes through unchanged.
func translateLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeLockNotAvailable, pgCodeDeadlockDetected, pgCodeSerializationFailure:
			return fmt.Errorf("%w: %v", shared.ErrContention, err)
		}
	}
	return err
}

// gormTransactionalRepositories provides access to repositories scoped
// to the current transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ListingRepo returns the listing repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ListingRepo() listing.Repository {
	return NewGormListingRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ checkout.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ checkout.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
