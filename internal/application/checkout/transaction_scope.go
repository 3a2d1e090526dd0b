package checkout

import (
	"context"

	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/order"
)

// TransactionScope provides transactional access to checkout repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a reservation
// touches. All repositories returned share the same underlying database
// transaction, which is what makes reserve-then-create-order atomic: either
// every listing decrement and the order row commit together, or none do.
type TransactionalRepositories interface {
	// ListingRepo returns the listing repository scoped to the current transaction
	ListingRepo() listing.Repository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	listingRepo listing.Repository
	orderRepo   order.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(listingRepo listing.Repository, orderRepo order.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ListingRepo returns the listing repository.
func (s *NoOpTransactionScope) ListingRepo() listing.Repository {
	return s.listingRepo
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
