package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrency behavior of listing stock updates.
//
// Two checkouts can read the same listing row, each see enough stock,
// and both try to decrement. The version column in the WHERE clause of
// SaveWithLock ensures only the first write lands; the second affects
// zero rows and is mapped to ErrContention so the caller can retry
// against fresh state instead of silently overselling.

func newStockedListing(t *testing.T, quantity int) *listing.Listing {
	t.Helper()
	l, err := listing.NewListing(uuid.New(), uuid.New(), "Vintage Lamp",
		valueobject.NewMoneyEUR(decimal.NewFromFloat(19.99)), quantity, "")
	require.NoError(t, err)
	return l
}

func TestListingConcurrentWriters_SecondWriterLoses(t *testing.T) {
	repo, mock, mockDB := newMockListingRepository(t)
	defer mockDB.Close()

	// Both writers loaded the listing at version 1 and decremented
	// their in-memory copy to version 2.
	first := newStockedListing(t, 5)
	second := *first
	require.NoError(t, first.Decrement(3))
	require.NoError(t, second.Decrement(4))

	// First writer's UPDATE matches version 1 and lands.
	mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second writer's UPDATE also targets version 1, but the row is
	// now at version 2, so no rows match.
	mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SaveWithLock(context.Background(), first))

	err := repo.SaveWithLock(context.Background(), &second)
	assert.ErrorIs(t, err, shared.ErrContention)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingConcurrentWriters_RetryAfterContention(t *testing.T) {
	repo, mock, mockDB := newMockListingRepository(t)
	defer mockDB.Close()

	stale := newStockedListing(t, 5)
	require.NoError(t, stale.Decrement(2))

	mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveWithLock(context.Background(), stale)
	require.ErrorIs(t, err, shared.ErrContention)

	// A retry re-reads the row (now quantity 2 at version 2), applies
	// the decrement against fresh state and succeeds.
	listingID := stale.ID
	rows := sqlmock.NewRows([]string{"id", "product_id", "product_title", "seller_id", "unit_price", "quantity", "active", "version"}).
		AddRow(listingID, stale.ProductID, stale.ProductTitle, stale.SellerID, decimal.NewFromFloat(19.99), 2, true, 2)

	mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
		WithArgs(listingID, 1).
		WillReturnRows(rows)

	fresh, err := repo.FindByIDForUpdate(context.Background(), listingID)
	require.NoError(t, err)
	require.NoError(t, fresh.Decrement(2))

	mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SaveWithLock(context.Background(), fresh))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingOversellPrevention(t *testing.T) {
	t.Run("decrement beyond stock is rejected", func(t *testing.T) {
		l := newStockedListing(t, 3)

		assert.True(t, l.CanFulfill(3))
		assert.False(t, l.CanFulfill(4))

		err := l.Decrement(4)
		assert.ErrorIs(t, err, shared.ErrOutOfStock)
		assert.Equal(t, 3, l.Quantity)
	})

	t.Run("stock never goes negative under sequential drains", func(t *testing.T) {
		l := newStockedListing(t, 5)

		require.NoError(t, l.Decrement(2))
		require.NoError(t, l.Decrement(3))

		assert.Equal(t, 0, l.Quantity)
		assert.False(t, l.Active)
		assert.ErrorIs(t, l.Decrement(1), shared.ErrOutOfStock)
	})

	t.Run("sold out listing cannot fulfill until restocked", func(t *testing.T) {
		l := newStockedListing(t, 1)

		require.NoError(t, l.Decrement(1))
		assert.True(t, l.IsSoldOut())
		assert.False(t, l.CanFulfill(1))

		require.NoError(t, l.Restock(4))
		assert.True(t, l.Active)
		assert.True(t, l.CanFulfill(4))
	})
}

func TestListingVersionBookkeeping(t *testing.T) {
	l := newStockedListing(t, 10)
	require.Equal(t, 1, l.Version)

	require.NoError(t, l.Decrement(1))
	assert.Equal(t, 2, l.Version)

	require.NoError(t, l.Restock(5))
	assert.Equal(t, 3, l.Version)

	require.NoError(t, l.SetQuantity(7))
	assert.Equal(t, 4, l.Version)

	// Failed mutations must not advance the version, otherwise a
	// stale writer could masquerade as current.
	assert.Error(t, l.Decrement(100))
	assert.Equal(t, 4, l.Version)
}
