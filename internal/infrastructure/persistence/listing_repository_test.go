package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockListingRepository creates a GormListingRepository with a mocked SQL connection
func newMockListingRepository(t *testing.T) (*GormListingRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormListingRepository(gormDB), mock, mockDB
}

func TestGormListingRepository_FindByID(t *testing.T) {
	t.Run("finds existing listing", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()
		sellerID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "product_title", "seller_id", "unit_price", "quantity", "active", "version"}).
			AddRow(listingID, productID, "Vintage Lamp", sellerID, decimal.NewFromFloat(19.99), 5, true, 1)

		mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(listingID, 1).
			WillReturnRows(rows)

		l, err := repo.FindByID(context.Background(), listingID)

		assert.NoError(t, err)
		require.NotNil(t, l)
		assert.Equal(t, listingID, l.ID)
		assert.Equal(t, "Vintage Lamp", l.ProductTitle)
		assert.Equal(t, 5, l.Quantity)
		assert.True(t, l.Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing listing to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(listingID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		l, err := repo.FindByID(context.Background(), listingID)

		assert.Nil(t, l)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormListingRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("acquires a row lock", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "product_title", "seller_id", "unit_price", "quantity", "active", "version"}).
			AddRow(listingID, uuid.New(), "Vintage Lamp", uuid.New(), decimal.NewFromFloat(19.99), 5, true, 1)

		mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(listingID, 1).
			WillReturnRows(rows)

		l, err := repo.FindByIDForUpdate(context.Background(), listingID)

		assert.NoError(t, err)
		require.NotNil(t, l)
		assert.Equal(t, listingID, l.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing listing to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs(listingID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForUpdate(context.Background(), listingID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormListingRepository_SaveWithLock(t *testing.T) {
	newListing := func(t *testing.T) *listing.Listing {
		t.Helper()
		l, err := listing.NewListing(uuid.New(), uuid.New(), "Vintage Lamp", valueobject.NewMoneyEUR(decimal.NewFromFloat(19.99)), 5, "")
		require.NoError(t, err)
		return l
	}

	t.Run("updates when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		l := newListing(t)
		require.NoError(t, l.Decrement(2)) // bumps version to 2

		mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), l)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version surfaces as contention", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		l := newListing(t)
		require.NoError(t, l.Decrement(2))

		mock.ExpectExec(`UPDATE "listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), l)

		assert.ErrorIs(t, err, shared.ErrContention)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormListingRepository_Delete(t *testing.T) {
	t.Run("deletes existing listing", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()

		mock.ExpectExec(`DELETE FROM "listings" WHERE id = \$1`).
			WithArgs(listingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), listingID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing listing maps to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listingID := uuid.New()

		mock.ExpectExec(`DELETE FROM "listings" WHERE id = \$1`).
			WithArgs(listingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), listingID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormListingRepository_FindActive(t *testing.T) {
	t.Run("filters on active flag", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "product_id", "product_title", "seller_id", "unit_price", "quantity", "active", "version"}).
			AddRow(uuid.New(), uuid.New(), "Vintage Lamp", uuid.New(), decimal.NewFromFloat(19.99), 5, true, 1).
			AddRow(uuid.New(), uuid.New(), "Desk Chair", uuid.New(), decimal.NewFromFloat(45.00), 1, true, 1)

		mock.ExpectQuery(`SELECT \* FROM "listings" WHERE active = \$1 .*ORDER BY created_at DESC`).
			WillReturnRows(rows)

		listings, err := repo.FindActive(context.Background(), shared.DefaultFilter())

		assert.NoError(t, err)
		assert.Len(t, listings, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
