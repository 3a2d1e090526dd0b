package checkout

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockListingRepository is a mock implementation of listing.Repository.
// It records the order of FindByIDForUpdate calls so tests can assert
// the lock ordering.
type MockListingRepository struct {
	mock.Mock
	lockedIDs []uuid.UUID
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	m.lockedIDs = append(m.lockedIDs, id)
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]listing.Listing, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindActive(ctx context.Context, filter shared.Filter) ([]listing.Listing, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]listing.Listing, error) {
	args := m.Called(ctx, sellerID, filter)
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]listing.Listing, error) {
	args := m.Called(ctx, productID, filter)
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, l *listing.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) SaveWithLock(ctx context.Context, l *listing.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, buyerID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status order.Status, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CountByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func newCheckoutFixture() (*Service, *MockListingRepository, *MockOrderRepository, *MockUserRepository) {
	listingRepo := new(MockListingRepository)
	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	scope := NewNoOpTransactionScope(listingRepo, orderRepo)
	return NewService(scope, userRepo, zap.NewNop()), listingRepo, orderRepo, userRepo
}

func createTestListing(t *testing.T, price string, quantity int) *listing.Listing {
	t.Helper()
	unitPrice, err := valueobject.NewMoneyEURFromString(price)
	assert.NoError(t, err)
	l, err := listing.NewListing(uuid.New(), uuid.New(), "Used camera lens", unitPrice, quantity, "light scratches")
	assert.NoError(t, err)
	l.ClearDomainEvents()
	return l
}

func TestService_PlaceOrder(t *testing.T) {
	buyerID := uuid.New()

	t.Run("reserves stock and creates the order", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		l := createTestListing(t, "19.99", 5)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)
		listingRepo.On("Save", mock.Anything, l).Return(nil)
		orderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: l.ID, Quantity: 3}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, l.Quantity)
		assert.Equal(t, "CREATED", resp.Status)
		assert.Equal(t, "59.97", resp.Total.String())
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, l.ID, resp.Items[0].ListingID)
	})

	t.Run("merges duplicate listing ids into one line", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		l := createTestListing(t, "10.00", 10)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)
		listingRepo.On("Save", mock.Anything, l).Return(nil)
		orderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{
				{ListingID: l.ID, Quantity: 2},
				{ListingID: l.ID, Quantity: 3},
			},
		})

		assert.NoError(t, err)
		listingRepo.AssertNumberOfCalls(t, "FindByIDForUpdate", 1)
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, 5, resp.Items[0].Quantity)
		assert.Equal(t, 5, l.Quantity)
		assert.Equal(t, "50.00", resp.Total.StringFixed(2))
	})

	t.Run("merged duplicates exceeding stock fail as one line", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		l := createTestListing(t, "10.00", 4)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{
				{ListingID: l.ID, Quantity: 2},
				{ListingID: l.ID, Quantity: 3},
			},
		})

		assert.ErrorIs(t, err, shared.ErrOutOfStock)
		assert.Equal(t, 4, l.Quantity)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("out of stock on any line creates no order", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		inStock := createTestListing(t, "5.00", 10)
		scarce := createTestListing(t, "7.00", 1)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, inStock.ID).Return(inStock, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, scarce.ID).Return(scarce, nil)
		listingRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{
				{ListingID: inStock.ID, Quantity: 2},
				{ListingID: scarce.ID, Quantity: 2},
			},
		})

		assert.ErrorIs(t, err, shared.ErrOutOfStock)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive listing reads as out of stock", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		l := createTestListing(t, "10.00", 5)
		l.Deactivate()

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: l.ID, Quantity: 1}},
		})

		assert.ErrorIs(t, err, shared.ErrOutOfStock)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("locks listings in ascending id order", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		a := createTestListing(t, "1.00", 10)
		b := createTestListing(t, "2.00", 10)
		c := createTestListing(t, "3.00", 10)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		for _, l := range []*listing.Listing{a, b, c} {
			listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)
		}
		listingRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		orderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{
				{ListingID: c.ID, Quantity: 1},
				{ListingID: a.ID, Quantity: 1},
				{ListingID: b.ID, Quantity: 1},
			},
		})

		assert.NoError(t, err)
		assert.Len(t, listingRepo.lockedIDs, 3)
		for i := 1; i < len(listingRepo.lockedIDs); i++ {
			prev, cur := listingRepo.lockedIDs[i-1], listingRepo.lockedIDs[i]
			assert.Negative(t, bytes.Compare(prev[:], cur[:]))
		}
	})

	t.Run("unknown buyer is rejected before locking", func(t *testing.T) {
		svc, listingRepo, _, userRepo := newCheckoutFixture()
		userRepo.On("Exists", mock.Anything, buyerID).Return(false, nil)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: uuid.New(), Quantity: 1}},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		listingRepo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("unknown listing is rejected", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		missing := uuid.New()

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, missing).Return(nil, shared.ErrNotFound)

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: missing, Quantity: 1}},
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty and non-positive lines", func(t *testing.T) {
		svc, _, _, _ := newCheckoutFixture()

		_, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{})
		assert.Error(t, err)

		_, err = svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: uuid.New(), Quantity: 0}},
		})
		assert.Error(t, err)
	})

	t.Run("snapshots the price at reservation time", func(t *testing.T) {
		svc, listingRepo, orderRepo, userRepo := newCheckoutFixture()
		l := createTestListing(t, "25.00", 5)

		userRepo.On("Exists", mock.Anything, buyerID).Return(true, nil)
		listingRepo.On("FindByIDForUpdate", mock.Anything, l.ID).Return(l, nil)
		listingRepo.On("Save", mock.Anything, l).Return(nil)
		orderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{
			Lines: []LineRequest{{ListingID: l.ID, Quantity: 1}},
		})
		assert.NoError(t, err)

		newPrice, _ := valueobject.NewMoneyEURFromString("99.00")
		assert.NoError(t, l.ChangePrice(newPrice))
		assert.Equal(t, "25", resp.Items[0].UnitPrice.String())
	})
}

func TestCoalesceLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	lines, err := coalesceLines([]LineRequest{
		{ListingID: a, Quantity: 1},
		{ListingID: b, Quantity: 2},
		{ListingID: a, Quantity: 4},
	})

	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	quantities := map[uuid.UUID]int{}
	for _, l := range lines {
		quantities[l.ListingID] = l.Quantity
	}
	assert.Equal(t, 5, quantities[a])
	assert.Equal(t, 2, quantities[b])
	if len(lines) == 2 {
		assert.Negative(t, bytes.Compare(lines[0].ListingID[:], lines[1].ListingID[:]))
	}
}
