package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]cart.CartItem, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*cart.CartItem, error) {
	args := m.Called(ctx, buyerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, item *cart.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error {
	args := m.Called(ctx, buyerID)
	return args.Error(0)
}

func newOrderCreatedEvent(t *testing.T, buyerID uuid.UUID, listingIDs ...uuid.UUID) *order.OrderCreatedEvent {
	t.Helper()
	price, err := valueobject.NewMoneyEURFromString("10.00")
	assert.NoError(t, err)
	lines := make([]order.ReservedLine, len(listingIDs))
	for i, id := range listingIDs {
		lines[i] = order.ReservedLine{
			ListingID:    id,
			SellerID:     uuid.New(),
			ProductTitle: "Used monitor",
			Quantity:     1,
			UnitPrice:    price,
		}
	}
	o, err := order.NewOrder(buyerID, lines)
	assert.NoError(t, err)
	return order.NewOrderCreatedEvent(o)
}

func TestCartClearHandler_Handle(t *testing.T) {
	buyerID := uuid.New()

	t.Run("removes purchased listings from the cart", func(t *testing.T) {
		repo := new(MockCartRepository)
		handler := NewCartClearHandler(repo, zap.NewNop())

		listingID := uuid.New()
		item, err := cart.NewCartItem(buyerID, listingID, 1)
		assert.NoError(t, err)

		repo.On("FindByBuyerAndListing", mock.Anything, buyerID, listingID).Return(item, nil)
		repo.On("Delete", mock.Anything, item.ID).Return(nil)

		err = handler.Handle(context.Background(), newOrderCreatedEvent(t, buyerID, listingID))

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("listings absent from the cart are skipped", func(t *testing.T) {
		repo := new(MockCartRepository)
		handler := NewCartClearHandler(repo, zap.NewNop())

		listingID := uuid.New()
		repo.On("FindByBuyerAndListing", mock.Anything, buyerID, listingID).Return(nil, shared.ErrNotFound)

		err := handler.Handle(context.Background(), newOrderCreatedEvent(t, buyerID, listingID))

		assert.NoError(t, err)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("delete failures do not fail the handler", func(t *testing.T) {
		repo := new(MockCartRepository)
		handler := NewCartClearHandler(repo, zap.NewNop())

		listingID := uuid.New()
		item, err := cart.NewCartItem(buyerID, listingID, 2)
		assert.NoError(t, err)

		repo.On("FindByBuyerAndListing", mock.Anything, buyerID, listingID).Return(item, nil)
		repo.On("Delete", mock.Anything, item.ID).Return(errors.New("connection reset"))

		err = handler.Handle(context.Background(), newOrderCreatedEvent(t, buyerID, listingID))

		assert.NoError(t, err)
	})

	t.Run("rejects foreign event types", func(t *testing.T) {
		repo := new(MockCartRepository)
		handler := NewCartClearHandler(repo, zap.NewNop())

		price, _ := valueobject.NewMoneyEURFromString("10.00")
		o, err := order.NewOrder(buyerID, []order.ReservedLine{{
			ListingID:    uuid.New(),
			SellerID:     uuid.New(),
			ProductTitle: "Used monitor",
			Quantity:     1,
			UnitPrice:    price,
		}})
		assert.NoError(t, err)
		wrongEvent := order.NewOrderStatusChangedEvent(o, order.StatusCreated, order.StatusCancelled, order.ActorBuyer)

		err = handler.Handle(context.Background(), wrongEvent)

		assert.Error(t, err)
	})
}
