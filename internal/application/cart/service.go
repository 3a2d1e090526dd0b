package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages a buyer's cart. The cart is a scratchpad: it holds no
// reservation, and stock checks here are advisory. Checkout is where
// stock is actually claimed.
type Service struct {
	cartRepo    cart.Repository
	listingRepo listing.Repository
	logger      *zap.Logger
}

// NewService creates a new cart Service
func NewService(cartRepo cart.Repository, listingRepo listing.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cartRepo:    cartRepo,
		listingRepo: listingRepo,
		logger:      logger,
	}
}

// Get returns the buyer's cart with current listing details
func (s *Service) Get(ctx context.Context, buyerID uuid.UUID) (*Response, error) {
	items, err := s.cartRepo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		BuyerID: buyerID,
		Items:   make([]ItemResponse, 0, len(items)),
		Total:   decimal.Zero,
	}

	for i := range items {
		item := &items[i]
		l, err := s.listingRepo.FindByID(ctx, item.ListingID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// The listing was removed; show the line as unavailable.
				resp.Items = append(resp.Items, ItemResponse{
					ID:        item.ID,
					ListingID: item.ListingID,
					Quantity:  item.Quantity,
					AddedAt:   item.AddedAt,
				})
				continue
			}
			return nil, err
		}

		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		available := l.CanFulfill(item.Quantity)
		resp.Items = append(resp.Items, ItemResponse{
			ID:           item.ID,
			ListingID:    l.ID,
			ProductTitle: l.ProductTitle,
			UnitPrice:    l.UnitPrice,
			Quantity:     item.Quantity,
			Subtotal:     subtotal,
			Available:    available,
			AddedAt:      item.AddedAt,
		})
		if available {
			resp.Total = resp.Total.Add(subtotal)
		}
	}

	return resp, nil
}

// AddItem puts a listing into the cart. Adding a listing that is already
// in the cart merges quantities. The combined quantity must be coverable
// by current stock.
func (s *Service) AddItem(ctx context.Context, buyerID uuid.UUID, req AddItemRequest) (*Response, error) {
	l, err := s.listingRepo.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", req.ListingID, err)
	}

	existing, err := s.cartRepo.FindByBuyerAndListing(ctx, buyerID, req.ListingID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	requested := req.Quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if !l.CanFulfill(requested) {
		return nil, fmt.Errorf("listing %s: %w", req.ListingID, shared.ErrOutOfStock)
	}

	if existing != nil {
		if err := existing.IncreaseQuantity(req.Quantity); err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		item, err := cart.NewCartItem(buyerID, req.ListingID, req.Quantity)
		if err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, item); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Cart item added",
		zap.String("buyer_id", buyerID.String()),
		zap.String("listing_id", req.ListingID.String()),
		zap.Int("quantity", req.Quantity))

	return s.Get(ctx, buyerID)
}

// UpdateItem sets the quantity of a cart item the buyer owns
func (s *Service) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req UpdateItemRequest) (*Response, error) {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.BuyerID != buyerID {
		return nil, shared.ErrForbidden
	}

	l, err := s.listingRepo.FindByID(ctx, item.ListingID)
	if err != nil {
		return nil, err
	}
	if !l.CanFulfill(req.Quantity) {
		return nil, fmt.Errorf("listing %s: %w", item.ListingID, shared.ErrOutOfStock)
	}

	if err := item.SetQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	return s.Get(ctx, buyerID)
}

// RemoveItem deletes a cart item the buyer owns
func (s *Service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.BuyerID != buyerID {
		return shared.ErrForbidden
	}
	return s.cartRepo.Delete(ctx, itemID)
}

// Clear empties the buyer's cart
func (s *Service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return s.cartRepo.DeleteByBuyer(ctx, buyerID)
}
