package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	orderapp "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service turns a set of requested listings into an order. Reservation
// and order creation happen in one transaction: stock is decremented for
// every line or for none.
type Service struct {
	scope           TransactionScope
	userRepo        identity.UserRepository
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewService creates a new checkout Service
func NewService(scope TransactionScope, userRepo identity.UserRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:    scope,
		userRepo: userRepo,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// PlaceOrder reserves stock for every requested line and creates the
// order in the same transaction. Duplicate listing ids in the request
// are merged into a single line before anything is locked. Listings are
// always locked in ascending id order so concurrent checkouts cannot
// deadlock each other.
func (s *Service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	lines, err := coalesceLines(req.Lines)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("buyer %s: %w", buyerID, shared.ErrNotFound)
	}

	var created *order.Order
	var events []shared.DomainEvent

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reserved := make([]order.ReservedLine, 0, len(lines))

		for _, line := range lines {
			l, err := repos.ListingRepo().FindByIDForUpdate(ctx, line.ListingID)
			if err != nil {
				return fmt.Errorf("listing %s: %w", line.ListingID, err)
			}

			if err := l.Decrement(line.Quantity); err != nil {
				return fmt.Errorf("listing %s: %w", line.ListingID, err)
			}

			if err := repos.ListingRepo().Save(ctx, l); err != nil {
				return err
			}

			reserved = append(reserved, order.ReservedLine{
				ListingID:    l.ID,
				SellerID:     l.SellerID,
				ProductTitle: l.ProductTitle,
				Quantity:     line.Quantity,
				UnitPrice:    l.UnitPriceMoney(),
			})
			events = append(events, l.GetDomainEvents()...)
			l.ClearDomainEvents()
		}

		o, err := order.NewOrder(buyerID, reserved)
		if err != nil {
			return err
		}
		if req.ShippingAddress != "" {
			if err := o.SetShippingAddress(req.ShippingAddress); err != nil {
				return err
			}
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}

		events = append(events, o.GetDomainEvents()...)
		o.ClearDomainEvents()
		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrOutOfStock) && s.businessMetrics != nil {
			s.businessMetrics.RecordOutOfStockRejection(ctx)
		}
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", created.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.Int("lines", len(created.Items)),
		zap.String("total", created.Total.String()))

	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderWithAmount(ctx, created.Total)
	}

	// Events go out after the transaction commits. Handlers like the
	// cart clearer are best effort and must not undo a placed order.
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish checkout events", zap.Error(err))
		}
	}

	resp := orderapp.ToResponse(created)
	return &resp, nil
}

// coalesceLines merges duplicate listing ids and fixes the lock order.
// Quantities of repeated ids add up; a request for the same listing
// twice behaves exactly like a single line with the summed quantity.
func coalesceLines(lines []LineRequest) ([]LineRequest, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one line")
	}

	merged := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		merged[line.ListingID] += line.Quantity
	}

	out := make([]LineRequest, 0, len(merged))
	for id, qty := range merged {
		out = append(out, LineRequest{ListingID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ListingID[:], out[j].ListingID[:]) < 0
	})
	return out, nil
}
