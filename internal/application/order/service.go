package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Caller identifies the authenticated user driving an operation
type Caller struct {
	UserID uuid.UUID
	Role   identity.Role
}

// Service handles order reads, lifecycle transitions and payment intents.
// Order creation itself belongs to the checkout service.
type Service struct {
	orderRepo       order.Repository
	gateway         payment.Gateway
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewService creates a new order Service
func NewService(orderRepo order.Repository, gateway payment.Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
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

// GetByID retrieves an order, scoped to the requesting buyer unless the
// caller is a seller on the order or an admin.
func (s *Service) GetByID(ctx context.Context, caller Caller, orderID uuid.UUID) (*Response, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !s.canView(caller, o) {
		return nil, shared.ErrForbidden
	}

	resp := ToResponse(o)
	return &resp, nil
}

// ListByBuyer retrieves the caller's orders, newest first. Admins may
// list any buyer's orders.
func (s *Service) ListByBuyer(ctx context.Context, caller Caller, buyerID uuid.UUID, filter ListFilter) ([]Response, error) {
	if caller.UserID != buyerID && caller.Role != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}

	orders, err := s.orderRepo.FindByBuyer(ctx, buyerID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToResponseList(orders), nil
}

// Transition moves an order to the target status on behalf of the
// caller. Illegal transitions and unauthorized actors fail without
// mutating the order.
func (s *Service) Transition(ctx context.Context, caller Caller, orderID uuid.UUID, target order.Status) (*Response, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(caller, o)
	if err != nil {
		return nil, err
	}

	if err := o.Transition(target, actor); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("status", o.Status.String()),
		zap.String("actor", string(actor)))

	s.publishEvents(ctx, o)

	resp := ToResponse(o)
	return &resp, nil
}

// MarkPaid records a payment confirmation for an order. This is the
// system-side path driven by the payment provider, not a user action.
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string) (*Response, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.MarkPaid(paymentIntentID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(ctx, telemetry.PaymentStatusSuccess)
	}

	s.publishEvents(ctx, o)

	resp := ToResponse(o)
	return &resp, nil
}

// CreatePaymentIntent registers a payment intent with the gateway and
// returns the client secret. The order, when referenced, records the
// intent id but keeps its status: intent creation is not a payment.
// Gateway failures never affect already-created orders.
func (s *Service) CreatePaymentIntent(ctx context.Context, caller Caller, req CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if req.Amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	gwReq := payment.CreateIntentRequest{
		Amount:   req.Amount,
		Currency: valueobject.DefaultCurrency,
		Metadata: map[string]string{"buyer_id": caller.UserID.String()},
	}
	if req.OrderID != nil {
		gwReq.OrderID = req.OrderID.String()
	}

	intent, err := s.gateway.CreateIntent(ctx, gwReq)
	if err != nil {
		s.logger.Error("Payment intent creation failed", zap.Error(err))
		if s.businessMetrics != nil {
			s.businessMetrics.RecordPayment(ctx, telemetry.PaymentStatusFailed)
		}
		return nil, shared.ErrPaymentGateway
	}

	if req.OrderID != nil {
		if err := s.attachIntent(ctx, caller, *req.OrderID, intent.IntentID); err != nil {
			// The intent exists either way; attaching is bookkeeping.
			s.logger.Warn("Failed to attach payment intent to order",
				zap.String("order_id", req.OrderID.String()),
				zap.Error(err))
		}
	}

	return &PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.IntentID,
	}, nil
}

func (s *Service) attachIntent(ctx context.Context, caller Caller, orderID uuid.UUID, intentID string) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.BelongsTo(caller.UserID) && caller.Role != identity.RoleAdmin {
		return shared.ErrForbidden
	}
	o.AttachPaymentIntent(intentID)
	return s.orderRepo.SaveWithLock(ctx, o)
}

// canView reports whether the caller may read the order
func (s *Service) canView(caller Caller, o *order.Order) bool {
	switch caller.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleSeller:
		return o.SoldBy(caller.UserID) || o.BelongsTo(caller.UserID)
	default:
		return o.BelongsTo(caller.UserID)
	}
}

// resolveActor maps the caller to the transition actor for the order
func (s *Service) resolveActor(caller Caller, o *order.Order) (order.Actor, error) {
	switch caller.Role {
	case identity.RoleAdmin:
		return order.ActorAdmin, nil
	case identity.RoleSeller:
		if !o.SoldBy(caller.UserID) {
			return "", shared.ErrForbidden
		}
		return order.ActorSeller, nil
	default:
		if !o.BelongsTo(caller.UserID) {
			return "", shared.ErrForbidden
		}
		return order.ActorBuyer, nil
	}
}

func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to publish order events", zap.Error(err))
	}
	o.ClearDomainEvents()
}
