package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Service manages seller listings. Writes are restricted to the owning
// seller or an admin; reads are open.
type Service struct {
	listingRepo    listing.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new listing Service
func NewService(listingRepo listing.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		listingRepo: listingRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create publishes a new listing owned by the calling seller
func (s *Service) Create(ctx context.Context, sellerID uuid.UUID, role identity.Role, req CreateRequest) (*Response, error) {
	if role != identity.RoleSeller && role != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	l, err := listing.NewListing(
		req.ProductID,
		sellerID,
		req.ProductTitle,
		valueobject.NewMoneyEUR(req.UnitPrice),
		req.Quantity,
		req.ConditionNote,
	)
	if err != nil {
		return nil, err
	}

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("Listing created",
		zap.String("listing_id", l.ID.String()),
		zap.String("seller_id", sellerID.String()),
		zap.Int("quantity", l.Quantity))

	s.publishEvents(ctx, l)

	resp := ToResponse(l)
	return &resp, nil
}

// Get returns a single listing
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	l, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(l)
	return &resp, nil
}

// ListActive returns listings open for purchase
func (s *Service) ListActive(ctx context.Context, filter ListFilter) ([]Response, error) {
	listings, err := s.listingRepo.FindActive(ctx, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToResponseList(listings), nil
}

// ListBySeller returns all listings a seller owns, active or not
func (s *Service) ListBySeller(ctx context.Context, sellerID uuid.UUID, filter ListFilter) ([]Response, error) {
	listings, err := s.listingRepo.FindBySeller(ctx, sellerID, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToResponseList(listings), nil
}

// Update changes price, quantity or condition note of an owned listing
func (s *Service) Update(ctx context.Context, callerID uuid.UUID, role identity.Role, id uuid.UUID, req UpdateRequest) (*Response, error) {
	l, err := s.loadOwned(ctx, callerID, role, id)
	if err != nil {
		return nil, err
	}

	if req.UnitPrice != nil {
		if err := l.ChangePrice(valueobject.NewMoneyEUR(*req.UnitPrice)); err != nil {
			return nil, err
		}
	}
	if req.Quantity != nil {
		if err := l.SetQuantity(*req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.ConditionNote != nil {
		l.SetConditionNote(*req.ConditionNote)
	}

	if err := s.listingRepo.SaveWithLock(ctx, l); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, l)

	resp := ToResponse(l)
	return &resp, nil
}

// Deactivate takes a listing off the market without deleting it
func (s *Service) Deactivate(ctx context.Context, callerID uuid.UUID, role identity.Role, id uuid.UUID) (*Response, error) {
	l, err := s.loadOwned(ctx, callerID, role, id)
	if err != nil {
		return nil, err
	}

	l.Deactivate()
	if err := s.listingRepo.SaveWithLock(ctx, l); err != nil {
		return nil, err
	}

	resp := ToResponse(l)
	return &resp, nil
}

// Activate puts a listing back on the market. Fails on zero stock.
func (s *Service) Activate(ctx context.Context, callerID uuid.UUID, role identity.Role, id uuid.UUID) (*Response, error) {
	l, err := s.loadOwned(ctx, callerID, role, id)
	if err != nil {
		return nil, err
	}

	if err := l.Activate(); err != nil {
		return nil, err
	}
	if err := s.listingRepo.SaveWithLock(ctx, l); err != nil {
		return nil, err
	}

	resp := ToResponse(l)
	return &resp, nil
}

// Delete removes an owned listing
func (s *Service) Delete(ctx context.Context, callerID uuid.UUID, role identity.Role, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, callerID, role, id); err != nil {
		return err
	}
	return s.listingRepo.Delete(ctx, id)
}

func (s *Service) loadOwned(ctx context.Context, callerID uuid.UUID, role identity.Role, id uuid.UUID) (*listing.Listing, error) {
	l, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != identity.RoleAdmin && l.SellerID != callerID {
		return nil, shared.ErrForbidden
	}
	return l, nil
}

func (s *Service) publishEvents(ctx context.Context, l *listing.Listing) {
	if s.eventPublisher == nil {
		return
	}
	events := l.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish listing events", zap.Error(err))
	}
	l.ClearDomainEvents()
}

func toDomainFilter(filter ListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	return f
}
