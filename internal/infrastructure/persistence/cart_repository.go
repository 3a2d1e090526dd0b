package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID finds a cart item by its ID
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.CartItem, error) {
	var model models.CartItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBuyer finds all cart items of a buyer, oldest first
func (r *GormCartRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) ([]cart.CartItem, error) {
	var itemModels []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("added_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}

	items := make([]cart.CartItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// FindByBuyerAndListing finds the buyer's cart item for a listing, if any
func (r *GormCartRepository) FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*cart.CartItem, error) {
	var model models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND listing_id = ?", buyerID, listingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a cart item
func (r *GormCartRepository) Save(ctx context.Context, item *cart.CartItem) error {
	model := models.CartItemModelFromDomain(item)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a cart item
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CartItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByBuyer removes all cart items of a buyer.
// Deleting an already empty cart is not an error.
func (r *GormCartRepository) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.CartItemModel{}, "buyer_id = ?", buyerID).Error
}

// Ensure GormCartRepository implements cart.Repository
var _ cart.Repository = (*GormCartRepository)(nil)
