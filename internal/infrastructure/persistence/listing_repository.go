package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/listing"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a listing by ID holding a SELECT FOR UPDATE row
// lock until the surrounding transaction ends. The repository must be
// scoped to a transaction for the lock to mean anything.
func (r *GormListingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds listings with filtering
func (r *GormListingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]listing.Listing, error) {
	var listingModels []models.ListingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)

	if err := query.Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// FindActive finds active listings with filtering
func (r *GormListingRepository) FindActive(ctx context.Context, filter shared.Filter) ([]listing.Listing, error) {
	var listingModels []models.ListingModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ListingModel{}).Where("active = ?", true),
		filter,
	)

	if err := query.Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// FindBySeller finds listings owned by a seller
func (r *GormListingRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]listing.Listing, error) {
	var listingModels []models.ListingModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ListingModel{}).Where("seller_id = ?", sellerID),
		filter,
	)

	if err := query.Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// FindByProduct finds listings for a product
func (r *GormListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]listing.Listing, error) {
	var listingModels []models.ListingModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ListingModel{}).Where("product_id = ?", productID),
		filter,
	)

	if err := query.Find(&listingModels).Error; err != nil {
		return nil, err
	}
	return toDomainListings(listingModels), nil
}

// Save creates or updates a listing
func (r *GormListingRepository) Save(ctx context.Context, l *listing.Listing) error {
	model := models.ListingModelFromDomain(l)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a listing with optimistic locking (version check)
// Returns shared.ErrContention if the version has changed underneath us
func (r *GormListingRepository) SaveWithLock(ctx context.Context, l *listing.Listing) error {
	// Column list is explicit: a struct update would skip zero values
	// and lose active=false or quantity=0.
	model := models.ListingModelFromDomain(l)
	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Select("product_title", "unit_price", "quantity", "condition_note", "active", "version", "updated_at").
		Where("id = ? AND version = ?", l.ID, l.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrContention
	}
	return nil
}

// Delete deletes a listing
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ListingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts listings matching the filter
func (r *GormListingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetActiveListingCount counts currently active listings
func (r *GormListingRepository) GetActiveListingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetSoldOutListingCount counts listings with no stock left
func (r *GormListingRepository) GetSoldOutListingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("quantity = 0").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormListingRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ListingSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormListingRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("product_title ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "seller_id":
			query = query.Where("seller_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "active":
			query = query.Where("active = ?", value)
		case "max_price":
			query = query.Where("unit_price <= ?", value)
		case "min_price":
			query = query.Where("unit_price >= ?", value)
		}
	}

	return query
}

func toDomainListings(listingModels []models.ListingModel) []listing.Listing {
	listings := make([]listing.Listing, len(listingModels))
	for i, model := range listingModels {
		listings[i] = *model.ToDomain()
	}
	return listings
}

// Ensure GormListingRepository implements listing.Repository
var _ listing.Repository = (*GormListingRepository)(nil)
