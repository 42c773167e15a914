package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists addresses and the user's default pointer.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository on the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the default address first, then newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindForUser loads an address only when userID owns it.
func (r *Repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// UpdateFields writes the editable columns. The default flag is left alone.
func (r *Repository) UpdateFields(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", addr.ID).
		Updates(map[string]any{
			"name":          addr.Name,
			"phone":         addr.Phone,
			"address_line1": addr.AddressLine1,
			"address_line2": addr.AddressLine2,
			"city":          addr.City,
			"state":         addr.State,
			"pincode":       addr.Pincode,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Address{}).Error
}

// NewestExcept returns the user's newest address other than excludeID, or nil.
func (r *Repository) NewestExcept(ctx context.Context, userID, excludeID uuid.UUID) (*models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, excludeID).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// SetDefault clears every default of the user, flags id and mirrors it onto the user row.
// A nil id leaves the user without a default.
func (r *Repository) SetDefault(ctx context.Context, userID uuid.UUID, id *uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return err
	}
	if id != nil {
		if err := db.Model(&models.Address{}).
			Where("id = ? AND user_id = ?", *id, userID).
			Update("is_default", true).Error; err != nil {
			return err
		}
	}
	return db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("default_address_id", id).Error
}
