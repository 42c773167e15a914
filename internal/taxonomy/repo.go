package taxonomy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists categories, subcategories and colors.
type Repository struct {
	db *gorm.DB
}

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

func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var rows []models.Category
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindCategoryByCode(ctx context.Context, code string) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).First(&row, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"code": c.Code, "name": c.Name, "image": c.Image, "is_active": c.IsActive}).Error
}

// DeleteCategory removes the category and its subcategories.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).Where("category_id = ?", id).Delete(&models.Subcategory{}).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	return res.RowsAffected > 0, res.Error
}

// ListSubcategories returns subcategories of the given categories, all of them when ids is empty.
func (r *Repository) ListSubcategories(ctx context.Context, categoryIDs []uuid.UUID, activeOnly bool) ([]models.Subcategory, error) {
	var rows []models.Subcategory
	q := r.db.WithContext(ctx)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindSubcategory(ctx context.Context, id uuid.UUID) (*models.Subcategory, error) {
	var row models.Subcategory
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CreateSubcategory(ctx context.Context, s *models.Subcategory) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) SaveSubcategory(ctx context.Context, s *models.Subcategory) error {
	return r.db.WithContext(ctx).
		Model(&models.Subcategory{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"category_id": s.CategoryID,
			"code":        s.Code,
			"name":        s.Name,
			"image":       s.Image,
			"is_active":   s.IsActive,
		}).Error
}

func (r *Repository) DeleteSubcategory(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Subcategory{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) ListColors(ctx context.Context) ([]models.Color, error) {
	var rows []models.Color
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindColor(ctx context.Context, id uuid.UUID) (*models.Color, error) {
	var row models.Color
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CreateColor(ctx context.Context, c *models.Color) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) SaveColor(ctx context.Context, c *models.Color) error {
	return r.db.WithContext(ctx).
		Model(&models.Color{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"name": c.Name, "hex_code": c.HexCode}).Error
}

func (r *Repository) DeleteColor(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Color{})
	return res.RowsAffected > 0, res.Error
}
