package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func withCatalog(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("sku ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// FindByID loads the product with its variants and images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withCatalog(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product addressed by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := withCatalog(r.db.WithContext(ctx)).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every listed product keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := withCatalog(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// SlugsWithPrefix returns stored slugs equal to base or base followed by a suffix.
func (r *Repository) SlugsWithPrefix(ctx context.Context, base string, excludeID *uuid.UUID) (map[string]struct{}, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("(slug = ? OR slug LIKE ?)", base, base+"-%")
	if excludeID != nil {
		qb = qb.Where("id <> ?", *excludeID)
	}
	var slugs []string
	if err := qb.Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return toSet(slugs), nil
}

// SKUsWithPrefix returns stored SKUs colliding with any of the base SKUs.
func (r *Repository) SKUsWithPrefix(ctx context.Context, bases []string) (map[string]struct{}, error) {
	if len(bases) == 0 {
		return map[string]struct{}{}, nil
	}
	conds := make([]string, 0, len(bases))
	args := make([]any, 0, len(bases)*2)
	for _, base := range bases {
		conds = append(conds, "(sku = ? OR sku LIKE ?)")
		args = append(args, base, base+"-%")
	}
	var skus []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where(strings.Join(conds, " OR "), args...).
		Pluck("sku", &skus).
		Error; err != nil {
		return nil, err
	}
	return toSet(skus), nil
}

// CreateProduct inserts the product together with its variants and images.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the product row without touching associations.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteVariants removes every variant of the product.
func (r *Repository) DeleteVariants(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error
}

// InsertVariants stores a freshly generated variant set.
func (r *Repository) InsertVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

// NextImagePosition returns the position after the product's last image.
func (r *Repository) NextImagePosition(ctx context.Context, productID uuid.UUID) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("product_id = ?", productID).
		Scan(&next).
		Error
	return next, err
}

// AppendImages inserts new image rows.
func (r *Repository) AppendImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// DeleteProduct removes a product with its variants and images.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
		return false, err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return false, err
	}
	res := tx.Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// DebitStock decrements variant stock only when enough units remain.
func (r *Repository) DebitStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Restock returns units to a variant and reports whether the variant still exists.
func (r *Repository) Restock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	return r.restock(ctx, qty, "id = ?", variantID)
}

// RestockSelection returns units to the product's current variant for size and color.
// Variants are regenerated when an admin edits sizes or colors, so an order can
// outlive the variant id it was placed against.
func (r *Repository) RestockSelection(ctx context.Context, productID uuid.UUID, size, color string, qty int) (bool, error) {
	return r.restock(ctx, qty, "product_id = ? AND size = ? AND color = ?", productID, size, color)
}

func (r *Repository) restock(ctx context.Context, qty int, where string, args ...any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where(where, args...).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// VariantStock reads the current stock of a variant.
func (r *Repository) VariantStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Select("stock").
		Where("id = ?", variantID).
		Scan(&stock).
		Error
	return stock, err
}

// CountProducts returns the catalog size.
func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
}

// ListProducts pages products newest first.
func (r *Repository) ListProducts(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := withCatalog(r.db.WithContext(ctx)).Model(&models.Product{})

	filter := query.Filters
	if filter.Category != "" {
		qb = qb.Where("category = ?", filter.Category)
	}
	if filter.SubCategory != "" {
		qb = qb.Where("sub_category = ?", filter.SubCategory)
	}
	if filter.Bestseller != nil {
		qb = qb.Where("bestseller = ?", *filter.Bestseller)
	}
	if filter.Featured != nil {
		qb = qb.Where("is_featured = ?", *filter.Featured)
	}
	if filter.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern, pattern)
	}

	var rows []models.Product
	if err := qb.Scopes(pagination.Keyset(cursor, query.Pagination.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Page(rows, query.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
