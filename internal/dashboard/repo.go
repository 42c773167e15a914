package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository runs the aggregate reads behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderPoint struct {
	CreatedAt  time.Time
	TotalCents int64
	Status     enums.OrderStatus
}

func (r *Repository) count(ctx context.Context, model any) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(model).Count(&n).Error
	return n, err
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Order{})
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Product{})
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{})
}

// Revenue sums order totals, leaving cancelled orders out.
func (r *Repository) Revenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status <> ?", enums.OrderStatusCancelled).
		Select("COALESCE(SUM(total_cents), 0)").
		Scan(&total).Error
	return total, err
}

// OrdersSince returns the slim order rows used to bucket the daily series.
func (r *Repository) OrdersSince(ctx context.Context, since time.Time) ([]orderPoint, error) {
	var rows []orderPoint
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("created_at, total_cents, status").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}
