package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	})
}

// Create inserts the order together with its item snapshots.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).First(&order, "order_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).First(&order, "payment_session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// List pages every order newest first for the back office.
func (r *repository) List(ctx context.Context, params pagination.Params, filters AdminFilters) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := withItems(r.db.WithContext(ctx)).Model(&models.Order{})
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		qb = qb.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.PaymentMethod != nil {
		qb = qb.Where("payment_method = ?", *filters.PaymentMethod)
	}
	if filters.UserID != nil {
		qb = qb.Where("user_id = ?", *filters.UserID)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		qb = qb.Where("order_number LIKE ?", "%"+strings.ToUpper(q)+"%")
	}

	var rows []models.Order
	if err := qb.Scopes(pagination.Keyset(cursor, params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Page(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

// FindPendingOnlineBefore returns online orders still awaiting payment that were placed before cutoff.
func (r *repository) FindPendingOnlineBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	qb := withItems(r.db.WithContext(ctx)).
		Where("payment_method <> ? AND payment_status = ? AND status = ? AND created_at < ?",
			enums.PaymentMethodCOD, enums.PaymentStatusPending, enums.OrderStatusPlaced, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	err := qb.Find(&rows).Error
	return rows, err
}

// UpdateStatus moves the order only when it is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) UpdateTracking(ctx context.Context, id uuid.UUID, tracking types.Tracking) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{ID: id}).
		Select("tracking", "updated_at").
		Updates(&models.Order{Tracking: &tracking, UpdatedAt: time.Now().UTC()}).Error
}

func (r *repository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_session_id", sessionID).Error
}

// MarkPaid flips a pending payment to paid. It reports false when the payment was already settled.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, reference *string, paidAt time.Time) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"paid_at":        paidAt,
		"updated_at":     time.Now().UTC(),
	}
	if reference != nil {
		updates["payment_reference"] = *reference
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// DeletePending removes an order whose payment never completed, with its items. Orders that
// left order_placed (advanced or cancelled) are never removed.
func (r *repository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND payment_status = ? AND status = ?", id, enums.PaymentStatusPending, enums.OrderStatusPlaced).
		Delete(&models.Order{})
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return false, err
	}
	return true, nil
}
