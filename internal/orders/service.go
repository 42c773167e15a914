package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service exposes order reads and the administrator workflow.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetByNumber(ctx context.Context, actor Actor, number string) (*OrderDTO, error)
	AdminList(ctx context.Context, input AdminListInput) (*OrderList, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	UpdateTracking(ctx context.Context, actor Actor, orderID uuid.UUID, input TrackingInput) (*OrderDTO, error)
}

// AdminListInput pages the back office order list.
type AdminListInput struct {
	Pagination pagination.Params
	Filters    AdminFilters
}

// TrackingInput attaches courier details to an order.
type TrackingInput struct {
	Courier     string
	TrackingID  string
	TrackingURL string
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory InventoryReleaser
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, inventory InventoryReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outbox,
		inventory: inventory,
		now:       time.Now,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

// GetByNumber returns the order to its owner or to staff.
func (s *service) GetByNumber(ctx context.Context, actor Actor, number string) (*OrderDTO, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, notFound(err)
	}
	if order.UserID != actor.UserID && !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, input AdminListInput) (*OrderList, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, input.Pagination, input.Filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: newOrderDTOs(rows), NextCursor: next}, nil
}

// UpdateStatus advances the workflow. Cancelling returns the order's stock. Online
// orders stay put until their payment settles; releasing an unpaid one is checkout's job.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}

		from := order.Status
		if awaitingOnlinePayment(order) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is awaiting online payment").
				WithDetails(map[string]any{"payment_status": order.PaymentStatus})
		}
		if !CanTransition(from, status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from.Label(), status.Label())).
				WithDetails(map[string]any{"from": from, "to": status, "allowed": NextStatuses(from)})
		}

		ok, err := repo.UpdateStatus(ctx, order.ID, from, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		restocked := false
		if status == enums.OrderStatusCancelled {
			if err := s.inventory.Release(ctx, tx, order.Items); err != nil {
				return err
			}
			restocked = true
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        from,
				To:          status,
				Restocked:   restocked,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status event")
		}

		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

// awaitingOnlinePayment holds the workflow until the gateway settles or the payment is
// compensated; compensation owns the restock for these orders.
func awaitingOnlinePayment(order *models.Order) bool {
	return order.PaymentMethod.IsOnline() && order.PaymentStatus == enums.PaymentStatusPending
}

// UpdateTracking attaches or edits courier details. Tracking cannot be removed.
func (s *service) UpdateTracking(ctx context.Context, actor Actor, orderID uuid.UUID, input TrackingInput) (*OrderDTO, error) {
	tracking := types.Tracking{
		Courier:     strings.TrimSpace(input.Courier),
		TrackingID:  strings.TrimSpace(input.TrackingID),
		TrackingURL: strings.TrimSpace(input.TrackingURL),
		UpdatedAt:   s.now().UTC(),
	}
	if tracking.Courier == "" || tracking.TrackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier and tracking id are required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be tracked")
		}
		if err := repo.UpdateTracking(ctx, order.ID, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderTrackingUpdate,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor),
			Data: payloads.OrderTrackingUpdatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Courier:     tracking.Courier,
				TrackingID:  tracking.TrackingID,
				TrackingURL: tracking.TrackingURL,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit tracking event")
		}
		order.Tracking = &tracking
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
