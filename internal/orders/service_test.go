package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubOrdersRepo struct {
	order         *models.Order
	statusUpdates []enums.OrderStatus
	tracking      *types.Tracking
	staleStatus   bool
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	s.order = order
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	if s.order == nil || s.order.OrderNumber != number {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if s.order == nil || s.order.UserID != userID {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrdersRepo) List(ctx context.Context, params pagination.Params, filters AdminFilters) ([]models.Order, string, error) {
	if s.order == nil {
		return nil, "", nil
	}
	return []models.Order{*s.order}, "", nil
}

func (s *stubOrdersRepo) FindPendingOnlineBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	if s.staleStatus {
		return false, nil
	}
	s.statusUpdates = append(s.statusUpdates, to)
	s.order.Status = to
	return true, nil
}

func (s *stubOrdersRepo) UpdateTracking(ctx context.Context, id uuid.UUID, tracking types.Tracking) error {
	s.tracking = &tracking
	return nil
}

func (s *stubOrdersRepo) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return nil
}

func (s *stubOrdersRepo) MarkPaid(ctx context.Context, id uuid.UUID, reference *string, paidAt time.Time) (bool, error) {
	return true, nil
}

func (s *stubOrdersRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubInventoryReleaser struct {
	released []models.OrderItem
}

func (s *stubInventoryReleaser) Release(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	s.released = append(s.released, items...)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newStubService(t *testing.T, order *models.Order) (Service, *stubOrdersRepo, *stubOutboxPublisher, *stubInventoryReleaser) {
	t.Helper()
	repo := &stubOrdersRepo{order: order}
	pub := &stubOutboxPublisher{}
	inv := &stubInventoryReleaser{}
	svc, err := NewService(repo, stubTxRunner{}, pub, inv)
	require.NoError(t, err)
	return svc, repo, pub, inv
}

func placedOrder(status enums.OrderStatus) *models.Order {
	variant := uuid.New()
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD123456789",
		UserID:        uuid.New(),
		Status:        status,
		SubtotalCents: 900,
		DiscountCents: 100,
		TotalCents:    800,
		Currency:      "INR",
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		Items: []models.OrderItem{
			{ProductID: uuid.New(), VariantID: &variant, Title: "Basic Tee", PriceCents: 450, Quantity: 2},
		},
	}
}

var admin = Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, stubTxRunner{}, &stubOutboxPublisher{}, &stubInventoryReleaser{}); err == nil {
		t.Fatal("expected error for missing repository")
	}
	if _, err := NewService(&stubOrdersRepo{}, stubTxRunner{}, &stubOutboxPublisher{}, nil); err == nil {
		t.Fatal("expected error for missing inventory releaser")
	}
}

func TestUpdateStatusFollowsWorkflow(t *testing.T) {
	order := placedOrder(enums.OrderStatusPlaced)
	svc, repo, pub, inv := newStubService(t, order)

	dto, err := svc.UpdateStatus(context.Background(), admin, order.ID, enums.OrderStatusPacking)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPacking, dto.Status)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusCancelled}, dto.NextStatuses)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusPacking}, repo.statusUpdates)
	assert.Empty(t, inv.released)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, enums.EventOrderStatusChanged, event.EventType)
	assert.Equal(t, admin.UserID, event.Actor.UserID)
	data, ok := event.Data.(payloads.OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, enums.OrderStatusPlaced, data.From)
	assert.Equal(t, enums.OrderStatusPacking, data.To)
}

func TestUpdateStatusRejectsIllegalJump(t *testing.T) {
	order := placedOrder(enums.OrderStatusPlaced)
	svc, repo, pub, _ := newStubService(t, order)

	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, enums.OrderStatusDelivered)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, repo.statusUpdates)
	assert.Empty(t, pub.events)
}

func TestUpdateStatusCancelRestocks(t *testing.T) {
	order := placedOrder(enums.OrderStatusPacking)
	svc, _, pub, inv := newStubService(t, order)

	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	require.Len(t, inv.released, 1)
	assert.Equal(t, 2, inv.released[0].Quantity)

	data := pub.events[0].Data.(payloads.OrderStatusChangedEvent)
	assert.True(t, data.Restocked)
}

func TestUpdateStatusConcurrentChange(t *testing.T) {
	order := placedOrder(enums.OrderStatusPlaced)
	svc, repo, _, _ := newStubService(t, order)
	repo.staleStatus = true

	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, enums.OrderStatusPacking)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusValidationAndNotFound(t *testing.T) {
	order := placedOrder(enums.OrderStatusPlaced)
	svc, _, _, _ := newStubService(t, order)

	_, err := svc.UpdateStatus(context.Background(), admin, order.ID, enums.OrderStatus("lost"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateStatus(context.Background(), admin, uuid.New(), enums.OrderStatusPacking)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateTracking(t *testing.T) {
	order := placedOrder(enums.OrderStatusShipped)
	svc, repo, pub, _ := newStubService(t, order)

	_, err := svc.UpdateTracking(context.Background(), admin, order.ID, TrackingInput{Courier: "BlueDart"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	dto, err := svc.UpdateTracking(context.Background(), admin, order.ID, TrackingInput{
		Courier:     " BlueDart ",
		TrackingID:  "BD123",
		TrackingURL: "https://track.example.com/BD123",
	})
	require.NoError(t, err)
	require.NotNil(t, dto.Tracking)
	assert.Equal(t, "BlueDart", dto.Tracking.Courier)
	require.NotNil(t, repo.tracking)
	assert.Equal(t, "BD123", repo.tracking.TrackingID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, enums.EventOrderTrackingUpdate, pub.events[0].EventType)
}

func TestUpdateTrackingRejectsCancelled(t *testing.T) {
	order := placedOrder(enums.OrderStatusCancelled)
	svc, _, _, _ := newStubService(t, order)

	_, err := svc.UpdateTracking(context.Background(), admin, order.ID, TrackingInput{Courier: "BlueDart", TrackingID: "BD1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestGetByNumberChecksOwnership(t *testing.T) {
	order := placedOrder(enums.OrderStatusPlaced)
	svc, _, _, _ := newStubService(t, order)
	ctx := context.Background()

	dto, err := svc.GetByNumber(ctx, Actor{UserID: order.UserID, Role: enums.UserRoleUser}, " ord123456789 ")
	require.NoError(t, err)
	assert.Equal(t, 800, dto.Pricing.TotalCents)

	_, err = svc.GetByNumber(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, order.OrderNumber)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetByNumber(ctx, admin, order.OrderNumber)
	require.NoError(t, err)
}

func TestAdminListRejectsBadCursor(t *testing.T) {
	svc, _, _, _ := newStubService(t, placedOrder(enums.OrderStatusPlaced))

	_, err := svc.AdminList(context.Background(), AdminListInput{Pagination: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := svc.AdminList(context.Background(), AdminListInput{})
	require.NoError(t, err)
	assert.Len(t, list.Orders, 1)
}

func TestUpdateStatusWaitsForOnlinePayment(t *testing.T) {
	for _, target := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusPacking} {
		order := placedOrder(enums.OrderStatusPlaced)
		order.PaymentMethod = enums.PaymentMethodStripe
		svc, repo, pub, inv := newStubService(t, order)

		_, err := svc.UpdateStatus(context.Background(), admin, order.ID, target)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), string(target))
		assert.Empty(t, repo.statusUpdates)
		assert.Empty(t, inv.released)
		assert.Empty(t, pub.events)
	}

	paid := placedOrder(enums.OrderStatusPlaced)
	paid.PaymentMethod = enums.PaymentMethodStripe
	paid.PaymentStatus = enums.PaymentStatusPaid
	svc, _, _, inv := newStubService(t, paid)
	_, err := svc.UpdateStatus(context.Background(), admin, paid.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Len(t, inv.released, 1)
}
