package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartPricer interface {
	AuthoritativeTotal(ctx context.Context, userID uuid.UUID) (*cart.PricedCart, error)
}

type addressLoader interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, code string, totalCents int) (*coupons.Redemption, error)
	Release(ctx context.Context, tx *gorm.DB, code string) error
}

// PaymentGateway opens, inspects and closes hosted payment sessions. *stripe.Client satisfies it.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSessionResult, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSessionResult, error)
}

// Service turns a cart into an order and settles its payment.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyPaymentInput) (*VerifyPaymentResult, error)
	HandleSessionCompleted(ctx context.Context, session stripe.CheckoutSessionResult) error
	HandleSessionExpired(ctx context.Context, session stripe.CheckoutSessionResult) error
	ExpirePendingPayments(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Options are the pricing knobs applied to every order. PaymentWindow, when set,
// closes the hosted payment page that long after the order is placed.
type Options struct {
	Currency      string
	ShippingCents int
	PaymentWindow time.Duration
}

// Dependencies wires the collaborators of the checkout service. Gateway and Logger are optional;
// without a gateway only cash on delivery is accepted.
type Dependencies struct {
	Tx        txRunner
	Cart      cartPricer
	CartRepo  cart.CartRepository
	Addresses addressLoader
	Coupons   couponRedeemer
	Products  *product.Repository
	Orders    orders.Repository
	Inventory orders.InventoryReleaser
	Outbox    outboxPublisher
	Gateway   PaymentGateway
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	cart      cartPricer
	cartRepo  cart.CartRepository
	addresses addressLoader
	coupons   couponRedeemer
	products  *product.Repository
	orders    orders.Repository
	inventory orders.InventoryReleaser
	outbox    outboxPublisher
	gateway   PaymentGateway
	logg      *logger.Logger
	opts      Options
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Dependencies, opts Options) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.CartRepo == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Addresses == nil:
		return nil, fmt.Errorf("address service required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupon service required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory releaser required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if strings.TrimSpace(opts.Currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	if opts.ShippingCents < 0 {
		return nil, fmt.Errorf("shipping must not be negative")
	}
	if opts.PaymentWindow < 0 {
		return nil, fmt.Errorf("payment window must not be negative")
	}
	gateway := deps.Gateway
	if isNilGateway(gateway) {
		gateway = nil
	}
	return &service{
		tx:        deps.Tx,
		cart:      deps.Cart,
		cartRepo:  deps.CartRepo,
		addresses: deps.Addresses,
		coupons:   deps.Coupons,
		products:  deps.Products,
		orders:    deps.Orders,
		inventory: deps.Inventory,
		outbox:    deps.Outbox,
		gateway:   gateway,
		logg:      deps.Logger,
		opts:      opts,
		now:       time.Now,
	}, nil
}

func isNilGateway(g PaymentGateway) bool {
	if g == nil {
		return true
	}
	client, ok := g.(*stripe.Client)
	return ok && client == nil
}

// PlaceOrder debits stock, consumes the coupon and writes the order in one transaction.
// Online payments open a gateway session after commit; if that fails the order is compensated.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	method := input.PaymentMethod
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if method.IsOnline() {
		if s.gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "online payments are not available")
		}
		if strings.TrimSpace(input.ReturnURL) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "return_url is required for online payments")
		}
	}

	addr, err := s.addresses.Get(ctx, userID, input.AddressID)
	if err != nil {
		return nil, err
	}
	priced, err := s.cart.AuthoritativeTotal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if priced.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	code := coupons.NormalizeCode(input.CouponCode)

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.debitStock(ctx, tx, priced.Lines); err != nil {
			return err
		}

		var redemption *coupons.Redemption
		if code != "" {
			r, err := s.coupons.Redeem(ctx, tx, code, priced.SubtotalCents)
			if err != nil {
				return err
			}
			redemption = r
		}

		order = s.buildOrder(userID, method, priced, addr, redemption)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "orders_order_number_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}

		if err := s.emit(ctx, tx, enums.EventOrderPlaced, enums.AggregateOrder, order.ID, userID, payloads.OrderPlacedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        userID,
			PaymentMethod: method,
			TotalCents:    order.TotalCents,
			Currency:      order.Currency,
			CouponCode:    order.CouponCode,
			ItemCount:     len(order.Items),
		}); err != nil {
			return err
		}
		if redemption != nil {
			if err := s.emit(ctx, tx, enums.EventCouponRedeemed, enums.AggregateCoupon, redemption.CouponID, userID, payloads.CouponRedeemedEvent{
				CouponID:      redemption.CouponID,
				Code:          redemption.Code,
				OrderID:       order.ID,
				DiscountCents: redemption.DiscountCents,
				UsedCount:     redemption.UsedCount,
			}); err != nil {
				return err
			}
		}

		if !method.IsOnline() {
			if err := s.cartRepo.WithTx(tx).ClearByUser(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &PlaceOrderResult{Order: orders.NewOrderDTO(order)}
	if !method.IsOnline() {
		return result, nil
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, s.sessionRequest(order, input))
	if err == nil {
		if err = s.orders.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
			// nothing points at the session any more, so it must not stay payable
			if _, xerr := s.gateway.ExpireCheckoutSession(ctx, session.ID); xerr != nil {
				s.logError(ctx, order, "checkout.session_expire_failed", xerr)
			}
		}
	}
	if err != nil {
		s.logError(ctx, order, "checkout.payment_session_failed", err)
		if cerr := s.compensate(ctx, order, "payment session could not be created"); cerr != nil {
			s.logError(ctx, order, "checkout.compensation_failed", cerr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	order.PaymentSessionID = &session.ID
	result.Order = orders.NewOrderDTO(order)
	result.PaymentURL = session.URL
	return result, nil
}

// VerifyPayment settles an online order once the buyer returns from the payment page.
// A cancelled return is checked against the gateway before anything is released:
// the buyer may have paid in another tab.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, notFound(err)
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		dto := orders.NewOrderDTO(order)
		return &VerifyPaymentResult{Paid: true, Order: &dto}, nil
	}
	if !order.PaymentMethod.IsOnline() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cash on delivery orders are settled on delivery")
	}

	if !input.Success {
		outcome, err := s.reconcile(ctx, order, "payment cancelled")
		if err != nil {
			return nil, err
		}
		switch outcome {
		case outcomePaid:
			dto := orders.NewOrderDTO(order)
			return &VerifyPaymentResult{Paid: true, Order: &dto}, nil
		case outcomeKept:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is still processing")
		}
		return &VerifyPaymentResult{Paid: false}, nil
	}

	var reference *string
	if s.gateway != nil {
		sessionID := strings.TrimSpace(input.SessionID)
		if sessionID == "" && order.PaymentSessionID != nil {
			sessionID = *order.PaymentSessionID
		}
		if sessionID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment session")
		}
		session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment session")
		}
		if session.OrderID != "" && session.OrderID != order.ID.String() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session does not belong to this order")
		}
		if !session.Paid {
			if session.Expired {
				if err := s.compensate(ctx, order, "payment session expired"); err != nil {
					return nil, err
				}
				return &VerifyPaymentResult{Paid: false}, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not completed")
		}
		if session.PaymentReference != "" {
			ref := session.PaymentReference
			reference = &ref
		}
	}

	if err := s.markPaid(ctx, order, reference); err != nil {
		return nil, err
	}
	dto := orders.NewOrderDTO(order)
	return &VerifyPaymentResult{Paid: true, Order: &dto}, nil
}

// HandleSessionCompleted settles the order behind a completed gateway session.
// A paid session whose order was already compensated is reported for refund.
func (s *service) HandleSessionCompleted(ctx context.Context, session stripe.CheckoutSessionResult) error {
	order, err := s.orderForSession(ctx, session)
	if err != nil {
		return err
	}
	if order == nil {
		if !session.Paid {
			return nil
		}
		return s.reportOrphanedPayment(ctx, session)
	}
	if !session.Paid || order.PaymentStatus == enums.PaymentStatusPaid {
		return nil
	}
	var reference *string
	if session.PaymentReference != "" {
		ref := session.PaymentReference
		reference = &ref
	}
	return s.markPaid(ctx, order, reference)
}

// HandleSessionExpired compensates the order behind an abandoned gateway session.
func (s *service) HandleSessionExpired(ctx context.Context, session stripe.CheckoutSessionResult) error {
	order, err := s.orderForSession(ctx, session)
	if err != nil || order == nil {
		return err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil
	}
	return s.compensate(ctx, order, "payment session expired")
}

// ExpirePendingPayments reconciles online orders still unpaid at cutoff with the
// gateway and reports how many it removed. Orders the gateway reports as paid are
// settled instead, and payments still in flight are left for a later run.
func (s *service) ExpirePendingPayments(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	rows, err := s.orders.FindPendingOnlineBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
	}
	var errs error
	expired := 0
	for i := range rows {
		outcome, err := s.reconcile(ctx, &rows[i], "payment window elapsed")
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", rows[i].OrderNumber, err))
			continue
		}
		if outcome == outcomeReleased {
			expired++
		}
	}
	return expired, errs
}

type reconcileOutcome int

const (
	outcomeKept reconcileOutcome = iota
	outcomeReleased
	outcomePaid
)

// reconcile asks the gateway what became of an unpaid order's session before
// releasing it. An open session is expired first so it cannot be paid after
// the stock went back on sale.
func (s *service) reconcile(ctx context.Context, order *models.Order, reason string) (reconcileOutcome, error) {
	if s.gateway == nil || order.PaymentSessionID == nil || *order.PaymentSessionID == "" {
		return s.release(ctx, order, reason)
	}
	session, err := s.gateway.GetCheckoutSession(ctx, *order.PaymentSessionID)
	if err != nil {
		return outcomeKept, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment session")
	}
	if session.Open {
		session, err = s.gateway.ExpireCheckoutSession(ctx, *order.PaymentSessionID)
		if err != nil {
			// the buyer may have completed it meanwhile; the next run re-reads it
			return outcomeKept, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire payment session")
		}
	}

	switch {
	case session.Paid:
		var reference *string
		if session.PaymentReference != "" {
			ref := session.PaymentReference
			reference = &ref
		}
		if err := s.markPaid(ctx, order, reference); err != nil {
			return outcomeKept, err
		}
		return outcomePaid, nil
	case session.Expired:
		return s.release(ctx, order, reason)
	default:
		// complete but unpaid: an asynchronous payment is still settling
		return outcomeKept, nil
	}
}

func (s *service) release(ctx context.Context, order *models.Order, reason string) (reconcileOutcome, error) {
	if err := s.compensate(ctx, order, reason); err != nil {
		return outcomeKept, err
	}
	return outcomeReleased, nil
}

// reportOrphanedPayment records money captured for an order that no longer exists.
func (s *service) reportOrphanedPayment(ctx context.Context, session stripe.CheckoutSessionResult) error {
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"sessionId": session.ID,
			"orderId":   session.OrderID,
		})
		s.logg.Error(logCtx, "checkout.payment_orphaned", errors.New("paid session has no order"))
	}
	orderID, err := uuid.Parse(session.OrderID)
	if err != nil {
		return nil
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emit(ctx, tx, enums.EventPaymentOrphaned, enums.AggregateOrder, orderID, uuid.Nil, payloads.PaymentOrphanedEvent{
			OrderID:          orderID,
			SessionID:        session.ID,
			PaymentReference: session.PaymentReference,
		})
	})
}

func (s *service) debitStock(ctx context.Context, tx *gorm.DB, lines []cart.PricedLine) error {
	repo := s.products.WithTx(tx)
	for _, line := range lines {
		if line.Resolved.VariantID == nil {
			continue
		}
		ok, err := repo.DebitStock(ctx, *line.Resolved.VariantID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit stock")
		}
		if ok {
			continue
		}
		available, err := repo.VariantStock(ctx, *line.Resolved.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
		}
		return pkgerrors.StockInsufficient(available).WithDetails(map[string]any{
			"available":  available,
			"product_id": line.Item.ProductID,
			"sku":        line.Resolved.SKU,
		})
	}
	return nil
}

func (s *service) buildOrder(userID uuid.UUID, method enums.PaymentMethod, priced *cart.PricedCart, addr *models.Address, redemption *coupons.Redemption) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orders.NewOrderNumber(s.now()),
		UserID:          userID,
		Status:          enums.OrderStatusPlaced,
		SubtotalCents:   priced.SubtotalCents,
		ShippingCents:   s.opts.ShippingCents,
		Currency:        s.opts.Currency,
		PaymentMethod:   method,
		PaymentStatus:   enums.PaymentStatusPending,
		ShippingAddress: address.Snapshot(addr),
	}
	if redemption != nil {
		code := redemption.Code
		order.CouponCode = &code
		order.CouponDiscountCents = redemption.DiscountCents
		order.DiscountCents = redemption.DiscountCents
	}
	order.TotalCents = max(order.SubtotalCents+order.ShippingCents-order.DiscountCents, 0)

	order.Items = make([]models.OrderItem, 0, len(priced.Lines))
	for _, line := range priced.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  line.Item.ProductID,
			VariantID:  line.Resolved.VariantID,
			SKU:        line.Resolved.SKU,
			Title:      line.Resolved.Title,
			Image:      line.Resolved.Image,
			Size:       line.Resolved.Size,
			Color:      line.Resolved.Color,
			PriceCents: line.UnitPriceCents,
			Quantity:   line.Quantity,
		})
	}
	return order
}

func (s *service) sessionRequest(order *models.Order, input PlaceOrderInput) stripe.CheckoutSessionRequest {
	lines := make([]stripe.CheckoutLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, stripe.CheckoutLine{
			Name:            item.Title,
			UnitAmountCents: int64(item.PriceCents),
			Quantity:        int64(item.Quantity),
		})
	}
	return stripe.CheckoutSessionRequest{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Currency:      order.Currency,
		Lines:         lines,
		ShippingCents: int64(order.ShippingCents),
		DiscountCents: int64(order.DiscountCents),
		TotalCents:    int64(order.TotalCents),
		SuccessURL:    verifyURL(input.ReturnURL, order.ID, true),
		CancelURL:     verifyURL(input.ReturnURL, order.ID, false),
		CustomerEmail: input.CustomerEmail,
		ExpiresAt:     s.sessionExpiry(),
	}
}

func (s *service) sessionExpiry() time.Time {
	if s.opts.PaymentWindow <= 0 {
		return time.Time{}
	}
	return s.now().Add(stripe.SessionWindow(s.opts.PaymentWindow))
}

// verifyURL appends the parameters the storefront's verify page posts back.
func verifyURL(base string, orderID uuid.UUID, success bool) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("orderId", orderID.String())
	if success {
		q.Set("success", "true")
	} else {
		q.Set("success", "false")
	}
	u.RawQuery = q.Encode()
	if success {
		// Stripe substitutes the literal placeholder; it must stay unescaped.
		return u.String() + "&session_id={CHECKOUT_SESSION_ID}"
	}
	return u.String()
}

func (s *service) markPaid(ctx context.Context, order *models.Order, reference *string) error {
	paidAt := s.now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.orders.WithTx(tx).MarkPaid(ctx, order.ID, reference, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !ok {
			return nil
		}
		if err := s.cartRepo.WithTx(tx).ClearByUser(ctx, order.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentReference = reference
		order.PaidAt = &paidAt

		event := payloads.OrderPaidEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			TotalCents:  order.TotalCents,
			PaidAt:      paidAt,
		}
		if reference != nil {
			event.PaymentReference = *reference
		}
		return s.emit(ctx, tx, enums.EventOrderPaid, enums.AggregateOrder, order.ID, order.UserID, event)
	})
}

// compensate removes an unpaid order and returns its stock and coupon use. Running it twice is a no-op.
func (s *service) compensate(ctx context.Context, order *models.Order, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.orders.WithTx(tx).DeletePending(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete unpaid order")
		}
		if !deleted {
			return nil
		}
		if err := s.inventory.Release(ctx, tx, order.Items); err != nil {
			return err
		}
		if order.CouponCode != nil && *order.CouponCode != "" {
			if err := s.coupons.Release(ctx, tx, *order.CouponCode); err != nil {
				return err
			}
		}
		return s.emit(ctx, tx, enums.EventOrderPaymentFailed, enums.AggregateOrder, order.ID, order.UserID, payloads.OrderPaymentFailedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Reason:      reason,
		})
	})
}

func (s *service) orderForSession(ctx context.Context, session stripe.CheckoutSessionResult) (*models.Order, error) {
	order, err := s.orders.FindByPaymentSession(ctx, session.ID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order by session")
	}
	id, perr := uuid.Parse(session.OrderID)
	if perr != nil {
		return nil, nil
	}
	order, err = s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// already compensated
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return order, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, aggregateID, userID uuid.UUID, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   aggregateID,
		Data:          data,
		OccurredAt:    s.now().UTC(),
	}
	if userID != uuid.Nil {
		event.Actor = &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleUser)}
	}
	err := s.outbox.Emit(ctx, tx, event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

func (s *service) logError(ctx context.Context, order *models.Order, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Error(ctx, msg, err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
