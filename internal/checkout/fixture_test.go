package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

type stubGateway struct {
	createErr error
	expireErr error
	requests  []stripe.CheckoutSessionRequest
	sessions  map[string]stripe.CheckoutSessionResult
	expired   []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{sessions: map[string]stripe.CheckoutSessionResult{}}
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, req stripe.CheckoutSessionRequest) (*stripe.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(g.requests))
	g.sessions[id] = stripe.CheckoutSessionResult{ID: id, OrderID: req.OrderID, Open: true}
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *stubGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSessionResult, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return &session, nil
}

func (g *stubGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSessionResult, error) {
	if g.expireErr != nil {
		return nil, g.expireErr
	}
	session, ok := g.sessions[sessionID]
	if !ok || !session.Open {
		return nil, errors.New("only open sessions can be expired")
	}
	g.expired = append(g.expired, sessionID)
	session.Open = false
	session.Expired = true
	g.sessions[sessionID] = session
	return &session, nil
}

func (g *stubGateway) settle(sessionID, reference string) {
	session := g.sessions[sessionID]
	session.Open = false
	session.Paid = true
	session.PaymentReference = reference
	g.sessions[sessionID] = session
}

// processing marks a session completed with an asynchronous payment still settling.
func (g *stubGateway) processing(sessionID string) {
	session := g.sessions[sessionID]
	session.Open = false
	g.sessions[sessionID] = session
}

type fixture struct {
	svc       Service
	conn      *gorm.DB
	catalog   product.Service
	products  *product.Repository
	carts     cart.Service
	coupons   coupons.Service
	orders    orders.Repository
	admin     orders.Service
	gateway   *stubGateway
	userID    uuid.UUID
	addressID uuid.UUID
}

type fixtureOptions struct {
	gateway       *stubGateway
	shippingCents int
	paymentWindow time.Duration
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)

	products := product.NewRepository(conn)
	catalog, err := product.NewService(products, client, "INR")
	require.NoError(t, err)

	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cartRepo, client, products, product.NewResolver(product.DefaultLegacyStockCeiling))
	require.NoError(t, err)

	couponSvc, err := coupons.NewService(coupons.NewRepository(conn))
	require.NoError(t, err)

	addresses, err := address.NewService(address.NewRepository(conn), client)
	require.NoError(t, err)

	inventory, err := orders.NewInventoryReleaser(products, nil)
	require.NoError(t, err)

	ordersRepo := orders.NewRepository(conn)
	deps := Dependencies{
		Tx:        client,
		Cart:      carts,
		CartRepo:  cartRepo,
		Addresses: addresses,
		Coupons:   couponSvc,
		Products:  products,
		Orders:    ordersRepo,
		Inventory: inventory,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), nil),
	}
	if opts.gateway != nil {
		deps.Gateway = opts.gateway
	}
	svc, err := NewService(deps, Options{Currency: "INR", ShippingCents: opts.shippingCents, PaymentWindow: opts.paymentWindow})
	require.NoError(t, err)

	admin, err := orders.NewService(ordersRepo, client, deps.Outbox, inventory)
	require.NoError(t, err)

	user := &models.User{Name: "Asha", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: enums.UserRoleUser}
	require.NoError(t, conn.Create(user).Error)

	addr, err := addresses.Add(context.Background(), user.ID, address.AddressInput{
		Name:         "Asha",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	})
	require.NoError(t, err)

	return &fixture{
		svc:       svc,
		conn:      conn,
		catalog:   catalog,
		products:  products,
		carts:     carts,
		coupons:   couponSvc,
		orders:    ordersRepo,
		admin:     admin,
		gateway:   opts.gateway,
		userID:    user.ID,
		addressID: addr.ID,
	}
}

// createTee builds the S/M x Black/White tee with S-White out of stock.
func (f *fixture) createTee(t *testing.T) *product.ProductDTO {
	t.Helper()
	dto, err := f.catalog.CreateProduct(context.Background(), product.ProductInput{
		Title:          "Basic Tee",
		Description:    "Everyday cotton tee",
		Category:       "men",
		SubCategory:    "topwear",
		PriceCents:     500,
		Sizes:          []string{"S", "M"},
		Colors:         []string{"Black", "White"},
		Stock:          map[string]int{"S-Black": 3, "S-White": 0, "M-Black": 5, "M-White": 5},
		PriceOverrides: map[string]int{"S-Black": 450},
		DefaultColor:   "Black",
	})
	require.NoError(t, err)
	return dto
}

func (f *fixture) createSave20(t *testing.T, limit *int) {
	t.Helper()
	maxDiscount := 100
	_, err := f.coupons.Create(context.Background(), coupons.CreateInput{
		Code:             "SAVE20",
		Type:             enums.CouponTypePercentage,
		Value:            decimal.NewFromInt(20),
		MinOrderCents:    200,
		MaxDiscountCents: &maxDiscount,
		ExpiresAt:        time.Now().Add(48 * time.Hour),
		UsageLimit:       limit,
	})
	require.NoError(t, err)
}

func (f *fixture) addToCart(t *testing.T, p *product.ProductDTO, size, color string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), f.userID, cart.ItemInput{
		ProductID: p.ID,
		Selector:  product.Selector{Size: size, Color: color},
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, p *product.ProductDTO, size, color string) int {
	t.Helper()
	n, err := f.products.VariantStock(context.Background(), *variantID(t, p, size, color))
	require.NoError(t, err)
	return n
}

func (f *fixture) couponUses(t *testing.T, code string) int {
	t.Helper()
	var c models.Coupon
	require.NoError(t, f.conn.First(&c, "code = ?", code).Error)
	return c.UsedCount
}

func (f *fixture) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func variantID(t *testing.T, p *product.ProductDTO, size, color string) *uuid.UUID {
	t.Helper()
	for _, v := range p.Variants {
		if v.Size == size && v.Color == color {
			id := v.ID
			return &id
		}
	}
	t.Fatalf("variant %s-%s not found", size, color)
	return nil
}
