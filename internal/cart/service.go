package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for the authenticated user.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*CartDTO, error)
	ReplaceItem(ctx context.Context, userID uuid.UUID, input ReplaceItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, sel product.Selector) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AuthoritativeTotal(ctx context.Context, userID uuid.UUID) (*PricedCart, error)
}

// ItemInput addresses one cart line. Quantity 0 means 1 for AddItem and removal for UpdateItem.
type ItemInput struct {
	ProductID uuid.UUID
	Selector  product.Selector
	Quantity  int
}

// ReplaceItemInput swaps an existing line for a freshly resolved one.
type ReplaceItemInput struct {
	ProductID uuid.UUID
	From      product.Selector
	To        product.Selector
	Quantity  int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	resolver product.Resolver
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, resolver product.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		resolver: resolver,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*CartDTO, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := validateSelector(input.Selector); err != nil {
		return nil, err
	}

	resolved, err := s.resolve(ctx, input.ProductID, input.Selector)
	if err != nil {
		return nil, err
	}

	add := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		line := findLine(cart.Items, input.ProductID, lineSelector(resolved))
		if line == nil {
			if qty > resolved.Stock {
				return pkgerrors.StockInsufficient(resolved.Stock)
			}
			item := snapshot(cart.ID, input.ProductID, resolved, qty)
			if err := repo.CreateItem(ctx, &item); err != nil {
				if errors.Is(err, ErrLineExists) {
					return err
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			return nil
		}

		if line.Quantity+qty > resolved.Stock {
			return pkgerrors.StockInsufficient(resolved.Stock)
		}
		ok, err := repo.IncrementItem(ctx, line.ID, qty, resolved.Stock)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if !ok {
			return pkgerrors.StockInsufficient(resolved.Stock)
		}
		return nil
	}

	err = s.tx.WithTx(ctx, add)
	if errors.Is(err, ErrLineExists) {
		// another request created the line first; merge into it
		err = s.tx.WithTx(ctx, add)
	}
	if errors.Is(err, ErrLineExists) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed, retry")
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*CartDTO, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if err := validateSelector(input.Selector); err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := findLine(cart.Items, input.ProductID, input.Selector)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if input.Quantity == 0 {
		if err := s.repo.DeleteItem(ctx, line.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return s.GetCart(ctx, userID)
	}

	available, err := s.availableFor(ctx, line)
	if err != nil {
		return nil, err
	}
	if input.Quantity > available {
		return nil, pkgerrors.StockInsufficient(available)
	}

	line.Quantity = input.Quantity
	if err := s.repo.SaveItem(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) ReplaceItem(ctx context.Context, userID uuid.UUID, input ReplaceItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := validateSelector(input.From); err != nil {
		return nil, err
	}
	to := input.To
	if to.VariantID == nil && to.Size == "" && to.Color == "" {
		to = input.From
	}
	if err := validateSelector(to); err != nil {
		return nil, err
	}

	resolved, err := s.resolve(ctx, input.ProductID, to)
	if err != nil {
		return nil, err
	}
	if input.Quantity > resolved.Stock {
		return nil, pkgerrors.StockInsufficient(resolved.Stock)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return notFound(err, "cart not found")
		}

		current := findLine(cart.Items, input.ProductID, input.From)
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		target := findLine(cart.Items, input.ProductID, lineSelector(resolved))
		if target != nil && target.ID != current.ID {
			if err := repo.DeleteItem(ctx, current.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove replaced cart item")
			}
			current = target
		}

		refreshed := snapshot(cart.ID, input.ProductID, resolved, input.Quantity)
		refreshed.ID = current.ID
		refreshed.CreatedAt = current.CreatedAt
		if err := repo.SaveItem(ctx, &refreshed); err != nil {
			if errors.Is(err, ErrLineExists) {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart changed, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, sel product.Selector) (*CartDTO, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := findLine(cart.Items, productID, sel)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err := s.repo.DeleteItem(ctx, line.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ClearByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// GetCart returns the lines in insertion order with live stock. A user without a cart gets an empty one.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	catalog, err := s.products.FindByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	dto := newCartDTO(cart)
	for i := range dto.Items {
		item := &dto.Items[i]
		item.AvailableStock = s.liveStock(catalog[item.ProductID], &cart.Items[i])
		item.Available = item.AvailableStock >= item.Quantity
	}
	return dto, nil
}

// AuthoritativeTotal reprices every line against live catalog state.
func (s *service) AuthoritativeTotal(ctx context.Context, userID uuid.UUID) (*PricedCart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PricedCart{UserID: userID, Lines: []PricedLine{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	catalog, err := s.products.FindByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	priced := &PricedCart{CartID: cart.ID, UserID: userID, Lines: make([]PricedLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		p := catalog[item.ProductID]
		if p == nil || !p.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s is no longer available", item.Title)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		resolved, err := s.resolver.Resolve(p, storedSelector(&item))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s is no longer available", item.Title)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		if item.Quantity > resolved.Stock {
			return nil, pkgerrors.StockInsufficient(resolved.Stock)
		}

		line := PricedLine{
			Item:           item,
			Resolved:       resolved,
			UnitPriceCents: resolved.PriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: resolved.PriceCents * item.Quantity,
		}
		priced.Lines = append(priced.Lines, line)
		priced.SubtotalCents += line.LineTotalCents
	}
	return priced, nil
}

// EstimateTotal sums snapshot price times quantity.
func EstimateTotal(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.PriceCents * item.Quantity
	}
	return total
}

func (s *service) resolve(ctx context.Context, productID uuid.UUID, sel product.Selector) (product.ResolvedVariant, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return product.ResolvedVariant{}, notFound(err, "product not found")
	}
	if !p.IsActive {
		return product.ResolvedVariant{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.resolver.Resolve(p, sel)
}

func (s *service) loadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "cart item not found")
	}
	return cart, nil
}

func (s *service) availableFor(ctx context.Context, line *models.CartItem) (int, error) {
	p, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.liveStock(p, line), nil
}

// liveStock is 0 when the product or variant has vanished.
func (s *service) liveStock(p *models.Product, line *models.CartItem) int {
	if p == nil || !p.IsActive {
		return 0
	}
	resolved, err := s.resolver.Resolve(p, storedSelector(line))
	if err != nil {
		return 0
	}
	return resolved.Stock
}

func validateSelector(sel product.Selector) error {
	if sel.IsVariant() {
		return nil
	}
	if strings.TrimSpace(sel.Size) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant_id or size is required")
	}
	return nil
}

// lineSelector is the identity a resolved unit is stored under.
func lineSelector(r product.ResolvedVariant) product.Selector {
	if r.VariantID != nil {
		return product.Selector{VariantID: r.VariantID}
	}
	return product.Selector{Size: r.Size, Color: r.Color}
}

func storedSelector(item *models.CartItem) product.Selector {
	if item.VariantID != nil {
		return product.Selector{VariantID: item.VariantID}
	}
	return product.Selector{Size: item.Size, Color: item.Color}
}

// findLine matches by (product, variant) for variant selectors and by (product, size, color) otherwise.
func findLine(items []models.CartItem, productID uuid.UUID, sel product.Selector) *models.CartItem {
	for i := range items {
		item := &items[i]
		if item.ProductID != productID {
			continue
		}
		if sel.IsVariant() {
			if item.VariantID != nil && *item.VariantID == *sel.VariantID {
				return item
			}
			continue
		}
		if item.Size == sel.Size && item.Color == sel.Color {
			return item
		}
	}
	return nil
}

func snapshot(cartID, productID uuid.UUID, r product.ResolvedVariant, qty int) models.CartItem {
	return models.CartItem{
		CartID:     cartID,
		ProductID:  productID,
		VariantID:  r.VariantID,
		SKU:        r.SKU,
		Size:       r.Size,
		Color:      r.Color,
		Title:      r.Title,
		PriceCents: r.PriceCents,
		Image:      r.Image,
		Quantity:   qty,
	}
}

func productIDs(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
