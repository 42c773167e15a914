package cart

import (
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartDTO is the cart returned to clients.
type CartDTO struct {
	ID                  *uuid.UUID    `json:"id,omitempty"`
	UserID              uuid.UUID     `json:"user_id"`
	Items               []CartItemDTO `json:"items"`
	ItemCount           int           `json:"item_count"`
	EstimatedTotalCents int           `json:"estimated_total_cents"`
	UpdatedAt           *time.Time    `json:"updated_at,omitempty"`
}

// CartItemDTO is a snapshot line enriched with live stock.
type CartItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	SKU            string     `json:"sku,omitempty"`
	Title          string     `json:"title"`
	Size           string     `json:"size,omitempty"`
	Color          string     `json:"color,omitempty"`
	PriceCents     int        `json:"price_cents"`
	Image          string     `json:"image,omitempty"`
	Quantity       int        `json:"quantity"`
	LineTotalCents int        `json:"line_total_cents"`
	AvailableStock int        `json:"available_stock"`
	Available      bool       `json:"available"`
}

// PricedCart is the cart repriced against live catalog state.
type PricedCart struct {
	CartID        uuid.UUID    `json:"cart_id"`
	UserID        uuid.UUID    `json:"user_id"`
	Lines         []PricedLine `json:"lines"`
	SubtotalCents int          `json:"subtotal_cents"`
}

// IsEmpty reports whether there is nothing to check out.
func (p *PricedCart) IsEmpty() bool {
	return p == nil || len(p.Lines) == 0
}

// PricedLine pairs a stored line with its live resolution.
type PricedLine struct {
	Item           models.CartItem         `json:"-"`
	Resolved       product.ResolvedVariant `json:"-"`
	UnitPriceCents int                     `json:"unit_price_cents"`
	Quantity       int                     `json:"quantity"`
	LineTotalCents int                     `json:"line_total_cents"`
}

func emptyCart(userID uuid.UUID) *CartDTO {
	return &CartDTO{UserID: userID, Items: []CartItemDTO{}}
}

func newCartDTO(cart *models.Cart) *CartDTO {
	id := cart.ID
	updated := cart.UpdatedAt
	dto := &CartDTO{
		ID:                  &id,
		UserID:              cart.UserID,
		Items:               make([]CartItemDTO, 0, len(cart.Items)),
		EstimatedTotalCents: EstimateTotal(cart.Items),
		UpdatedAt:           &updated,
	}
	for _, item := range cart.Items {
		dto.ItemCount += item.Quantity
		dto.Items = append(dto.Items, CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			SKU:            item.SKU,
			Title:          item.Title,
			Size:           item.Size,
			Color:          item.Color,
			PriceCents:     item.PriceCents,
			Image:          item.Image,
			Quantity:       item.Quantity,
			LineTotalCents: item.PriceCents * item.Quantity,
		})
	}
	return dto
}
