package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID      `json:"id"`
	Title              string         `json:"title"`
	Slug               string         `json:"slug"`
	Description        string         `json:"description"`
	Brand              string         `json:"brand"`
	Category           string         `json:"category"`
	SubCategory        string         `json:"sub_category"`
	BasePriceCents     int            `json:"base_price_cents"`
	PriceCents         int            `json:"price_cents"`
	DiscountPriceCents *int           `json:"discount_price_cents,omitempty"`
	Currency           string         `json:"currency"`
	Sizes              []string       `json:"sizes"`
	Colors             []string       `json:"colors"`
	ListingColor       string         `json:"listing_color,omitempty"`
	Variants           []VariantDTO   `json:"variants"`
	Images             []ImageDTO     `json:"images"`
	LegacyStock        map[string]int `json:"stock_by_variant,omitempty"`
	InStock            bool           `json:"in_stock"`
	Bestseller         bool           `json:"bestseller"`
	IsFeatured         bool           `json:"is_featured"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// VariantDTO exposes one size and color combination with its filtered images.
type VariantDTO struct {
	ID               uuid.UUID `json:"id"`
	SKU              string    `json:"sku"`
	Size             string    `json:"size"`
	Color            string    `json:"color"`
	PriceCents       int       `json:"price_cents"`
	Stock            int       `json:"stock"`
	Title            string    `json:"title"`
	IsListingVariant bool      `json:"is_listing_variant"`
	Images           []string  `json:"images"`
}

// ImageDTO is a hosted product image.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
	Color    *string   `json:"color,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                 product.ID,
		Title:              product.Title,
		Slug:               product.Slug,
		Description:        product.Description,
		Brand:              product.Brand,
		Category:           product.Category,
		SubCategory:        product.SubCategory,
		BasePriceCents:     product.BasePriceCents,
		PriceCents:         product.PriceCents,
		DiscountPriceCents: product.DiscountPriceCents,
		Currency:           product.Currency,
		Sizes:              append([]string{}, product.Sizes...),
		Colors:             append([]string{}, product.Colors...),
		Variants:           make([]VariantDTO, 0, len(product.Variants)),
		Images:             make([]ImageDTO, 0, len(product.Images)),
		Bestseller:         product.Bestseller,
		IsFeatured:         product.IsFeatured,
		IsActive:           product.IsActive,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:               v.ID,
			SKU:              v.SKU,
			Size:             v.Size,
			Color:            v.Color,
			PriceCents:       v.PriceCents,
			Stock:            v.Stock,
			Title:            VariantTitle(product.Title, v),
			IsListingVariant: v.IsListingVariant,
			Images:           imagesForColor(product.Images, v.Color),
		})
		if v.IsListingVariant && dto.ListingColor == "" {
			dto.ListingColor = v.Color
		}
		if v.Stock > 0 {
			dto.InStock = true
		}
	}

	for _, img := range sortedImages(product.Images) {
		dto.Images = append(dto.Images, ImageDTO{
			ID:       img.ID,
			URL:      img.URL,
			Position: img.Position,
			Color:    img.Color,
		})
	}

	if len(product.Variants) == 0 {
		dto.LegacyStock = product.LegacyStock
		dto.InStock = legacyInStock(product.LegacyStock)
	}
	return dto
}

func legacyInStock(stock map[string]int) bool {
	if len(stock) == 0 {
		return true
	}
	for _, qty := range stock {
		if qty > 0 {
			return true
		}
	}
	return false
}
