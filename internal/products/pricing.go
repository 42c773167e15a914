package product

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// VariantMatrix is the submitted size x color grid a product's variants are generated from.
type VariantMatrix struct {
	Title          string
	BasePriceCents int
	Sizes          []string
	Colors         []string
	Stock          map[string]int
	PriceOverrides map[string]int
	VariantTitles  map[string]string
	DefaultColor   string
}

// VariantKey is the "{size}-{color}" key used by the stock and price maps.
func VariantKey(size, color string) string {
	return size + "-" + color
}

// Validate rejects negative prices and stock.
func (m VariantMatrix) Validate() error {
	if m.BasePriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	for key, qty := range m.Stock {
		if qty < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock for %s must not be negative", key))
		}
	}
	for key, price := range m.PriceOverrides {
		if price < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("price for %s must not be negative", key))
		}
	}
	return nil
}

// ListingColor is the single color flagged for catalog listings. An empty or
// unknown default falls back to the first color.
func (m VariantMatrix) ListingColor() string {
	if len(m.Colors) == 0 {
		return ""
	}
	for _, color := range m.Colors {
		if color == m.DefaultColor {
			return color
		}
	}
	return m.Colors[0]
}

// BaseSKUs returns the un-suffixed SKU of every cell, used to prefetch collisions.
func (m VariantMatrix) BaseSKUs() []string {
	out := make([]string, 0, len(m.Sizes)*len(m.Colors))
	for _, size := range m.Sizes {
		for _, color := range m.Colors {
			out = append(out, GenerateSKU(m.Title, color, size))
		}
	}
	return out
}

// BuildVariants synthesizes one variant per size x color. existing holds SKUs
// already stored; collisions there or within the batch get a numeric suffix.
func (m VariantMatrix) BuildVariants(existing map[string]struct{}) ([]models.ProductVariant, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(m.Sizes) == 0 || len(m.Colors) == 0 {
		return nil, nil
	}

	taken := make(map[string]struct{}, len(existing))
	for sku := range existing {
		taken[sku] = struct{}{}
	}
	isTaken := func(sku string) bool {
		_, ok := taken[sku]
		return ok
	}

	listing := m.ListingColor()
	variants := make([]models.ProductVariant, 0, len(m.Sizes)*len(m.Colors))
	for _, size := range m.Sizes {
		for _, color := range m.Colors {
			key := VariantKey(size, color)

			price := m.BasePriceCents
			if override, ok := m.PriceOverrides[key]; ok {
				price = override
			}

			sku := nextFree(GenerateSKU(m.Title, color, size), isTaken)
			taken[sku] = struct{}{}

			variant := models.ProductVariant{
				SKU:              sku,
				Size:             size,
				Color:            color,
				PriceCents:       price,
				Stock:            m.Stock[key],
				IsListingVariant: color == listing,
			}
			if title := strings.TrimSpace(m.VariantTitles[color]); title != "" {
				variant.VariantTitle = &title
			}
			variants = append(variants, variant)
		}
	}
	return variants, nil
}

// BasePrice is the minimum variant price, or flat when there are no variants.
func BasePrice(variants []models.ProductVariant, flat int) int {
	if len(variants) == 0 {
		return flat
	}
	lowest := variants[0].PriceCents
	for _, v := range variants[1:] {
		if v.PriceCents < lowest {
			lowest = v.PriceCents
		}
	}
	return lowest
}
