package product

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// DefaultLegacyStockCeiling caps stock read from the legacy flat map.
const DefaultLegacyStockCeiling = 10

// Selector addresses a purchasable unit either by variant id or by size and color.
type Selector struct {
	VariantID *uuid.UUID
	Size      string
	Color     string
}

// IsVariant reports whether the selector addresses a variant by id.
func (s Selector) IsVariant() bool {
	return s.VariantID != nil && *s.VariantID != uuid.Nil
}

// ResolvedVariant is the concrete unit a selector points at.
type ResolvedVariant struct {
	VariantID  *uuid.UUID
	SKU        string
	Size       string
	Color      string
	PriceCents int
	Stock      int
	Title      string
	Images     []string
	Image      string
}

// StockSource is how a product tracks stock: a variant catalog or the legacy flat map.
type StockSource interface {
	resolve(p *models.Product, sel Selector, ceiling int) (ResolvedVariant, error)
}

// VariantCatalog resolves against a product's generated variants.
type VariantCatalog struct {
	Variants []models.ProductVariant
}

// LegacyStock resolves against the flat stock map products carried before variants existed.
type LegacyStock struct {
	Stock map[string]int
}

// SourceFor picks the stock model of the product once.
func SourceFor(p *models.Product) StockSource {
	if len(p.Variants) > 0 {
		return VariantCatalog{Variants: p.Variants}
	}
	return LegacyStock{Stock: p.LegacyStock}
}

// Resolver maps selectors onto product variants.
type Resolver struct {
	legacyCeiling int
}

// NewResolver builds a resolver. A non-positive ceiling falls back to DefaultLegacyStockCeiling.
func NewResolver(legacyCeiling int) Resolver {
	if legacyCeiling <= 0 {
		legacyCeiling = DefaultLegacyStockCeiling
	}
	return Resolver{legacyCeiling: legacyCeiling}
}

// Resolve returns the sku, price, stock, title and images for the selection.
func (r Resolver) Resolve(p *models.Product, sel Selector) (ResolvedVariant, error) {
	if p == nil {
		return ResolvedVariant{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return SourceFor(p).resolve(p, sel, r.legacyCeiling)
}

func (c VariantCatalog) resolve(p *models.Product, sel Selector, _ int) (ResolvedVariant, error) {
	var match *models.ProductVariant
	for i := range c.Variants {
		v := &c.Variants[i]
		if sel.IsVariant() {
			if v.ID == *sel.VariantID {
				match = v
				break
			}
			continue
		}
		if v.Size == sel.Size && v.Color == sel.Color {
			match = v
			break
		}
	}
	if match == nil {
		return ResolvedVariant{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	images := imagesForColor(p.Images, match.Color)
	id := match.ID
	return ResolvedVariant{
		VariantID:  &id,
		SKU:        match.SKU,
		Size:       match.Size,
		Color:      match.Color,
		PriceCents: match.PriceCents,
		Stock:      match.Stock,
		Title:      VariantTitle(p.Title, match),
		Images:     images,
		Image:      representativeImage(images, p.Images),
	}, nil
}

func (l LegacyStock) resolve(p *models.Product, sel Selector, ceiling int) (ResolvedVariant, error) {
	if sel.IsVariant() {
		return ResolvedVariant{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	images := imagesForColor(p.Images, sel.Color)
	return ResolvedVariant{
		Size:       sel.Size,
		Color:      sel.Color,
		PriceCents: EffectivePrice(p),
		Stock:      l.stockFor(sel.Size, sel.Color, ceiling),
		Title:      p.Title,
		Images:     images,
		Image:      representativeImage(images, p.Images),
	}, nil
}

// stockFor reads size-color, then size, and clamps to [0, ceiling]. Unknown keys get the ceiling.
func (l LegacyStock) stockFor(size, color string, ceiling int) int {
	qty, ok := l.Stock[size+"-"+color]
	if !ok {
		qty, ok = l.Stock[size]
	}
	if !ok {
		return ceiling
	}
	if qty < 0 {
		return 0
	}
	if qty > ceiling {
		return ceiling
	}
	return qty
}

// EffectivePrice is the flat price a legacy product sells at.
func EffectivePrice(p *models.Product) int {
	if p.DiscountPriceCents != nil && *p.DiscountPriceCents > 0 {
		return *p.DiscountPriceCents
	}
	return p.PriceCents
}

// VariantTitle returns the override when set, else "{title} - {color} / {size}".
func VariantTitle(productTitle string, v *models.ProductVariant) string {
	if v.VariantTitle != nil && strings.TrimSpace(*v.VariantTitle) != "" {
		return *v.VariantTitle
	}
	return productTitle + " - " + v.Color + " / " + v.Size
}

// imagesForColor keeps untagged images and those tagged with color, ordered by position.
func imagesForColor(images []models.ProductImage, color string) []string {
	sorted := sortedImages(images)
	out := make([]string, 0, len(sorted))
	for _, img := range sorted {
		if img.Color == nil || *img.Color == "" || strings.EqualFold(*img.Color, color) {
			out = append(out, img.URL)
		}
	}
	return out
}

func representativeImage(matched []string, all []models.ProductImage) string {
	if len(matched) > 0 {
		return matched[0]
	}
	sorted := sortedImages(all)
	if len(sorted) > 0 {
		return sorted[0].URL
	}
	return ""
}

func sortedImages(images []models.ProductImage) []models.ProductImage {
	out := make([]models.ProductImage, len(images))
	copy(out, images)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
