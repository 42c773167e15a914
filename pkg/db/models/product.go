package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Product is a catalog entry. Products created before variants existed carry a
// LegacyStock map instead of Variants.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title              string           `gorm:"column:title;not null"`
	Slug               string           `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description        string           `gorm:"column:description;not null"`
	Brand              string           `gorm:"column:brand;not null;default:''"`
	Category           string           `gorm:"column:category;not null"`
	SubCategory        string           `gorm:"column:sub_category;not null"`
	BasePriceCents     int              `gorm:"column:base_price_cents;not null"`
	PriceCents         int              `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int             `gorm:"column:discount_price_cents"`
	Currency           string           `gorm:"column:currency;not null;default:'INR'"`
	Sizes              pq.StringArray   `gorm:"column:sizes;type:text[]"`
	Colors             pq.StringArray   `gorm:"column:colors;type:text[]"`
	LegacyStock        types.StockMap   `gorm:"column:legacy_stock;type:jsonb"`
	Bestseller         bool             `gorm:"column:bestseller;not null;default:false"`
	IsFeatured         bool             `gorm:"column:is_featured;not null;default:false"`
	IsActive           bool             `gorm:"column:is_active;not null"`
	Variants           []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images             []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductVariant is one purchasable size and color combination.
type ProductVariant struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU              string    `gorm:"column:sku;not null;uniqueIndex:product_variants_sku_key"`
	Size             string    `gorm:"column:size;not null"`
	Color            string    `gorm:"column:color;not null"`
	PriceCents       int       `gorm:"column:price_cents;not null"`
	Stock            int       `gorm:"column:stock;not null;default:0"`
	VariantTitle     *string   `gorm:"column:variant_title"`
	IsListingVariant bool      `gorm:"column:is_listing_variant;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// ProductImage is a hosted image. A nil Color means the image is shown for every color.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	Position  int       `gorm:"column:position;not null"`
	Color     *string   `gorm:"column:color"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
