package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a top-level catalog grouping such as "men" or "women".
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:categories_code_key"`
	Name      string    `gorm:"column:name;not null"`
	Image     string    `gorm:"column:image;not null;default:''"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Subcategory narrows a category, e.g. "topwear" under "men".
type Subcategory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Code       string    `gorm:"column:code;not null;uniqueIndex:subcategories_code_key"`
	Name       string    `gorm:"column:name;not null"`
	Image      string    `gorm:"column:image;not null;default:''"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Subcategory) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Color is a named swatch offered to product editors.
type Color struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:colors_name_key"`
	HexCode   string    `gorm:"column:hex_code;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Color) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
