package taxonomy

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type CategoryDTO struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Image         string           `json:"image,omitempty"`
	IsActive      bool             `json:"is_active"`
	Subcategories []SubcategoryDTO `json:"subcategories"`
	CreatedAt     time.Time        `json:"created_at"`
}

type SubcategoryDTO struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Image      string    `json:"image,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type ColorDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	HexCode   string    `json:"hex_code"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryInput creates or replaces a category. Code defaults to the slugified name.
type CategoryInput struct {
	Code     string `json:"code" yaml:"code" validate:"omitempty,max=60"`
	Name     string `json:"name" yaml:"name" validate:"required,max=120"`
	Image    string `json:"image" yaml:"image" validate:"omitempty,url"`
	IsActive *bool  `json:"is_active" yaml:"is_active"`
}

// SubcategoryInput creates or replaces a subcategory under CategoryID.
type SubcategoryInput struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	Code       string    `json:"code" validate:"omitempty,max=60"`
	Name       string    `json:"name" validate:"required,max=120"`
	Image      string    `json:"image" validate:"omitempty,url"`
	IsActive   *bool     `json:"is_active"`
}

type ColorInput struct {
	Name    string `json:"name" yaml:"name" validate:"required,max=60"`
	HexCode string `json:"hex_code" yaml:"hex_code" validate:"omitempty,hexcolor"`
}

func newCategoryDTO(c *models.Category, subs []models.Subcategory) CategoryDTO {
	out := CategoryDTO{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		Image:         c.Image,
		IsActive:      c.IsActive,
		Subcategories: make([]SubcategoryDTO, 0, len(subs)),
		CreatedAt:     c.CreatedAt,
	}
	for i := range subs {
		out.Subcategories = append(out.Subcategories, newSubcategoryDTO(&subs[i]))
	}
	return out
}

func newSubcategoryDTO(s *models.Subcategory) SubcategoryDTO {
	return SubcategoryDTO{
		ID:         s.ID,
		CategoryID: s.CategoryID,
		Code:       s.Code,
		Name:       s.Name,
		Image:      s.Image,
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt,
	}
}

func newColorDTO(c *models.Color) ColorDTO {
	return ColorDTO{ID: c.ID, Name: c.Name, HexCode: c.HexCode, CreatedAt: c.CreatedAt}
}
