package cart

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// selectorRequest addresses a line either by variant id or by size and color.
type selectorRequest struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Size      string     `json:"size,omitempty" validate:"max=20"`
	Color     string     `json:"color,omitempty" validate:"max=40"`
}

func (s selectorRequest) toSelector() product.Selector {
	return product.Selector{
		VariantID: s.VariantID,
		Size:      strings.TrimSpace(s.Size),
		Color:     strings.TrimSpace(s.Color),
	}
}

type itemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	selectorRequest
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

type replaceRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	From      selectorRequest `json:"from"`
	To        selectorRequest `json:"to"`
	Quantity  int             `json:"quantity" validate:"min=0,max=99"`
}

// selectorFromQuery reads variant_id, size and color from the query string.
func selectorFromQuery(r *http.Request) (product.Selector, error) {
	query := r.URL.Query()
	sel := product.Selector{
		Size:  strings.TrimSpace(query.Get("size")),
		Color: strings.TrimSpace(query.Get("color")),
	}
	if raw := strings.TrimSpace(query.Get("variant_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return product.Selector{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant_id").WithDetails(map[string]any{"field": "variant_id"})
		}
		sel.VariantID = &id
	}
	return sel, nil
}
