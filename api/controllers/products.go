package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type productImageRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Color string `json:"color,omitempty"`
}

type productRequest struct {
	Title              string                `json:"title" validate:"required,max=200"`
	Description        string                `json:"description" validate:"max=5000"`
	Brand              string                `json:"brand" validate:"max=120"`
	Category           string                `json:"category" validate:"required"`
	SubCategory        string                `json:"sub_category"`
	PriceCents         int                   `json:"price_cents" validate:"gt=0"`
	DiscountPriceCents *int                  `json:"discount_price_cents,omitempty" validate:"omitempty,gt=0"`
	Sizes              []string              `json:"sizes"`
	Colors             []string              `json:"colors"`
	Stock              map[string]int        `json:"stock"`
	PriceOverrides     map[string]int        `json:"price_overrides"`
	VariantTitles      map[string]string     `json:"variant_titles"`
	DefaultColor       string                `json:"default_color"`
	Images             []productImageRequest `json:"images" validate:"dive"`
	Bestseller         bool                  `json:"bestseller"`
	IsFeatured         bool                  `json:"is_featured"`
	IsActive           *bool                 `json:"is_active,omitempty"`
}

func (p productRequest) toInput() product.ProductInput {
	images := make([]product.ImageInput, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, product.ImageInput{URL: img.URL, Color: img.Color})
	}
	return product.ProductInput{
		Title:              p.Title,
		Description:        p.Description,
		Brand:              p.Brand,
		Category:           p.Category,
		SubCategory:        p.SubCategory,
		PriceCents:         p.PriceCents,
		DiscountPriceCents: p.DiscountPriceCents,
		Sizes:              p.Sizes,
		Colors:             p.Colors,
		Stock:              p.Stock,
		PriceOverrides:     p.PriceOverrides,
		VariantTitles:      p.VariantTitles,
		DefaultColor:       p.DefaultColor,
		Images:             images,
		Bestseller:         p.Bestseller,
		IsFeatured:         p.IsFeatured,
		IsActive:           p.IsActive,
	}
}

// ProductList serves the public catalog. Inactive products are only listed for staff
// callers passing include_inactive=true.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		filters := product.ProductListFilters{
			Category:    strings.TrimSpace(query.Get("category")),
			SubCategory: strings.TrimSpace(query.Get("sub_category")),
			Query:       validators.SanitizeString(query.Get("q"), 100),
			ActiveOnly:  true,
		}
		if filters.Bestseller, err = parseOptionalBool(query.Get("bestseller"), "bestseller"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if filters.Featured, err = parseOptionalBool(query.Get("featured"), "featured"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if middleware.RoleFromContext(ctx).IsStaff() && query.Get("include_inactive") == "true" {
			filters.ActiveOnly = false
		}

		result, err := svc.ListProducts(ctx, product.ListProductsInput{
			Filters:    filters,
			Pagination: pagination.Params{Limit: limit, Cursor: strings.TrimSpace(query.Get("cursor"))},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDetail resolves a product by id or slug.
func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		ref := strings.TrimSpace(chi.URLParam(r, "productRef"))
		if ref == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product reference is required"))
			return
		}

		dto, err := svc.GetProduct(ctx, ref)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !dto.IsActive && !middleware.RoleFromContext(ctx).IsStaff() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateProduct(ctx, body.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AdminUpdateProduct replaces the product definition; variants are re-synthesized from the matrix.
func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateProduct(ctx, productID, body.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteProduct(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseOptionalBool(raw, field string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
