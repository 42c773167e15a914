package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

// ProductInput is the full product submission. Updates replace every field and
// regenerate the variant set from Sizes x Colors.
type ProductInput struct {
	Title              string
	Description        string
	Brand              string
	Category           string
	SubCategory        string
	PriceCents         int
	DiscountPriceCents *int
	Sizes              []string
	Colors             []string
	Stock              map[string]int
	PriceOverrides     map[string]int
	VariantTitles      map[string]string
	DefaultColor       string
	Images             []ImageInput
	Bestseller         bool
	IsFeatured         bool
	IsActive           *bool
}

// ImageInput is an already hosted image, optionally tagged with a color.
type ImageInput struct {
	URL   string
	Color string
}

func (in ProductInput) matrix() VariantMatrix {
	return VariantMatrix{
		Title:          in.Title,
		BasePriceCents: in.PriceCents,
		Sizes:          dedupe(in.Sizes),
		Colors:         dedupe(in.Colors),
		Stock:          in.Stock,
		PriceOverrides: in.PriceOverrides,
		VariantTitles:  in.VariantTitles,
		DefaultColor:   strings.TrimSpace(in.DefaultColor),
	}
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case strings.TrimSpace(in.Description) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	case strings.TrimSpace(in.Category) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case strings.TrimSpace(in.SubCategory) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "sub_category is required")
	case in.DiscountPriceCents != nil && *in.DiscountPriceCents < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "discount price must not be negative")
	}
	for _, img := range in.Images {
		if strings.TrimSpace(img.URL) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
		}
	}
	return in.matrix().Validate()
}

type service struct {
	repo     *Repository
	tx       txRunner
	currency string
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if strings.TrimSpace(currency) == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{repo: repo, tx: tx, currency: currency}, nil
}

// CreateProduct stores the product with its generated variants and images.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		slug, err := s.pickSlug(ctx, txRepo, input.Title, nil)
		if err != nil {
			return err
		}
		variants, err := s.buildVariants(ctx, txRepo, input.matrix())
		if err != nil {
			return err
		}

		product := &models.Product{
			Slug:     slug,
			Currency: s.currency,
			Variants: variants,
			Images:   buildImages(input.Images, 0),
		}
		applyInput(product, input, variants)

		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID
		return nil
	}); err != nil {
		return nil, asTyped(err, "create product")
	}

	return s.load(ctx, createdID)
}

// UpdateProduct replaces the product fields and its variant set, appending new images.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			return notFound(err, "product not found")
		}

		if strings.TrimSpace(input.Title) != product.Title {
			slug, err := s.pickSlug(ctx, txRepo, input.Title, &product.ID)
			if err != nil {
				return err
			}
			product.Slug = slug
		}

		if err := txRepo.DeleteVariants(ctx, product.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variants")
		}
		variants, err := s.buildVariants(ctx, txRepo, input.matrix())
		if err != nil {
			return err
		}
		for i := range variants {
			variants[i].ProductID = product.ID
		}
		if err := txRepo.InsertVariants(ctx, variants); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert variants")
		}

		next, err := txRepo.NextImagePosition(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: image position")
		}
		images := buildImages(input.Images, next)
		for i := range images {
			images[i].ProductID = product.ID
		}
		if err := txRepo.AppendImages(ctx, images); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert images")
		}

		applyInput(product, input, variants)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		return nil
	}); err != nil {
		return nil, asTyped(err, "update product")
	}

	return s.load(ctx, productID)
}

// GetProduct loads a product by id or slug.
func (s *service) GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.repo.FindByID(ctx, id)
	} else {
		product, err = s.repo.FindBySlug(ctx, strings.TrimSpace(idOrSlug))
	}
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns a page of products matching the filters.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListProducts(ctx, productListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ProductListResult{
		Products:   make([]ProductDTO, 0, len(rows)),
		NextCursor: next,
	}
	for i := range rows {
		result.Products = append(result.Products, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

// DeleteProduct hard deletes the product, its variants and images.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).DeleteProduct(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) pickSlug(ctx context.Context, repo *Repository, title string, excludeID *uuid.UUID) (string, error) {
	base := Slugify(title)
	taken, err := repo.SlugsWithPrefix(ctx, base, excludeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load slugs")
	}
	return nextFree(base, func(candidate string) bool {
		_, ok := taken[candidate]
		return ok
	}), nil
}

func (s *service) buildVariants(ctx context.Context, repo *Repository, matrix VariantMatrix) ([]models.ProductVariant, error) {
	existing, err := repo.SKUsWithPrefix(ctx, matrix.BaseSKUs())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load skus")
	}
	return matrix.BuildVariants(existing)
}

func applyInput(product *models.Product, input ProductInput, variants []models.ProductVariant) {
	product.Title = strings.TrimSpace(input.Title)
	product.Description = strings.TrimSpace(input.Description)
	product.Brand = strings.TrimSpace(input.Brand)
	product.Category = strings.TrimSpace(input.Category)
	product.SubCategory = strings.TrimSpace(input.SubCategory)
	product.PriceCents = input.PriceCents
	product.DiscountPriceCents = input.DiscountPriceCents
	product.Sizes = dedupe(input.Sizes)
	product.Colors = dedupe(input.Colors)
	product.BasePriceCents = BasePrice(variants, input.PriceCents)
	product.Bestseller = input.Bestseller
	product.IsFeatured = input.IsFeatured
	product.IsActive = input.IsActive == nil || *input.IsActive

	product.LegacyStock = nil
	if len(variants) == 0 && len(input.Stock) > 0 {
		product.LegacyStock = input.Stock
	}
}

func buildImages(inputs []ImageInput, start int) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(inputs))
	for i, in := range inputs {
		img := models.ProductImage{
			URL:      strings.TrimSpace(in.URL),
			Position: start + i,
		}
		if color := strings.TrimSpace(in.Color); color != "" {
			img.Color = &color
		}
		images = append(images, img)
	}
	return images
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func asTyped(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
