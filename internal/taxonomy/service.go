package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the catalog taxonomy: categories with nested subcategories, and colors.
type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateSubcategory(ctx context.Context, input SubcategoryInput) (*SubcategoryDTO, error)
	UpdateSubcategory(ctx context.Context, id uuid.UUID, input SubcategoryInput) (*SubcategoryDTO, error)
	DeleteSubcategory(ctx context.Context, id uuid.UUID) error

	ListColors(ctx context.Context) ([]ColorDTO, error)
	CreateColor(ctx context.Context, input ColorInput) (*ColorDTO, error)
	UpdateColor(ctx context.Context, id uuid.UUID, input ColorInput) (*ColorDTO, error)
	DeleteColor(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("taxonomy repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ListCategories returns the category tree. The public listing hides inactive
// categories and subcategories.
func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error) {
	cats, err := s.repo.ListCategories(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	ids := make([]uuid.UUID, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	byCategory := map[uuid.UUID][]models.Subcategory{}
	if len(ids) > 0 {
		subs, err := s.repo.ListSubcategories(ctx, ids, !includeInactive)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
		}
		for _, sub := range subs {
			byCategory[sub.CategoryID] = append(byCategory[sub.CategoryID], sub)
		}
	}

	out := make([]CategoryDTO, 0, len(cats))
	for i := range cats {
		out = append(out, newCategoryDTO(&cats[i], byCategory[cats[i].ID]))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name, code, err := nameAndCode(input.Name, input.Code)
	if err != nil {
		return nil, err
	}
	c := &models.Category{
		Code:     code,
		Name:     name,
		Image:    strings.TrimSpace(input.Image),
		IsActive: activeOrDefault(input.IsActive),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, conflictOr(err, "category code already exists", "create category")
	}
	dto := newCategoryDTO(c, nil)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	name, code, err := nameAndCode(input.Name, input.Code)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category not found")
	}
	c.Name = name
	c.Code = code
	c.Image = strings.TrimSpace(input.Image)
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	if err := s.repo.SaveCategory(ctx, c); err != nil {
		return nil, conflictOr(err, "category code already exists", "update category")
	}
	subs, err := s.repo.ListSubcategories(ctx, []uuid.UUID{c.ID}, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
	}
	dto := newCategoryDTO(c, subs)
	return &dto, nil
}

// DeleteCategory removes the category together with its subcategories.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteCategory(ctx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) CreateSubcategory(ctx context.Context, input SubcategoryInput) (*SubcategoryDTO, error) {
	name, code, err := nameAndCode(input.Name, input.Code)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategory(ctx, input.CategoryID); err != nil {
		return nil, notFound(err, "category not found")
	}
	sub := &models.Subcategory{
		CategoryID: input.CategoryID,
		Code:       code,
		Name:       name,
		Image:      strings.TrimSpace(input.Image),
		IsActive:   activeOrDefault(input.IsActive),
	}
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		return nil, conflictOr(err, "subcategory code already exists", "create subcategory")
	}
	dto := newSubcategoryDTO(sub)
	return &dto, nil
}

func (s *service) UpdateSubcategory(ctx context.Context, id uuid.UUID, input SubcategoryInput) (*SubcategoryDTO, error) {
	name, code, err := nameAndCode(input.Name, input.Code)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.FindSubcategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "subcategory not found")
	}
	if input.CategoryID != uuid.Nil && input.CategoryID != sub.CategoryID {
		if _, err := s.repo.FindCategory(ctx, input.CategoryID); err != nil {
			return nil, notFound(err, "category not found")
		}
		sub.CategoryID = input.CategoryID
	}
	sub.Name = name
	sub.Code = code
	sub.Image = strings.TrimSpace(input.Image)
	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}
	if err := s.repo.SaveSubcategory(ctx, sub); err != nil {
		return nil, conflictOr(err, "subcategory code already exists", "update subcategory")
	}
	dto := newSubcategoryDTO(sub)
	return &dto, nil
}

func (s *service) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.DeleteSubcategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subcategory")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subcategory not found")
	}
	return nil
}

func (s *service) ListColors(ctx context.Context) ([]ColorDTO, error) {
	rows, err := s.repo.ListColors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list colors")
	}
	out := make([]ColorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newColorDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateColor(ctx context.Context, input ColorInput) (*ColorDTO, error) {
	name, hex, err := validateColor(input)
	if err != nil {
		return nil, err
	}
	c := &models.Color{Name: name, HexCode: hex}
	if err := s.repo.CreateColor(ctx, c); err != nil {
		return nil, conflictOr(err, "color already exists", "create color")
	}
	dto := newColorDTO(c)
	return &dto, nil
}

func (s *service) UpdateColor(ctx context.Context, id uuid.UUID, input ColorInput) (*ColorDTO, error) {
	name, hex, err := validateColor(input)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindColor(ctx, id)
	if err != nil {
		return nil, notFound(err, "color not found")
	}
	c.Name = name
	c.HexCode = hex
	if err := s.repo.SaveColor(ctx, c); err != nil {
		return nil, conflictOr(err, "color already exists", "update color")
	}
	dto := newColorDTO(c)
	return &dto, nil
}

func (s *service) DeleteColor(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.DeleteColor(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete color")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "color not found")
	}
	return nil
}

func nameAndCode(rawName, rawCode string) (string, string, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	code := strings.TrimSpace(rawCode)
	if code == "" {
		code = name
	}
	return name, product.Slugify(code), nil
}

func validateColor(input ColorInput) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	hex := strings.TrimSpace(input.HexCode)
	if hex != "" && !hexColorRe.MatchString(hex) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "hex_code must look like #RRGGBB")
	}
	return name, strings.ToUpper(hex), nil
}

func activeOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func conflictOr(err error, conflictMsg, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, conflictMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
