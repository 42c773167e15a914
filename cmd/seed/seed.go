package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// File is the seed document layout.
type File struct {
	Owner      *auth.OwnerRequest    `yaml:"owner"`
	Categories []categorySeed        `yaml:"categories"`
	Colors     []taxonomy.ColorInput `yaml:"colors"`
	Coupons    []couponSeed          `yaml:"coupons"`
}

type categorySeed struct {
	taxonomy.CategoryInput `yaml:",inline"`
	Subcategories          []subcategorySeed `yaml:"subcategories"`
}

type subcategorySeed struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
}

type couponSeed struct {
	Code             string    `yaml:"code"`
	Type             string    `yaml:"type"`
	Value            string    `yaml:"value"`
	MinOrderCents    int       `yaml:"min_order_cents"`
	MaxDiscountCents *int      `yaml:"max_discount_cents"`
	ExpiresAt        time.Time `yaml:"expires_at"`
	UsageLimit       *int      `yaml:"usage_limit"`
	Description      string    `yaml:"description"`
}

// Summary counts what a run created; rows that already existed are skipped.
type Summary struct {
	OwnerCreated  bool
	Categories    int
	Subcategories int
	Colors        int
	Coupons       int
	Skipped       int
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseFile(raw)
}

func ParseFile(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

type Seeder struct {
	logg     *logger.Logger
	owners   auth.OwnerBootstrapper
	taxonomy taxonomy.Service
	coupons  coupons.Service
}

func NewSeeder(logg *logger.Logger, owners auth.OwnerBootstrapper, tax taxonomy.Service, cps coupons.Service) (*Seeder, error) {
	if owners == nil {
		return nil, errors.New("owner bootstrapper is required")
	}
	if tax == nil {
		return nil, errors.New("taxonomy service is required")
	}
	if cps == nil {
		return nil, errors.New("coupon service is required")
	}
	return &Seeder{logg: logg, owners: owners, taxonomy: tax, coupons: cps}, nil
}

// Apply is safe to re-run: conflicts on unique codes are counted as skipped.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Summary, error) {
	sum := &Summary{}

	if f.Owner != nil {
		owner, created, err := s.owners.EnsureOwner(ctx, *f.Owner)
		if err != nil {
			return sum, fmt.Errorf("ensure owner: %w", err)
		}
		sum.OwnerCreated = created
		s.info(ctx, "owner ready", map[string]any{"user_id": owner.ID.String(), "created": created})
	}

	for _, c := range f.Categories {
		if _, err := s.taxonomy.CreateCategory(ctx, c.CategoryInput); err != nil {
			if !s.skip(sum, err) {
				return sum, fmt.Errorf("category %q: %w", c.Name, err)
			}
		} else {
			sum.Categories++
		}
	}

	if err := s.applySubcategories(ctx, f.Categories, sum); err != nil {
		return sum, err
	}

	for _, c := range f.Colors {
		if _, err := s.taxonomy.CreateColor(ctx, c); err != nil {
			if !s.skip(sum, err) {
				return sum, fmt.Errorf("color %q: %w", c.Name, err)
			}
			continue
		}
		sum.Colors++
	}

	for _, c := range f.Coupons {
		input, err := c.toInput()
		if err != nil {
			return sum, fmt.Errorf("coupon %q: %w", c.Code, err)
		}
		if _, err := s.coupons.Create(ctx, input); err != nil {
			if !s.skip(sum, err) {
				return sum, fmt.Errorf("coupon %q: %w", c.Code, err)
			}
			continue
		}
		sum.Coupons++
	}

	s.info(ctx, "seed applied", map[string]any{
		"categories":    sum.Categories,
		"subcategories": sum.Subcategories,
		"colors":        sum.Colors,
		"coupons":       sum.Coupons,
		"skipped":       sum.Skipped,
	})
	return sum, nil
}

// applySubcategories resolves parents by name after the category pass so existing categories work too.
func (s *Seeder) applySubcategories(ctx context.Context, cats []categorySeed, sum *Summary) error {
	existing, err := s.taxonomy.ListCategories(ctx, true)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	parents := make(map[string]taxonomy.CategoryDTO, len(existing))
	for _, c := range existing {
		parents[strings.ToLower(c.Name)] = c
	}

	for _, c := range cats {
		parent, ok := parents[strings.ToLower(strings.TrimSpace(c.Name))]
		if !ok {
			continue
		}
		for _, sub := range c.Subcategories {
			_, err := s.taxonomy.CreateSubcategory(ctx, taxonomy.SubcategoryInput{
				CategoryID: parent.ID,
				Code:       sub.Code,
				Name:       sub.Name,
				Image:      sub.Image,
			})
			if err != nil {
				if !s.skip(sum, err) {
					return fmt.Errorf("subcategory %q: %w", sub.Name, err)
				}
				continue
			}
			sum.Subcategories++
		}
	}
	return nil
}

func (s *Seeder) skip(sum *Summary, err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		return false
	}
	sum.Skipped++
	return true
}

func (s *Seeder) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func (c couponSeed) toInput() (coupons.CreateInput, error) {
	kind, err := enums.ParseCouponType(c.Type)
	if err != nil {
		return coupons.CreateInput{}, err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(c.Value))
	if err != nil {
		return coupons.CreateInput{}, fmt.Errorf("invalid value %q: %w", c.Value, err)
	}
	return coupons.CreateInput{
		Code:             c.Code,
		Type:             kind,
		Value:            value,
		MinOrderCents:    c.MinOrderCents,
		MaxDiscountCents: c.MaxDiscountCents,
		ExpiresAt:        c.ExpiresAt,
		UsageLimit:       c.UsageLimit,
		Description:      c.Description,
	}, nil
}
