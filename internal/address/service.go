package address

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's saved addresses. At most one address per user is the default.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Add stores the address. The first address of a user always becomes the default.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	input = trimInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:       userID,
		Name:         input.Name,
		Phone:        input.Phone,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		Pincode:      input.Pincode,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, addr); err != nil {
			return err
		}
		if input.IsDefault || count == 0 {
			addr.IsDefault = true
			return repo.SetDefault(ctx, userID, &addr.ID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add address")
	}

	dto := NewAddressDTO(addr)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewAddressDTO(&rows[i]))
	}
	return out, nil
}

// Get returns the address when userID owns it.
func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return addr, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error) {
	input = trimInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	addr, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	addr.Name = input.Name
	addr.Phone = input.Phone
	addr.AddressLine1 = input.AddressLine1
	addr.AddressLine2 = input.AddressLine2
	addr.City = input.City
	addr.State = input.State
	addr.Pincode = input.Pincode

	if err := s.repo.UpdateFields(ctx, addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	dto := NewAddressDTO(addr)
	return &dto, nil
}

// Delete removes the address. Deleting the default promotes the newest remaining address.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	addr, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if addr.IsDefault {
			next, err := repo.NewestExcept(ctx, userID, addr.ID)
			if err != nil {
				return err
			}
			var nextID *uuid.UUID
			if next != nil {
				nextID = &next.ID
			}
			if err := repo.SetDefault(ctx, userID, nextID); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, addr.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).SetDefault(ctx, userID, &id)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return nil
}

func trimInput(in AddressInput) AddressInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
	return in
}

func validateInput(in AddressInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":          in.Name,
		"phone":         in.Phone,
		"address_line1": in.AddressLine1,
		"city":          in.City,
		"state":         in.State,
		"pincode":       in.Pincode,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required address fields").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
}
