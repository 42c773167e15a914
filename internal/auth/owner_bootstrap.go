package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// OwnerRequest describes the owner account created by the seed binary.
type OwnerRequest struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// OwnerBootstrapper makes sure the store has an owner account.
type OwnerBootstrapper interface {
	EnsureOwner(ctx context.Context, req OwnerRequest) (*users.UserDTO, bool, error)
}

type ownerBootstrapper struct {
	db          txRunner
	users       *users.Repository
	passwordCfg config.PasswordConfig
}

func NewOwnerBootstrapper(params RegisterServiceParams) (OwnerBootstrapper, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &ownerBootstrapper{
		db:          params.DB,
		users:       params.Users,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// EnsureOwner creates the owner, or raises an existing account with that email to owner.
// The bool reports whether a new account was created. Existing passwords are never replaced.
func (s *ownerBootstrapper) EnsureOwner(ctx context.Context, req OwnerRequest) (*users.UserDTO, bool, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "owner email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Owner"
	}

	var (
		out     *users.UserDTO
		created bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		existing, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.Role != enums.UserRoleOwner {
				if _, err := repo.UpdateRole(ctx, existing.ID, existing.Role, enums.UserRoleOwner); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "promote owner")
				}
				existing.Role = enums.UserRoleOwner
			}
			out = users.FromModel(existing)
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check owner email")
		}

		if strings.TrimSpace(req.Password) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "owner password is required")
		}
		hash, err := security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user, err := createUnique(ctx, repo, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         enums.UserRoleOwner,
		})
		if err != nil {
			return err
		}
		out = users.FromModel(user)
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}
