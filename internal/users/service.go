package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// Service covers the signed-in profile and the back-office user administration.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	Role(ctx context.Context, userID uuid.UUID) (*RoleDTO, error)
	List(ctx context.Context, params pagination.Params, role enums.UserRole) (*ListResult, error)
	Promote(ctx context.Context, actor enums.UserRole, targetID uuid.UUID) (*UserDTO, error)
	Demote(ctx context.Context, actor enums.UserRole, targetID uuid.UUID) (*UserDTO, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Phone != nil {
		fields["phone"] = strings.TrimSpace(*input.Phone)
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, notFound(err)
	}
	if err := s.repo.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.Profile(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}

	valid, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}
	if input.CurrentPassword == input.NewPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current password")
	}

	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) Role(ctx context.Context, userID uuid.UUID) (*RoleDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	dto := roleDTO(user.Role)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, role enums.UserRole) (*ListResult, error) {
	if role != "" && !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role filter")
	}
	rows, next, err := s.repo.List(ctx, params, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &ListResult{Users: out, NextCursor: next}, nil
}

// Promote grants the admin role. Only the owner may change roles.
func (s *service) Promote(ctx context.Context, actor enums.UserRole, targetID uuid.UUID) (*UserDTO, error) {
	return s.changeRole(ctx, actor, targetID, enums.UserRoleUser, enums.UserRoleAdmin)
}

// Demote returns an admin to the user role.
func (s *service) Demote(ctx context.Context, actor enums.UserRole, targetID uuid.UUID) (*UserDTO, error) {
	return s.changeRole(ctx, actor, targetID, enums.UserRoleAdmin, enums.UserRoleUser)
}

func (s *service) changeRole(ctx context.Context, actor enums.UserRole, targetID uuid.UUID, from, to enums.UserRole) (*UserDTO, error) {
	if actor != enums.UserRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can change roles")
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, notFound(err)
	}
	if user.Role == enums.UserRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "the owner role cannot be changed")
	}
	if user.Role != from {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("user is already %s", user.Role)).
			WithDetails(map[string]any{"role": user.Role})
	}

	applied, err := s.repo.UpdateRole(ctx, targetID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "role changed concurrently")
	}
	user.Role = to
	return FromModel(user), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
