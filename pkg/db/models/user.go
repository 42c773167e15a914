package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is a storefront account. Role gates the back office.
type User struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string         `gorm:"column:name;not null"`
	Email            string         `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	PasswordHash     string         `gorm:"column:password_hash;not null"`
	Phone            string         `gorm:"column:phone;not null;default:''"`
	Role             enums.UserRole `gorm:"column:role;type:user_role;not null;default:'user'"`
	DefaultAddressID *uuid.UUID     `gorm:"column:default_address_id;type:uuid"`
	LastLoginAt      *time.Time     `gorm:"column:last_login_at"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
