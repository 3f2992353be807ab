package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is the read-only projection of the identity provider's account.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email     string         `gorm:"column:email;type:text;not null;uniqueIndex:ux_users_email"`
	FirstName string         `gorm:"column:first_name;not null"`
	LastName  string         `gorm:"column:last_name;not null"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// FullName joins first and last name for greetings.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
