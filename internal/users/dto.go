package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// UserDTO is the transport shape of an account.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		ID:        d.ID,
		Email:     strings.ToLower(strings.TrimSpace(d.Email)),
		FirstName: strings.TrimSpace(d.FirstName),
		LastName:  strings.TrimSpace(d.LastName),
		Role:      role,
	}
}
