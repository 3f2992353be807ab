package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser is FindByID with lookup failures mapped to NotFound or Dependency.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, repo.LookupError(err, "user")
	}
	return user, nil
}

// EnsureByEmail returns the user registered under dto.Email, creating it when
// absent. The bool reports whether a row was inserted.
func (r *Repository) EnsureByEmail(ctx context.Context, dto CreateUserDTO) (*models.User, bool, error) {
	email := dto.ToModel().Email
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	existing, err := r.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, repo.LookupError(err, "user")
	}
	created, err := r.Create(ctx, dto)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return created, true, nil
}
