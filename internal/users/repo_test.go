package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestCreateAndLookupUser(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:     " Ada@Example.com ",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", created.Email)
	require.Equal(t, enums.UserRoleCustomer, created.Role)

	byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	got, err := repo.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.FullName())

	dto := FromModel(got)
	require.Equal(t, created.ID, dto.ID)
	require.Nil(t, FromModel(nil))
}

func TestGetUserNotFound(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	_, err := repo.GetUser(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEnsureByEmailCreatesOnce(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	first, created, err := repo.EnsureByEmail(ctx, CreateUserDTO{Email: "Grace@Example.com", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, enums.UserRoleAdmin, first.Role)

	second, created, err := repo.EnsureByEmail(ctx, CreateUserDTO{Email: " grace@example.com"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	_, _, err = repo.EnsureByEmail(ctx, CreateUserDTO{Email: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
