package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type cartFixture struct {
	client *db.Client
	svc    Service
	repo   *Repository
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client, product.NewRepository(client.DB()))
	require.NoError(t, err)
	return cartFixture{client: client, svc: svc, repo: repo}
}

func (f cartFixture) product(t *testing.T, name string, unit, discounted int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:                 name,
		UnitPriceCents:       unit,
		DiscountedPriceCents: discounted,
		Stock:                10,
		IsActive:             true,
	}
	require.NoError(t, f.client.DB().Create(p).Error)
	return p
}

func TestAddItemCreatesCartLazily(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)

	_, err := f.svc.GetCartForUser(ctx, userID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cart, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, int64(3000), cart.Items[0].SubtotalCents)
	require.Equal(t, int64(3000), cart.TotalCartPriceCents)
	require.Equal(t, "Lamp", cart.Items[0].ProductName)
}

func TestAddItemReplacesQuantity(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)
	rug := f.product(t, "Rug", 5000, 5000)

	_, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: rug.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: lamp.ID, Quantity: 5})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	var lampLine CartItemDTO
	for _, item := range cart.Items {
		if item.ProductID == lamp.ID {
			lampLine = item
		}
	}
	require.Equal(t, 5, lampLine.Quantity)
	require.Equal(t, int64(7500), lampLine.SubtotalCents)
	require.Equal(t, int64(7500+5000), cart.TotalCartPriceCents)

	var carts int64
	require.NoError(t, f.client.DB().Model(&models.Cart{}).Where("user_id = ?", userID).Count(&carts).Error)
	require.Equal(t, int64(1), carts)
}

func TestAddItemValidation(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	lamp := f.product(t, "Lamp", 2000, 1500)

	_, err := f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: lamp.ID, Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", lamp.ID).Update("is_active", false).Error)
	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: lamp.ID, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveItem(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)
	rug := f.product(t, "Rug", 5000, 4000)

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: rug.ID, Quantity: 2})
	require.NoError(t, err)

	var lampItem, rugItem uuid.UUID
	for _, item := range cart.Items {
		switch item.ProductID {
		case lamp.ID:
			lampItem = item.ID
		case rug.ID:
			rugItem = item.ID
		}
	}

	_, err = f.svc.RemoveItem(ctx, uuid.New(), lampItem)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.RemoveItem(ctx, owner, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cart, err = f.svc.RemoveItem(ctx, owner, lampItem)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, int64(8000), cart.TotalCartPriceCents)

	cart, err = f.svc.RemoveItem(ctx, owner, rugItem)
	require.NoError(t, err)
	require.Nil(t, cart)

	_, err = f.svc.GetCartForUser(ctx, owner)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestClearCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)

	require.True(t, pkgerrors.IsCode(f.svc.ClearCart(ctx, owner), pkgerrors.CodeNotFound))

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lamp.ID, Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, f.svc.ClearCart(ctx, owner))

	var items int64
	require.NoError(t, f.client.DB().Model(&models.CartItem{}).Count(&items).Error)
	require.Zero(t, items)
	_, err = f.svc.GetCartForUser(ctx, owner)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1500), cart.TotalCartPriceCents)
}

func TestClearCartTxKeepsCartRow(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)

	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		return f.svc.ClearCartTx(ctx, tx, cart.ID)
	}))
	require.Error(t, f.svc.ClearCartTx(ctx, nil, cart.ID))

	reloaded, err := f.svc.GetCartForUser(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, reloaded.Items)
	require.Zero(t, reloaded.TotalCartPriceCents)
}

func TestLoadCartTx(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	lamp := f.product(t, "Lamp", 2000, 1500)

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := f.svc.LoadCartTx(ctx, tx, owner)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		require.NotNil(t, cart.Items[0].Product)
		require.Equal(t, lamp.ID, cart.Items[0].Product.ID)

		_, err = f.svc.LoadCartTx(ctx, tx, uuid.New())
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
		return nil
	}))
}
