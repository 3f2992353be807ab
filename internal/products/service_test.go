package product

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestDiscountedPriceCents(t *testing.T) {
	cases := []struct {
		name    string
		unit    int64
		percent string
		want    int64
	}{
		{"no discount", 1000, "0", 1000},
		{"ten percent", 1000, "10", 900},
		{"rounds down", 999, "15", 849},
		{"rounds half up", 1999, "12.5", 1749},
		{"fractional cents up", 1005, "50", 503},
		{"full discount", 1000, "100", 0},
		{"out of range keeps price", 1000, "150", 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscountedPriceCents(tc.unit, decimal.RequireFromString(tc.percent))
			require.Equal(t, tc.want, got)
		})
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc
}

func TestCreateProductComputesDiscount(t *testing.T) {
	svc := newTestService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:            "  Walnut Desk ",
		UnitPriceCents:  40000,
		DiscountPercent: decimal.NewFromInt(25),
		Stock:           4,
		IsActive:        true,
	})
	require.NoError(t, err)
	require.Equal(t, "Walnut Desk", dto.Name)
	require.Equal(t, int64(30000), dto.DiscountedPriceCents)
	require.Equal(t, "25.00", dto.DiscountPercent)

	fetched, err := svc.GetProduct(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Equal(t, 4, fetched.Stock)
	require.Equal(t, int64(30000), fetched.DiscountedPriceCents)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []CreateProductInput{
		{Name: " ", UnitPriceCents: 100},
		{Name: "x", UnitPriceCents: -1},
		{Name: "x", UnitPriceCents: 100, DiscountPercent: decimal.NewFromInt(-5)},
		{Name: "x", UnitPriceCents: 100, DiscountPercent: decimal.NewFromInt(101)},
		{Name: "x", UnitPriceCents: 100, Stock: -1},
	}
	for _, input := range cases {
		_, err := svc.CreateProduct(ctx, input)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v: %v", input, err)
	}
}

func TestUpdateProductRecomputesDiscount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:           "Chair",
		UnitPriceCents: 10000,
		Stock:          2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(10000), created.DiscountedPriceCents)

	price := int64(20000)
	pct := decimal.NewFromInt(10)
	stock := 7
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{
		UnitPriceCents:  &price,
		DiscountPercent: &pct,
		Stock:           &stock,
	})
	require.NoError(t, err)
	require.Equal(t, int64(18000), updated.DiscountedPriceCents)
	require.Equal(t, 7, updated.Stock)
	require.Equal(t, "Chair", updated.Name)

	_, err = svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Stock: &stock})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	negative := -3
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Stock: &negative})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProductKeepsConcurrentStockDecrement(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:           "Lamp",
		UnitPriceCents: 5000,
		Stock:          5,
		IsActive:       true,
	})
	require.NoError(t, err)

	// A checkout commits its decrement right after the update has read the row.
	var once sync.Once
	err = client.DB().Callback().Query().After("gorm:query").Register("test:checkout_decrement", func(db *gorm.DB) {
		if db.Statement.Table != "products" {
			return
		}
		once.Do(func() {
			require.NoError(t, NewRepository(db.Session(&gorm.Session{NewDB: true})).DecrementStock(ctx, created.ID, 1))
		})
	})
	require.NoError(t, err)

	price := int64(4500)
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{UnitPriceCents: &price})
	require.NoError(t, err)
	require.Equal(t, int64(4500), updated.UnitPriceCents)
	require.Equal(t, int64(4500), updated.DiscountedPriceCents)
	require.Equal(t, 4, updated.Stock)

	stored, err := repo.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 4, stored.Stock)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}
