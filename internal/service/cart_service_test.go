package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
)

func ringProduct() *domain.Product {
	return &domain.Product{
		ID:        "ring-1",
		Name:      "Wave Ring",
		Category:  "rings",
		BasePrice: 10.00,
		Stock:     50,
		IsActive:  true,
		Options: []domain.OptionDefinition{
			{
				Name: "Size",
				Values: []domain.OptionValue{
					{Name: "6", PriceAdjustment: 0},
					{Name: "9", PriceAdjustment: 2.50},
				},
			},
		},
	}
}

func newCartFixture(t *testing.T, products ...*domain.Product) (CartService, *fakeCartRepo, string) {
	t.Helper()
	cartRepo := newFakeCartRepo()
	svc := NewCartService(cartRepo, newFakeProductRepo(products...))

	cart, err := svc.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	return svc, cartRepo, cart.ID
}

func TestCartService_AddItemPricesLine(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())

	view, err := svc.AddItem(context.Background(), cartID, &dto.AddToCartRequest{
		ProductID:       "ring-1",
		Quantity:        2,
		SelectedOptions: map[string]string{"Size": "9"},
	})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.InDelta(t, 12.50, view.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 25.00, view.TotalPrice, 1e-9)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, "Wave Ring (Size: 9)", view.Items[0].Title)
}

func TestCartService_AddItemMergesSameIdentity(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, &dto.AddToCartRequest{
		ProductID: "ring-1", Quantity: 1, SelectedOptions: map[string]string{"Size": "9"},
	})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, cartID, &dto.AddToCartRequest{
		ProductID: "ring-1", Quantity: 2, SelectedOptions: map[string]string{"Size": "9"},
	})
	require.NoError(t, err)

	require.Len(t, view.Items, 1, "same product+options must merge into one line")
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestCartService_AddItemDifferentOptionsKeepSeparateLines(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, cartID, &dto.AddToCartRequest{
		ProductID: "ring-1", Quantity: 1, SelectedOptions: map[string]string{"Size": "6"},
	})
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, cartID, &dto.AddToCartRequest{
		ProductID: "ring-1", Quantity: 1, SelectedOptions: map[string]string{"Size": "9"},
	})
	require.NoError(t, err)

	assert.Len(t, view.Items, 2)
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())

	_, err := svc.AddItem(context.Background(), cartID, &dto.AddToCartRequest{
		ProductID: "ghost", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCartService_UpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())
	ctx := context.Background()

	view, err := svc.AddItem(ctx, cartID, &dto.AddToCartRequest{ProductID: "ring-1", Quantity: 2})
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = svc.UpdateItemQuantity(ctx, cartID, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	// negative behaves the same
	view, err = svc.AddItem(ctx, cartID, &dto.AddToCartRequest{ProductID: "ring-1", Quantity: 1})
	require.NoError(t, err)
	view, err = svc.UpdateItemQuantity(ctx, cartID, view.Items[0].ID, -3)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_ViewExcludesVanishedProductFromTotal(t *testing.T) {
	product := ringProduct()
	cartRepo := newFakeCartRepo()
	productRepo := newFakeProductRepo(product)
	svc := NewCartService(cartRepo, productRepo)

	cart, err := svc.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	addCartLine(cartRepo, cart.ID, "line-1", "ring-1", 1, nil)
	addCartLine(cartRepo, cart.ID, "line-2", "deleted-product", 3, nil)

	view, err := svc.View(context.Background(), cart.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, view.TotalItems, "unresolved lines still count items")
	assert.InDelta(t, 10.00, view.TotalPrice, 1e-9, "unresolved lines are excluded from price")
	assert.True(t, view.Incomplete)

	for _, line := range view.Items {
		if line.ProductID == "deleted-product" {
			assert.False(t, line.Resolved)
			assert.Zero(t, line.UnitPrice)
		}
	}
}

func TestCartService_SyncMergesDuplicatesAndDropsDeadProducts(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())

	view, err := svc.Sync(context.Background(), cartID, &dto.SyncCartRequest{
		Items: []dto.AddToCartRequest{
			{ProductID: "ring-1", Quantity: 1, SelectedOptions: map[string]string{"Size": "9"}},
			{ProductID: "ring-1", Quantity: 2, SelectedOptions: map[string]string{"Size": "9"}},
			{ProductID: "gone", Quantity: 5},
			{ProductID: "ring-1", Quantity: 0},
		},
	})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.InDelta(t, 37.50, view.TotalPrice, 1e-9)
}

func TestCartService_GetOrCreateReusesExistingCart(t *testing.T) {
	svc, _, cartID := newCartFixture(t, ringProduct())

	same, err := svc.GetOrCreate(context.Background(), cartID)
	require.NoError(t, err)
	assert.Equal(t, cartID, same.ID)

	fresh, err := svc.GetOrCreate(context.Background(), "stale-cookie-id")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-cookie-id", fresh.ID, "stale ids get a fresh cart")
}
