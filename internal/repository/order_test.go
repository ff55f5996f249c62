package repository_test

import (
	"context"
	"sync"
	"testing"

	"example/waxroom/internal/models"
	"example/waxroom/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderFromCart(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	require.NoError(t, repo.AddToCart(ctx, u.ID, 3, 2))
	require.NoError(t, repo.AddToCart(ctx, u.ID, 7, 1))

	order, err := repo.CreateOrderFromCart(ctx, u.ID, "pi_123", models.Billing{Name: "Alice", City: "Austin"})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, "46.97", order.Total.StringFixed(2))
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, "pi_123", order.PaymentIntentID)
	assert.Equal(t, models.DefaultBillingCountry, order.Billing.Country)
	require.Len(t, order.Items, 2)

	lines, err := repo.ListCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lines, "cart is cleared on checkout")

	stored, err := repo.GetOrder(ctx, u.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(stored.Total))
	assert.Equal(t, "Alice", stored.Billing.Name)
	assert.Equal(t, "Austin", stored.Billing.City)
	assert.Equal(t, "US", stored.Billing.Country)
	assert.Empty(t, stored.Billing.Zip)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, int64(3), stored.Items[0].AlbumID)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, "14.99", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Ambient", stored.Items[0].Genre)

	sum := decimal.Zero
	for _, it := range stored.Items {
		sum = sum.Add(it.Subtotal())
	}
	assert.True(t, sum.Equal(stored.Total), "total equals the sum of item subtotals")
}

func TestCreateOrderFromEmptyCart(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	_, err := repo.CreateOrderFromCart(ctx, u.ID, "", models.Billing{})
	assert.ErrorIs(t, err, repository.ErrEmptyCart)

	orders, err := repo.ListOrders(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderItemsKeepPurchasePrice(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	require.NoError(t, repo.AddToCart(ctx, u.ID, 1, 1))
	order, err := repo.CreateOrderFromCart(ctx, u.ID, "", models.Billing{})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateAlbumPrice(ctx, 1, decimal.RequireFromString("99.99")))

	stored, err := repo.GetOrder(ctx, u.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "18.99", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "18.99", stored.Total.StringFixed(2))
	assert.Empty(t, stored.PaymentIntentID)
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	var ids []int64
	for _, album := range []int64{1, 2, 3} {
		require.NoError(t, repo.AddToCart(ctx, u.ID, album, 1))
		o, err := repo.CreateOrderFromCart(ctx, u.ID, "", models.Billing{})
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	orders, err := repo.ListOrders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
	for _, o := range orders {
		require.Len(t, o.Items, 1)
		assert.NotEmpty(t, o.Items[0].Title)
		assert.Empty(t, o.Items[0].Genre)
	}
}

func TestGetOrderOfAnotherUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")

	require.NoError(t, repo.AddToCart(ctx, alice.ID, 1, 1))
	order, err := repo.CreateOrderFromCart(ctx, alice.ID, "", models.Billing{})
	require.NoError(t, err)

	_, err = repo.GetOrder(ctx, bob.ID, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetOrder(ctx, alice.ID, order.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// The test store runs on a single SQLite connection, so two simultaneous
// checkouts of one cart serialize: one order, then an empty cart. Stores with
// a connection pool and default isolation make no such promise.
func TestCreateOrderConcurrentOnSerializedStore(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")
	require.NoError(t, repo.AddToCart(ctx, u.ID, 5, 2))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CreateOrderFromCart(ctx, u.ID, "", models.Billing{})
		}(i)
	}
	wg.Wait()

	successCount := 0
	for _, err := range errs {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrEmptyCart)
	}
	assert.Equal(t, 1, successCount, "serialized checkouts leave one order")

	orders, err := repo.ListOrders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity, "no items lost")

	cart, err := repo.ListCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}
