package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/fjod/storefront/internal/domain"
)

func setupTestDB(t *testing.T) *MongoRepository {
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))
	return repo
}

func TestMongoRepository_GetCart_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	cart, err := repo.GetCart(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestMongoRepository_ItemOperations(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	cart, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Name: "Apple", Price: 1.5, Image: "/a.png", Quantity: 2})
	require.NoError(t, err)
	assert.False(t, cart.CreatedAt.IsZero())

	_, err = repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "B", Name: "Bread", Price: 3, Quantity: 1})
	require.NoError(t, err)
	cart, err = repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Name: "Apple", Price: 1.5, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(3), cart.Version)

	cart, err = repo.UpdateItemQuantity(ctx, "cart-1", "B", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[1].Quantity)

	_, err = repo.UpdateItemQuantity(ctx, "cart-1", "missing", 4)
	assert.ErrorIs(t, err, ErrItemNotFound)

	cart, err = repo.RemoveItem(ctx, "cart-1", "A")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Bread", cart.Items[0].Name)

	cart, err = repo.CompleteOrder(ctx, "cart-1", "order-1", []string{"B"})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "order-1", cart.LastOrderID)

	got, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Version, got.Version)
	assert.Equal(t, "order-1", got.LastOrderID)
}

func TestMongoRepository_ConcurrentAddsAreAllKept(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: fmt.Sprintf("item-%d", i%4), Quantity: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	cart, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 4)
	for _, it := range cart.Items {
		assert.Equal(t, 5, it.Quantity, it.ID)
	}
}

func TestMongoRepository_MissingCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.RemoveItem(ctx, "nonexistent", "A")
	assert.ErrorIs(t, err, ErrCartNotFound)
	_, err = repo.ClearItems(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestMongoRepository_CorruptDocument(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.collection.InsertOne(ctx, bson.M{"_id": "cart-bad", "items": "not-an-array"})
	require.NoError(t, err)

	_, err = repo.GetCart(ctx, "cart-bad")
	assert.ErrorIs(t, err, ErrCorruptCart)

	_, err = repo.AddItem(ctx, "cart-bad", domain.CartItem{ID: "A", Quantity: 1})
	assert.ErrorIs(t, err, ErrCorruptCart)
}

func TestMongoRepository_DeleteCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteCart(ctx, "cart-1"))

	assert.ErrorIs(t, repo.DeleteCart(ctx, "cart-1"), ErrCartNotFound)
	assert.NoError(t, repo.Ping(ctx))
}
