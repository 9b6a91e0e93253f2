package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/domain"
)

func TestVerify_Shortfall(t *testing.T) {
	items := []domain.CartItem{{ID: "A", Name: "Apple", Quantity: 3}}
	live := []domain.Product{{ID: "A", Name: "Apple", Stock: 2}}

	shortfalls, err := Verify(items, live)

	require.NoError(t, err)
	assert.Equal(t, []domain.Shortfall{{ID: "A", Name: "Apple", Requested: 3, Available: 2}}, shortfalls)
}

func TestVerify_Sufficient(t *testing.T) {
	items := []domain.CartItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 4}}
	live := []domain.Product{{ID: "B", Stock: 4}, {ID: "A", Stock: 5}}

	shortfalls, err := Verify(items, live)

	require.NoError(t, err)
	assert.Empty(t, shortfalls)
}

func TestVerify_OnlyInsufficientItemsReported(t *testing.T) {
	items := []domain.CartItem{
		{ID: "A", Quantity: 1},
		{ID: "B", Name: "Bread", Quantity: 2},
		{ID: "C", Quantity: 7},
	}
	live := []domain.Product{
		{ID: "A", Name: "Apple", Stock: 1},
		{ID: "B", Stock: 0},
		{ID: "C", Name: "Milk", Stock: 6},
	}

	shortfalls, err := Verify(items, live)

	require.NoError(t, err)
	require.Len(t, shortfalls, 2)
	assert.Equal(t, "Bread", shortfalls[0].Name)
	assert.Equal(t, 0, shortfalls[0].Available)
	assert.Equal(t, "C", shortfalls[1].ID)
}

func TestVerify_MissingDataFailsClosed(t *testing.T) {
	items := []domain.CartItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 1}}

	_, err := Verify(items, nil)
	assert.ErrorIs(t, err, ErrStockUnavailable)

	shortfalls, err := Verify(items, []domain.Product{{ID: "A", Stock: 10}})
	assert.ErrorIs(t, err, ErrStockUnavailable)
	assert.Nil(t, shortfalls)
}

func TestIDs_Distinct(t *testing.T) {
	items := []domain.CartItem{{ID: "B"}, {ID: "A"}, {ID: "B"}}
	assert.Equal(t, []string{"B", "A"}, IDs(items))
}
