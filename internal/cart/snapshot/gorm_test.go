package snapshot

import (
	"context"
	"testing"

	"github.com/novamart/storefront-backend/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSnapshotTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS cart_snapshots (
  cart_key TEXT PRIMARY KEY,
  items TEXT NOT NULL,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := NewSQLStore(setupSnapshotTestDB(t))
	ctx := context.Background()

	items := []cart.LineItem{
		{ID: "42", Title: "Widget", Price: decimal.NewFromFloat(9.99), Quantity: 2},
		{ID: "7", Title: "Gadget", Price: decimal.NewFromInt(30), Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "cart-1", items))

	loaded, err := store.Load(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, cart.OfferID("42"), loaded[0].ID)
	assert.True(t, loaded[0].Price.Equal(decimal.NewFromFloat(9.99)))
	assert.Equal(t, 2, loaded[0].Quantity)
}

func TestSQLStoreSaveOverwritesExistingRow(t *testing.T) {
	store := NewSQLStore(setupSnapshotTestDB(t))
	ctx := context.Background()

	first := []cart.LineItem{{ID: "42", Title: "Widget", Price: decimal.NewFromInt(10), Quantity: 1}}
	require.NoError(t, store.Save(ctx, "cart-1", first))

	second := []cart.LineItem{{ID: "7", Title: "Gadget", Price: decimal.NewFromInt(30), Quantity: 3}}
	require.NoError(t, store.Save(ctx, "cart-1", second))

	loaded, err := store.Load(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, cart.OfferID("7"), loaded[0].ID)
	assert.Equal(t, 3, loaded[0].Quantity)
}

func TestSQLStoreLoadMissingKeyReturnsNil(t *testing.T) {
	store := NewSQLStore(setupSnapshotTestDB(t))

	loaded, err := store.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLStoreDelete(t *testing.T) {
	store := NewSQLStore(setupSnapshotTestDB(t))
	ctx := context.Background()

	items := []cart.LineItem{{ID: "42", Title: "Widget", Price: decimal.NewFromInt(10), Quantity: 1}}
	require.NoError(t, store.Save(ctx, "cart-1", items))
	require.NoError(t, store.Delete(ctx, "cart-1"))

	loaded, err := store.Load(ctx, "cart-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// deleting an absent key is not an error
	require.NoError(t, store.Delete(ctx, "cart-1"))
}
