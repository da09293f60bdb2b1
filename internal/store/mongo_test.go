package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/openpos/register/internal/domain"
)

func setupTestDB(t *testing.T) *MongoStore {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}

	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	// Get connection string
	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	s := NewMongoStore(db)
	require.NoError(t, s.CreateIndexes(ctx))

	return s
}

func TestMongoStore_LoadNotFound(t *testing.T) {
	s := setupTestDB(t)

	cart, err := s.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.Nil(t, cart)
}

func TestMongoStore_SaveAndLoad_RoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	holdID := "hold-1"
	origPrice := decimal.RequireFromString("12")
	taxable := false
	cart := &domain.Cart{
		Items: []domain.LineItem{
			{
				ProductID:     "p1",
				Name:          "Widget",
				SKU:           "W-1",
				Quantity:      3,
				UnitPrice:     decimal.RequireFromString("10.5"),
				OriginalPrice: &origPrice,
				Attributes:    map[string]string{"color": "red"},
			},
			{
				ProductID: "p2",
				Name:      "Gift card",
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(25),
				Taxable:   &taxable,
			},
		},
		Customer: &domain.Customer{ID: "c1", Name: "Ada"},
		Discount: &domain.Discount{Kind: domain.DiscountFixed, Value: decimal.NewFromInt(5)},
		Notes:    "ring twice",
		HoldID:   &holdID,
	}

	require.NoError(t, s.Save(ctx, "reg-1", cart))

	restored, err := s.Load(ctx, "reg-1")
	require.NoError(t, err)
	require.Equal(t, cart, restored)
	assert.Equal(t, cart.Subtotal().String(), restored.Subtotal().String())
}

func TestMongoStore_SaveIsUpsert(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	first := domain.NewCart()
	first.Notes = "first"
	require.NoError(t, s.Save(ctx, "reg-1", first))

	second := domain.NewCart()
	second.Notes = "second"
	require.NoError(t, s.Save(ctx, "reg-1", second))

	restored, err := s.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "second", restored.Notes)

	count, err := s.snapshots.CountDocuments(ctx, bson.M{"register_id": "reg-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMongoStore_Delete(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "reg-1", domain.NewCart()))
	require.NoError(t, s.Delete(ctx, "reg-1"))

	_, err := s.Load(ctx, "reg-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "reg-1"), ErrSnapshotNotFound)
}

func TestMongoStore_CorruptSnapshotSurfacesError(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	_, err := s.snapshots.InsertOne(ctx, snapshotDoc{
		RegisterID: "reg-1",
		Snapshot:   "{not json",
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)

	cart, err := s.Load(ctx, "reg-1")
	assert.Nil(t, cart)
	require.Error(t, err)
	// Distinguishable from a missing snapshot.
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMongoStore_Holds(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Items = []domain.LineItem{
		{ProductID: "p1", Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	}

	hold := Hold{ID: "h1", Name: "counter 1", Cart: cart, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	require.NoError(t, s.SaveHold(ctx, hold))

	got, err := s.GetHold(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "counter 1", got.Name)
	require.Len(t, got.Cart.Items, 1)
	assert.Equal(t, "p1", got.Cart.Items[0].ProductID)

	holds, err := s.ListHolds(ctx)
	require.NoError(t, err)
	require.Len(t, holds, 1)

	require.NoError(t, s.DeleteHold(ctx, "h1"))
	_, err = s.GetHold(ctx, "h1")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}
