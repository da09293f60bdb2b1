package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpos/register/internal/domain"
)

func sampleCart() *domain.Cart {
	cart := domain.NewCart()
	cart.Items = []domain.LineItem{
		{ProductID: "p1", Name: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
	}
	cart.Notes = "test"
	return cart
}

func TestMemoryStore_LoadNotFound(t *testing.T) {
	s := NewMemoryStore()

	cart, err := s.Load(context.Background(), "reg-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.Nil(t, cart)
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "reg-1", sampleCart()))

	cart, err := s.Load(ctx, "reg-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, "test", cart.Notes)
}

func TestMemoryStore_SaveIsolatesCaller(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cart := sampleCart()
	require.NoError(t, s.Save(ctx, "reg-1", cart))

	// Mutating the cart after Save must not change the stored snapshot.
	cart.Items[0].Quantity = 99

	stored, err := s.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "reg-1", sampleCart()))
	require.NoError(t, s.Delete(ctx, "reg-1"))

	_, err := s.Load(ctx, "reg-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "reg-1"), ErrSnapshotNotFound)
}

func TestMemoryStore_Holds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := Hold{ID: "h1", Name: "counter 1", Cart: sampleCart(), CreatedAt: time.Now().Add(-time.Minute)}
	second := Hold{ID: "h2", Name: "counter 2", Cart: sampleCart(), CreatedAt: time.Now()}

	require.NoError(t, s.SaveHold(ctx, second))
	require.NoError(t, s.SaveHold(ctx, first))

	hold, err := s.GetHold(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "counter 1", hold.Name)

	holds, err := s.ListHolds(ctx)
	require.NoError(t, err)
	require.Len(t, holds, 2)
	// Oldest first.
	assert.Equal(t, "h1", holds[0].ID)
	assert.Equal(t, "h2", holds[1].ID)

	require.NoError(t, s.DeleteHold(ctx, "h1"))
	_, err = s.GetHold(ctx, "h1")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.ErrorIs(t, s.DeleteHold(ctx, "h1"), ErrHoldNotFound)
}
