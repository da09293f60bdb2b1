package hold

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openpos/register/internal/cache"
	"github.com/openpos/register/internal/domain"
	"github.com/openpos/register/internal/register"
	"github.com/openpos/register/internal/store"
)

func setup(t *testing.T) (*Shelf, *register.Register, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	reg := register.New("reg-1", st, cache.Noop{}, zap.NewNop())
	return NewShelf(st, zap.NewNop()), reg, st
}

func addWidget(t *testing.T, reg *register.Register, productID string, qty int) {
	t.Helper()
	err := reg.AddItem(context.Background(), domain.LineItem{
		ProductID: productID,
		Name:      "product " + productID,
		UnitPrice: decimal.NewFromInt(10),
	}, qty)
	require.NoError(t, err)
}

func TestPark_EmptyCart(t *testing.T) {
	shelf, reg, _ := setup(t)

	hold, err := shelf.Park(context.Background(), reg, "walk-in")
	assert.ErrorIs(t, err, ErrNothingToHold)
	assert.Nil(t, hold)
}

func TestPark_SnapshotsAndClearsRegister(t *testing.T) {
	shelf, reg, _ := setup(t)
	ctx := context.Background()

	addWidget(t, reg, "p1", 2)
	require.NoError(t, reg.SetNotes(ctx, "will be back"))

	hold, err := shelf.Park(ctx, reg, "blue jacket")
	require.NoError(t, err)
	require.NotNil(t, hold)
	assert.NotEmpty(t, hold.ID)
	assert.Equal(t, "blue jacket", hold.Name)
	require.Len(t, hold.Cart.Items, 1)
	require.NotNil(t, hold.Cart.HoldID)
	assert.Equal(t, hold.ID, *hold.Cart.HoldID)

	// The register is ready for the next sale.
	active := reg.Snapshot()
	assert.Empty(t, active.Items)
	assert.Equal(t, "", active.Notes)
	assert.Nil(t, active.HoldID)
}

func TestResume_RestoresCartAndClearsDiscount(t *testing.T) {
	shelf, reg, _ := setup(t)
	ctx := context.Background()

	addWidget(t, reg, "p1", 2)
	require.NoError(t, reg.SetCustomer(ctx, &domain.Customer{ID: "c1", Name: "Ada"}))
	require.NoError(t, reg.SetNotes(ctx, "regular"))

	hold, err := shelf.Park(ctx, reg, "ada")
	require.NoError(t, err)

	// A different sale with a discount happens in between.
	addWidget(t, reg, "p2", 1)
	require.NoError(t, reg.SetDiscount(ctx, &domain.Discount{Kind: domain.DiscountPercentage, Value: decimal.NewFromInt(20)}))
	require.NoError(t, reg.Clear(ctx))

	resumed, err := shelf.Resume(ctx, reg, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, hold.ID, resumed.ID)

	active := reg.Snapshot()
	require.Len(t, active.Items, 1)
	assert.Equal(t, "p1", active.Items[0].ProductID)
	assert.Equal(t, "Ada", active.Customer.Name)
	assert.Equal(t, "regular", active.Notes)
	assert.Nil(t, active.Discount)

	// Resuming consumes the hold.
	_, err = shelf.Resume(ctx, reg, hold.ID)
	assert.ErrorIs(t, err, store.ErrHoldNotFound)
}

func TestResume_UnknownHold(t *testing.T) {
	shelf, reg, _ := setup(t)

	hold, err := shelf.Resume(context.Background(), reg, "ghost")
	assert.ErrorIs(t, err, store.ErrHoldNotFound)
	assert.Nil(t, hold)
}

func TestList_OldestFirst(t *testing.T) {
	shelf, reg, _ := setup(t)
	ctx := context.Background()

	addWidget(t, reg, "p1", 1)
	first, err := shelf.Park(ctx, reg, "first")
	require.NoError(t, err)

	addWidget(t, reg, "p2", 1)
	second, err := shelf.Park(ctx, reg, "second")
	require.NoError(t, err)

	holds, err := shelf.List(ctx)
	require.NoError(t, err)
	require.Len(t, holds, 2)
	assert.Equal(t, first.ID, holds[0].ID)
	assert.Equal(t, second.ID, holds[1].ID)
}

func TestDiscard(t *testing.T) {
	shelf, reg, _ := setup(t)
	ctx := context.Background()

	addWidget(t, reg, "p1", 1)
	hold, err := shelf.Park(ctx, reg, "changed their mind")
	require.NoError(t, err)

	require.NoError(t, shelf.Discard(ctx, hold.ID))

	holds, err := shelf.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, holds)

	assert.ErrorIs(t, shelf.Discard(ctx, hold.ID), store.ErrHoldNotFound)
}
