package hold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openpos/register/internal/register"
	"github.com/openpos/register/internal/store"
)

var ErrNothingToHold = errors.New("cart is empty, nothing to hold")

// Shelf parks in-progress carts under named holds so a cashier can serve
// the next customer and come back later. Holds live in the durable store;
// the hold tag on the active cart is advisory only.
type Shelf struct {
	holds store.HoldStore
	log   *zap.Logger
}

func NewShelf(holds store.HoldStore, log *zap.Logger) *Shelf {
	return &Shelf{
		holds: holds,
		log:   log,
	}
}

// Park snapshots the register's current cart under a fresh hold id and
// clears the register for the next sale. The name is a cashier-facing
// label ("blue jacket guy"), not a key.
func (s *Shelf) Park(ctx context.Context, reg *register.Register, name string) (*store.Hold, error) {
	cart := reg.Snapshot()
	if len(cart.Items) == 0 {
		return nil, ErrNothingToHold
	}

	id := uuid.NewString()
	cart.HoldID = &id

	hold := store.Hold{
		ID:        id,
		Name:      name,
		Cart:      cart,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.holds.SaveHold(ctx, hold); err != nil {
		return nil, fmt.Errorf("park cart: %w", err)
	}

	if err := reg.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear register after park: %w", err)
	}

	s.log.Info("cart parked",
		zap.String("hold_id", id),
		zap.String("name", name),
		zap.Int("items", len(cart.Items)))

	return &hold, nil
}

// Resume loads a held cart back into the register and removes the hold
// from the shelf. The discount is never carried over; the cashier has to
// reapply it on the resumed cart.
func (s *Shelf) Resume(ctx context.Context, reg *register.Register, holdID string) (*store.Hold, error) {
	hold, err := s.holds.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}

	if err := reg.LoadFromHold(ctx, hold.Cart.Items, hold.Cart.Customer, hold.Cart.Notes, nil); err != nil {
		return nil, fmt.Errorf("resume hold %q: %w", holdID, err)
	}

	if err := s.holds.DeleteHold(ctx, holdID); err != nil && !errors.Is(err, store.ErrHoldNotFound) {
		// The cart is already active again; a stale hold on the shelf
		// is the lesser problem.
		s.log.Warn("failed to delete resumed hold", zap.String("hold_id", holdID), zap.Error(err))
	}

	s.log.Info("cart resumed", zap.String("hold_id", holdID), zap.String("name", hold.Name))
	return hold, nil
}

// List returns all parked carts, oldest first.
func (s *Shelf) List(ctx context.Context) ([]store.Hold, error) {
	return s.holds.ListHolds(ctx)
}

// Discard drops a parked cart without resuming it.
func (s *Shelf) Discard(ctx context.Context, holdID string) error {
	if err := s.holds.DeleteHold(ctx, holdID); err != nil {
		return err
	}
	s.log.Info("hold discarded", zap.String("hold_id", holdID))
	return nil
}
