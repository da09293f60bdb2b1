package store

import (
	"context"
	"errors"
	"time"

	"github.com/openpos/register/internal/domain"
)

// Common errors returned by the store
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrHoldNotFound     = errors.New("hold not found")
)

// Hold is a parked cart waiting to be resumed.
type Hold struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Cart      *domain.Cart `json:"cart"`
	CreatedAt time.Time    `json:"created_at"`
}

// SnapshotStore persists the serializable subset of cart state under a
// register id. Derived totals are never part of the payload; they are
// recomputed from the restored cart.
// Consumers define this interface, not the MongoDB implementation
type SnapshotStore interface {
	// Load returns the snapshot for the register, or ErrSnapshotNotFound
	// when none has been written yet. Any other error means the snapshot
	// exists but could not be read or decoded.
	Load(ctx context.Context, registerID string) (*domain.Cart, error)

	// Save replaces the register's snapshot wholesale.
	Save(ctx context.Context, registerID string, cart *domain.Cart) error

	// Delete removes the register's snapshot. Deleting a missing
	// snapshot returns ErrSnapshotNotFound.
	Delete(ctx context.Context, registerID string) error
}

// HoldStore persists parked carts under their hold ids.
type HoldStore interface {
	SaveHold(ctx context.Context, hold Hold) error
	GetHold(ctx context.Context, holdID string) (*Hold, error)
	ListHolds(ctx context.Context) ([]Hold, error)
	DeleteHold(ctx context.Context, holdID string) error
}
