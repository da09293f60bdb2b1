package cache

import (
	"context"
	"errors"

	"github.com/openpos/register/internal/domain"
)

// SnapshotCache is a fast read path in front of the durable snapshot
// store. Misses fall through to the store; mutations invalidate.
type SnapshotCache interface {
	Get(ctx context.Context, registerID string) (*domain.Cart, error)
	Set(ctx context.Context, registerID string, cart *domain.Cart) error
	Delete(ctx context.Context, registerID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is a SnapshotCache that caches nothing, for deployments without
// Redis configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }

func (Noop) Set(context.Context, string, *domain.Cart) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }
