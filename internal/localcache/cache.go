package localcache

import (
	"context"
	"errors"

	"cartsync/internal/domain"
)

// CartCache is the durable local slot holding the last-known cart snapshot.
// Implementations never do network I/O and never surface unexpected error
// types: every failure mode degrades to ErrCacheMiss.
type CartCache interface {
	Load(ctx context.Context) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}

var ErrCacheMiss = errors.New("cache miss")
