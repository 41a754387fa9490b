package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cartsync/internal/domain"
	"cartsync/internal/localcache"
	"cartsync/internal/reconcile"
	"cartsync/internal/remote"
)

// CartStore is the single owner of the working cart. Every mutation applies
// optimistically to the in-memory cart first, then attempts the
// authoritative path; on any remote failure the optimistic state stays in
// charge and the store degrades instead of surfacing an error. Callers
// therefore never need fallback logic of their own.
type CartStore struct {
	remote remote.Client
	cache  localcache.CartCache
	logger *slog.Logger

	mu    sync.Mutex
	cart  domain.Cart
	state SyncState
	// seq increments when a mutation starts. A canonical remote response is
	// adopted only if no newer mutation has started since its request was
	// issued; stragglers are discarded so an out-of-order completion can
	// never resurrect state a later mutation already replaced.
	seq uint64

	// persistMu serializes cache writes; persistedSeq keeps them monotone
	// by mutation sequence so a slow write of an older snapshot can never
	// replace a newer one.
	persistMu    sync.Mutex
	persistedSeq uint64

	sfg singleflight.Group // dedups concurrent initial loads
}

func NewCartStore(rc remote.Client, cache localcache.CartCache, logger *slog.Logger) *CartStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartStore{
		remote: rc,
		cache:  cache,
		logger: logger,
		state:  StateLoading,
	}
}

// Current returns a copy of the working cart and the sync state.
func (s *CartStore) Current() (domain.Cart, SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone(), s.state
}

// State returns the current sync state.
func (s *CartStore) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load populates the store: a successful remote fetch entirely replaces
// local state and is mirrored into the cache; on failure the cache snapshot
// becomes the working cart unchanged. A load whose fetch was still in
// flight when a mutation started yields to that mutation's newer state.
// Load never fails - the worst outcome is an empty cart in degraded state.
func (s *CartStore) Load(ctx context.Context) (domain.Cart, SyncState) {
	type loadResult struct {
		cart  domain.Cart
		state SyncState
	}
	v, _, _ := s.sfg.Do("load", func() (interface{}, error) {
		s.mu.Lock()
		startSeq := s.seq
		s.mu.Unlock()

		remoteCart, fetchErr := s.remote.Fetch(ctx)

		var local *domain.Cart
		if fetchErr != nil {
			cached, err := s.cache.Load(ctx)
			if err != nil {
				if !errors.Is(err, localcache.ErrCacheMiss) {
					s.logger.Warn("cart cache load failed", "error", err)
				}
			} else {
				local = cached
			}
		}

		working, authoritative := reconcile.Resolve(local, remoteCart, fetchErr)

		s.mu.Lock()
		if s.seq != startSeq {
			// a mutation landed while the fetch was in flight; its
			// optimistic state is newer than this snapshot
			res := loadResult{cart: s.cart.Clone(), state: s.state}
			s.mu.Unlock()
			return res, nil
		}
		s.cart = *working
		if authoritative {
			s.state = StateAuthoritative
		} else {
			s.state = StateDegraded
			s.logger.Info("operating from local cart snapshot", "reason", fetchErr)
		}
		res := loadResult{cart: s.cart.Clone(), state: s.state}
		s.mu.Unlock()

		if authoritative {
			s.persist(&res.cart, startSeq)
		}
		return res, nil
	})
	r := v.(loadResult)
	return r.cart, r.state
}

// Add puts qty units of the product in the cart, merging quantities when
// the product is already present.
func (s *CartStore) Add(ctx context.Context, p domain.Product, qty int) (domain.Cart, SyncState, error) {
	if qty < 1 {
		return domain.Cart{}, s.State(), domain.ErrInvalidQuantity
	}
	item := domain.LineItem{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.UnitPrice,
		Name:      p.Name,
	}
	return s.mutate(ctx,
		func(c *domain.Cart) error { return c.MergeAdd(item) },
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.AddItem(ctx, remote.AddItemRequest{
				ProductID: p.ID,
				Quantity:  qty,
				UnitPrice: p.UnitPrice,
				Name:      p.Name,
			})
		},
	)
}

// SetQuantity sets an absolute quantity on a line item. Quantities below 1
// are rejected synchronously; use Remove instead.
func (s *CartStore) SetQuantity(ctx context.Context, lineItemID string, quantity int) (domain.Cart, SyncState, error) {
	return s.mutate(ctx,
		func(c *domain.Cart) error { return c.SetQuantity(lineItemID, quantity) },
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.SetQuantity(ctx, lineItemID, quantity)
		},
	)
}

// Remove deletes a line item.
func (s *CartStore) Remove(ctx context.Context, lineItemID string) (domain.Cart, SyncState, error) {
	return s.mutate(ctx,
		func(c *domain.Cart) error { return c.Remove(lineItemID) },
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.RemoveItem(ctx, lineItemID)
		},
	)
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) (domain.Cart, SyncState, error) {
	return s.mutate(ctx,
		func(c *domain.Cart) error { c.Clear(); return nil },
		func(ctx context.Context) (*domain.Cart, error) {
			return nil, s.remote.Clear(ctx)
		},
	)
}

// mutate is the single transition rule every mutation goes through:
//
//  1. apply the optimistic change to the in-memory cart, rejecting invalid
//     input before any remote call;
//  2. persist the optimistic cart so a restart does not lose the pending
//     mutation;
//  3. attempt the authoritative path;
//  4. on success adopt the canonical cart and go authoritative, on failure
//     keep the optimistic cart and degrade.
//
// A canonical response is discarded when a newer mutation started while the
// request was in flight. The returned cart and state are captured under one
// lock so they always describe the same instant.
func (s *CartStore) mutate(
	ctx context.Context,
	optimistic func(*domain.Cart) error,
	remoteCall func(context.Context) (*domain.Cart, error),
) (domain.Cart, SyncState, error) {
	s.mu.Lock()
	if err := optimistic(&s.cart); err != nil {
		state := s.state
		s.mu.Unlock()
		return domain.Cart{}, state, err
	}
	s.seq++
	seq := s.seq
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	s.persist(&snapshot, seq)

	canonical, err := remoteCall(ctx)
	if err == nil && canonical == nil {
		// Clear returns no body; an empty canonical cart is implied.
		canonical = &domain.Cart{}
	}

	s.mu.Lock()
	stale := seq != s.seq
	if !stale {
		if err != nil {
			s.state = StateDegraded
		} else {
			s.cart = canonical.Clone()
			s.state = StateAuthoritative
		}
	}
	result := s.cart.Clone()
	state := s.state
	adopted := !stale && err == nil
	s.mu.Unlock()

	if adopted {
		s.persist(&result, seq)
	}
	if err != nil && !stale {
		s.logger.Warn("remote cart call failed, keeping optimistic state", "error", err)
	}
	return result, state, nil
}

// persist mirrors the given cart into the local cache. Writes are
// serialized and ordered by sequence: a write carrying an older seq than
// one already persisted is dropped, so concurrent mutations can never leave
// a stale snapshot as the last write. Cache failures are absorbed, the
// in-memory cart is still correct and the snapshot is best effort.
func (s *CartStore) persist(cart *domain.Cart, seq uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if seq < s.persistedSeq {
		return
	}
	s.persistedSeq = seq

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Save(ctx, cart); err != nil {
		s.logger.Warn("cart cache save failed", "error", err)
	}
}
