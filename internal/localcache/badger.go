package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"cartsync/internal/domain"
)

// Storage keys are versioned so a future schema change can move to a new
// key and let the old one age out instead of migrating in place.
var (
	cartKey     = []byte("cart/v1")
	identityKey = []byte("identity/v1")
)

// BadgerCache persists the cart snapshot in an embedded BadgerDB so it
// survives restarts without any external service.
type BadgerCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the cache at the given directory.
func Open(path string, logger *slog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return newBadgerCache(db, logger), nil
}

// OpenInMemory opens a non-persistent cache, used in tests.
func OpenInMemory(logger *slog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger cache: %w", err)
	}
	return newBadgerCache(db, logger), nil
}

func newBadgerCache(db *badger.DB, logger *slog.Logger) *BadgerCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerCache{db: db, logger: logger}
}

func (b *BadgerCache) Close() error {
	return b.db.Close()
}

// Load returns the stored snapshot. A missing or unparsable entry is a
// cache miss, never an error of its own: the corrupted value stays in place
// and the next Save overwrites it.
func (b *BadgerCache) Load(ctx context.Context) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCacheMiss
	}

	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cartKey)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Warn("cart cache read failed", "error", err)
		}
		return nil, ErrCacheMiss
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		b.logger.Warn("cart cache entry corrupt, treating as empty", "error", err)
		return nil, ErrCacheMiss
	}
	return &cart, nil
}

// Save overwrites the stored snapshot.
func (b *BadgerCache) Save(ctx context.Context, cart *domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cartKey, raw)
	})
	if err != nil {
		return fmt.Errorf("badger set failed: %w", err)
	}
	return nil
}

// AnonymousID returns the durable anonymous cart identity, generating and
// persisting one on first use. The remote resource uses it to correlate
// anonymous carts across restarts.
func (b *BadgerCache) AnonymousID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var id string
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(identityKey)
		if err == nil {
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			id = string(raw)
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		id = uuid.NewString()
		return txn.Set(identityKey, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("anonymous identity: %w", err)
	}
	return id, nil
}
