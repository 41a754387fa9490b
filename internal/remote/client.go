package remote

import (
	"context"
	"errors"

	"cartsync/internal/domain"
)

// Client translates cart intents into calls against the authoritative cart
// resource. Mutations return the full canonical cart as the server sees it,
// so the server stays the source of truth for resulting quantities.
type Client interface {
	Fetch(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, req AddItemRequest) (*domain.Cart, error)
	SetQuantity(ctx context.Context, lineItemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, lineItemID string) (*domain.Cart, error)
	Clear(ctx context.Context) error
}

// AddItemRequest asks the server to increment (or create) a line item.
// Quantity is a delta, not an absolute value.
type AddItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Name      string  `json:"name,omitempty"`
}

// Error kinds the store distinguishes when choosing fallback behavior.
// Check with errors.Is.
var (
	// ErrUnauthenticated means no valid credential. Expected for anonymous
	// visitors, not fatal.
	ErrUnauthenticated = errors.New("not authenticated with cart resource")

	// ErrUnavailable covers network failures, timeouts, an open circuit
	// breaker and any non-2xx response other than an auth rejection.
	ErrUnavailable = errors.New("cart resource unavailable")
)

// TokenProvider supplies the optional bearer credential. An empty return
// means anonymous; the client passes absence through and lets the resource
// reject with 401 if it requires identity.
type TokenProvider func() string
