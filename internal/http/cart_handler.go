package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"cartsync/internal/domain"
	"cartsync/internal/store"
)

// cartStore is the facade surface the handler consumes. Every mutation
// returns the updated cart together with the sync state it produced, so a
// response never pairs a cart with a state from a different instant. The
// only errors are invalid-mutation rejections.
type cartStore interface {
	Current() (domain.Cart, store.SyncState)
	Add(ctx context.Context, p domain.Product, qty int) (domain.Cart, store.SyncState, error)
	SetQuantity(ctx context.Context, lineItemID string, quantity int) (domain.Cart, store.SyncState, error)
	Remove(ctx context.Context, lineItemID string) (domain.Cart, store.SyncState, error)
	Clear(ctx context.Context) (domain.Cart, store.SyncState, error)
}

type CartHandler struct {
	store    cartStore
	validate *validator.Validate
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCartHandler(s cartStore, timeout time.Duration, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{
		store:    s,
		validate: validator.New(),
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}

type CartResponse struct {
	Items     []domain.LineItem `json:"items"`
	SyncState string            `json:"sync_state"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, state := h.store.Current()
	h.respondCart(w, http.StatusOK, cart, state)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, state, err := h.store.Add(ctx, domain.Product{
		ID:        req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}, req.Quantity)
	if err != nil {
		h.handleStoreError(w, err)
		return
	}

	h.respondCart(w, http.StatusCreated, cart, state)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineItemID := chi.URLParam(r, "line_item_id")
	if lineItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_item_id", "line item id required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, state, err := h.store.SetQuantity(ctx, lineItemID, req.Quantity)
	if err != nil {
		h.handleStoreError(w, err)
		return
	}

	h.respondCart(w, http.StatusOK, cart, state)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineItemID := chi.URLParam(r, "line_item_id")
	if lineItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_item_id", "line item id required")
		return
	}

	cart, state, err := h.store.Remove(ctx, lineItemID)
	if err != nil {
		h.handleStoreError(w, err)
		return
	}

	h.respondCart(w, http.StatusOK, cart, state)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, state, err := h.store.Clear(ctx)
	if err != nil {
		h.handleStoreError(w, err)
		return
	}

	h.respondCart(w, http.StatusOK, cart, state)
}

// handleStoreError maps invalid-mutation rejections to 4xx. Remote and
// cache failures never reach here: the store absorbs them and reports them
// only through the sync state.
func (h *CartHandler) handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1, use remove instead")
	case errors.Is(err, domain.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "line item not found in cart")
	default:
		h.logger.Error("unexpected store error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int, cart domain.Cart, state store.SyncState) {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	respondJSON(w, status, CartResponse{
		Items:     items,
		SyncState: strings.ToLower(state.String()),
	}, h.logger)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code}, nil)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid field " + f.Field()
	}
	return "invalid request"
}
