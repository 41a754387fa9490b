package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdd_NewItem(t *testing.T) {
	cart := &Cart{}

	err := cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 1, UnitPrice: 9.99, Name: "Widget"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	// local fallback id defaults to the product id
	assert.Equal(t, "p1", cart.Items[0].ID)
}

func TestMergeAdd_SameProductMergesQuantity(t *testing.T) {
	cart := &Cart{}

	require.NoError(t, cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 1}))

	require.Len(t, cart.Items, 1, "same product must never produce two line items")
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestMergeAdd_PreservesInsertionOrder(t *testing.T) {
	cart := &Cart{}

	require.NoError(t, cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, cart.MergeAdd(LineItem{ProductID: "p2", Quantity: 1}))
	require.NoError(t, cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 3}))

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, "p2", cart.Items[1].ProductID)
}

func TestMergeAdd_RejectsNonPositiveDelta(t *testing.T) {
	cart := &Cart{}

	err := cart.MergeAdd(LineItem{ProductID: "p1", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, cart.Items)
}

func TestSetQuantity_Floor(t *testing.T) {
	cart := &Cart{Items: []LineItem{{ID: "l1", ProductID: "p1", Quantity: 2}}}

	err := cart.SetQuantity("l1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 2, cart.Items[0].Quantity, "rejected mutation must leave the cart unchanged")

	require.NoError(t, cart.SetQuantity("l1", 7))
	assert.Equal(t, 7, cart.Items[0].Quantity)
}

func TestSetQuantity_UnknownItem(t *testing.T) {
	cart := &Cart{}

	err := cart.SetQuantity("nope", 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemove(t *testing.T) {
	cart := &Cart{Items: []LineItem{
		{ID: "l1", ProductID: "p1", Quantity: 1},
		{ID: "l2", ProductID: "p2", Quantity: 1},
		{ID: "l3", ProductID: "p3", Quantity: 1},
	}}

	require.NoError(t, cart.Remove("l2"))
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "l1", cart.Items[0].ID)
	assert.Equal(t, "l3", cart.Items[1].ID)

	assert.ErrorIs(t, cart.Remove("l2"), ErrItemNotFound)
}

func TestClone_IsIndependent(t *testing.T) {
	cart := &Cart{Items: []LineItem{{ID: "l1", ProductID: "p1", Quantity: 1}}}

	cp := cart.Clone()
	cp.Items[0].Quantity = 99

	assert.Equal(t, 1, cart.Items[0].Quantity)
}
