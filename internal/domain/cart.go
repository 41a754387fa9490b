package domain

// LineItem is one product's presence in the cart. ID is assigned by the
// remote cart resource; in fallback mode the product ID doubles as the
// line item ID until the next canonical response replaces it.
type LineItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Name      string  `json:"name,omitempty"`
}

// Product is the catalog view a caller adds to the cart. UnitPrice is
// captured as a snapshot on the line item and never re-derived.
type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
}

// Cart is an ordered sequence of line items, unique by product ID.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Clone returns a deep copy. The store only ever hands out copies so no
// caller can mutate shared state.
func (c *Cart) Clone() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindByProduct returns a pointer into Items, or nil.
func (c *Cart) FindByProduct(productID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindByID returns a pointer into Items, or nil.
func (c *Cart) FindByID(lineItemID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == lineItemID {
			return &c.Items[i]
		}
	}
	return nil
}

// MergeAdd applies the quantity-merge rule: an item for the same product
// increments its quantity by item.Quantity, anything else is appended in
// insertion order. The same rule runs optimistically and on the server, so
// behavior is observably identical online and offline.
func (c *Cart) MergeAdd(item LineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if existing := c.FindByProduct(item.ProductID); existing != nil {
		existing.Quantity += item.Quantity
		return nil
	}
	if item.ID == "" {
		item.ID = item.ProductID
	}
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity is an absolute set. Quantities below 1 are rejected; callers
// wanting removal use Remove instead.
func (c *Cart) SetQuantity(lineItemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item := c.FindByID(lineItemID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Quantity = quantity
	return nil
}

// Remove deletes the line item, preserving the order of the rest.
func (c *Cart) Remove(lineItemID string) error {
	for i, item := range c.Items {
		if item.ID == lineItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear drops every line item.
func (c *Cart) Clear() {
	c.Items = nil
}
