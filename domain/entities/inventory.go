package entities

// InventoryItem records ownership of one shop item
type InventoryItem struct {
	PurchasedAt UnixTime `json:"purchased"`
	Quantity    int64    `json:"quantity"`
}

// Inventory maps shop item ids to owned items. Items may outlive their
// catalog entry.
type Inventory map[string]InventoryItem

// NewInventory returns an empty inventory
func NewInventory() Inventory {
	return make(Inventory)
}

// Has reports whether the item is owned
func (inv Inventory) Has(itemID string) bool {
	item, ok := inv[itemID]
	return ok && item.Quantity > 0
}

// Add increments the quantity of an item, refreshing its purchase time
func (inv Inventory) Add(itemID string, purchasedAt UnixTime, quantity int64) {
	item := inv[itemID]
	item.Quantity += quantity
	item.PurchasedAt = purchasedAt
	inv[itemID] = item
}

// Clone returns a copy that can be mutated independently
func (inv Inventory) Clone() Inventory {
	c := make(Inventory, len(inv))
	for id, item := range inv {
		c[id] = item
	}
	return c
}

// Normalize gives items written before quantities existed a quantity of one
func (inv Inventory) Normalize() {
	for id, item := range inv {
		if item.Quantity < 1 {
			item.Quantity = 1
			inv[id] = item
		}
	}
}
