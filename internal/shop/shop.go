// Package shop validates and applies purchases against a freshly loaded
// record. The load-check-save cycle is not transactional against the remote
// store; reloading right before Buy shrinks the double-spend window but the
// race between two sessions is accepted (last save wins).
package shop

import (
	"hearth/internal/catalog"
	"hearth/internal/player"
	"hearth/internal/protocol"
)

type Coordinator struct {
	cat *catalog.Catalog
}

func NewCoordinator(cat *catalog.Catalog) *Coordinator {
	return &Coordinator{cat: cat}
}

// Buy deducts the item's price and adds it to inventory. Ownership is
// cross-checked against inventory and placements; an item is never owned
// twice. On any error code the record is untouched.
func (c *Coordinator) Buy(rec *player.Record, itemID string) string {
	def, ok := c.cat.Get(itemID)
	if !ok {
		return protocol.ErrUnknownItem
	}
	if rec.Owns(itemID) {
		return protocol.ErrAlreadyOwned
	}
	if rec.Balance < def.Price {
		return protocol.ErrInsufficientFunds
	}
	rec.Balance -= def.Price
	rec.AddToInventory(itemID)
	return protocol.OKPurchased
}
