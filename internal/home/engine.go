// Package home is the state machine moving items between inventory and the
// one-per-category home slots. Operations mutate the record they are given
// and return an outcome code; on any error code the record is untouched.
// Callers pass a clone and persist it only when the outcome is a success.
package home

import (
	"hearth/internal/catalog"
	"hearth/internal/player"
	"hearth/internal/protocol"
)

type Engine struct {
	cat *catalog.Catalog
}

func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Place moves itemID from inventory into its category slot.
//
// When the slot is held by a different item, nothing moves: the caller gets
// OK_SWAP_REQUIRED and must come back with an explicit ResolveSwap decision.
// Silent overwrites of a placed item are never allowed.
func (e *Engine) Place(rec *player.Record, itemID string) string {
	def, ok := e.cat.Get(itemID)
	if !ok {
		return protocol.ErrUnknownItem
	}

	occupant, occupied := rec.Placements[def.Category]
	if occupied && occupant == itemID {
		return protocol.OKAlreadyPlaced
	}
	if !rec.InInventory(itemID) {
		return protocol.ErrNotInInventory
	}
	if occupied {
		return protocol.OKSwapRequired
	}

	rec.RemoveFromInventory(itemID)
	rec.Placements[def.Category] = itemID
	e.ensurePosition(rec, itemID, def.Category)
	return protocol.OKPlaced
}

// ResolveSwap applies the caller's decision for an occupied slot. Decline
// leaves the record untouched. Accept returns the occupant to inventory
// (keeping its position and layer entries so a later re-place restores the
// same arrangement) and places the incoming item.
func (e *Engine) ResolveSwap(rec *player.Record, cat catalog.Category, incomingItemID string, accept bool) string {
	if !accept {
		return protocol.OKNoop
	}

	def, ok := e.cat.Get(incomingItemID)
	if !ok {
		return protocol.ErrUnknownItem
	}
	if def.Category != cat {
		return protocol.ErrInvalidInput
	}
	if !rec.InInventory(incomingItemID) {
		return protocol.ErrNotInInventory
	}

	if occupant, occupied := rec.Placements[cat]; occupied {
		rec.AddToInventory(occupant)
	}
	rec.RemoveFromInventory(incomingItemID)
	rec.Placements[cat] = incomingItemID
	e.ensurePosition(rec, incomingItemID, cat)
	return protocol.OKPlaced
}

// Return moves itemID from the category slot back to inventory. Calling it
// again, or for an item that was never placed, is safe. The category must be
// the item's own; a mismatch is rejected before anything moves, otherwise the
// item would end up both placed and in inventory.
func (e *Engine) Return(rec *player.Record, itemID string, cat catalog.Category) string {
	def, ok := e.cat.Get(itemID)
	if !ok {
		return protocol.ErrUnknownItem
	}
	if def.Category != cat {
		return protocol.ErrInvalidInput
	}
	if rec.Placements[cat] == itemID {
		delete(rec.Placements, cat)
	}
	rec.AddToInventory(itemID)
	return protocol.OKUpdated
}

// SetPosition upserts the item's canvas coordinate. Ownership or placement
// state is not required: drag-release events may arrive after the item was
// already returned to inventory, and the last-known position must survive.
func (e *Engine) SetPosition(rec *player.Record, itemID string, x, y float64) string {
	if _, ok := e.cat.Get(itemID); !ok {
		return protocol.ErrUnknownItem
	}
	rec.Positions[itemID] = catalog.Point{X: x, Y: y}
	return protocol.OKUpdated
}

// SetLayer upserts the item's sibling draw order.
func (e *Engine) SetLayer(rec *player.Record, itemID string, order int) string {
	if _, ok := e.cat.Get(itemID); !ok {
		return protocol.ErrUnknownItem
	}
	rec.Layers[itemID] = order
	return protocol.OKUpdated
}

// ensurePosition assigns the category anchor the first time an item is placed.
// Items that were moved before keep their recorded position.
func (e *Engine) ensurePosition(rec *player.Record, itemID string, cat catalog.Category) {
	if _, ok := rec.Positions[itemID]; !ok {
		rec.Positions[itemID] = catalog.DefaultAnchor(cat)
	}
}
