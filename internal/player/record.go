package player

import (
	"encoding/json"
	"fmt"

	"hearth/internal/catalog"
)

// StartingBalance is granted when a record is created on first sign-in.
const StartingBalance = 1000

type SleepEntry struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Hours float64 `json:"hours"`
}

// Record is the full persisted state for one player. It is stored as a single
// flat document and always written back whole; the JSON tags are the wire
// field names of the remote document.
type Record struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Balance int    `json:"money"`

	// Owned but not placed. Set semantics; order is not meaningful.
	Inventory []string `json:"inventory"`

	// One placed item per category.
	Placements map[catalog.Category]string `json:"homeItems"`

	// Last-known canvas position per item, kept across placement transitions
	// so a re-placed item lands where the player left it.
	Positions map[string]catalog.Point `json:"homeItemPositions"`

	// Sibling draw order per item.
	Layers map[string]int `json:"homeItemLayers"`

	// Goal ids already rewarded.
	CompletedGoals []string `json:"completedGoals"`

	// At most one entry per date.
	SleepEntries []SleepEntry `json:"sleepLogs"`
}

// New returns a fresh record with the starting balance and empty collections.
func New(name, email string) *Record {
	return &Record{
		Name:       name,
		Email:      email,
		Balance:    StartingBalance,
		Inventory:  []string{},
		Placements: map[catalog.Category]string{},
		Positions:  map[string]catalog.Point{},
		Layers:     map[string]int{},
	}
}

// Normalize ensures collections are non-nil after decoding an older or
// hand-edited document.
func (r *Record) Normalize() {
	if r.Inventory == nil {
		r.Inventory = []string{}
	}
	if r.Placements == nil {
		r.Placements = map[catalog.Category]string{}
	}
	if r.Positions == nil {
		r.Positions = map[string]catalog.Point{}
	}
	if r.Layers == nil {
		r.Layers = map[string]int{}
	}
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Name:    r.Name,
		Email:   r.Email,
		Balance: r.Balance,
	}
	out.Inventory = append([]string{}, r.Inventory...)
	out.Placements = make(map[catalog.Category]string, len(r.Placements))
	for k, v := range r.Placements {
		out.Placements[k] = v
	}
	out.Positions = make(map[string]catalog.Point, len(r.Positions))
	for k, v := range r.Positions {
		out.Positions[k] = v
	}
	out.Layers = make(map[string]int, len(r.Layers))
	for k, v := range r.Layers {
		out.Layers[k] = v
	}
	if r.CompletedGoals != nil {
		out.CompletedGoals = append([]string{}, r.CompletedGoals...)
	}
	if r.SleepEntries != nil {
		out.SleepEntries = append([]SleepEntry{}, r.SleepEntries...)
	}
	return out
}

func (r *Record) InInventory(itemID string) bool {
	for _, id := range r.Inventory {
		if id == itemID {
			return true
		}
	}
	return false
}

// AddToInventory is a set insert; duplicates are ignored.
func (r *Record) AddToInventory(itemID string) {
	if !r.InInventory(itemID) {
		r.Inventory = append(r.Inventory, itemID)
	}
}

// RemoveFromInventory is a set delete; absent ids are ignored.
func (r *Record) RemoveFromInventory(itemID string) {
	for i, id := range r.Inventory {
		if id == itemID {
			r.Inventory = append(r.Inventory[:i], r.Inventory[i+1:]...)
			return
		}
	}
}

// PlacedCategory reports the category slot itemID currently occupies, if any.
func (r *Record) PlacedCategory(itemID string) (catalog.Category, bool) {
	for cat, id := range r.Placements {
		if id == itemID {
			return cat, true
		}
	}
	return "", false
}

// Owns reports whether itemID is in inventory or placed.
func (r *Record) Owns(itemID string) bool {
	if r.InInventory(itemID) {
		return true
	}
	_, placed := r.PlacedCategory(itemID)
	return placed
}

func (r *Record) GoalCompleted(goalID string) bool {
	for _, g := range r.CompletedGoals {
		if g == goalID {
			return true
		}
	}
	return false
}

func Encode(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

func Decode(b []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode player document: %w", err)
	}
	r.Normalize()
	return &r, nil
}

// Validate checks the record's structural invariants against the catalog.
// Dangling ids are a data-integrity error, never silently dropped.
func (r *Record) Validate(cat *catalog.Catalog) error {
	if r.Balance < 0 {
		return fmt.Errorf("record: negative balance %d", r.Balance)
	}

	seen := map[string]bool{}
	for _, id := range r.Inventory {
		if seen[id] {
			return fmt.Errorf("record: duplicate inventory id %s", id)
		}
		seen[id] = true
		if _, ok := cat.Get(id); !ok {
			return fmt.Errorf("record: inventory id %s not in catalog", id)
		}
	}

	for c, id := range r.Placements {
		def, ok := cat.Get(id)
		if !ok {
			return fmt.Errorf("record: placed id %s not in catalog", id)
		}
		if def.Category != c {
			return fmt.Errorf("record: item %s placed in %s slot but is a %s", id, c, def.Category)
		}
		if seen[id] {
			return fmt.Errorf("record: item %s both in inventory and placed", id)
		}
		seen[id] = true
	}

	for id := range r.Positions {
		if _, ok := cat.Get(id); !ok {
			return fmt.Errorf("record: position for unknown item %s", id)
		}
	}
	for id := range r.Layers {
		if _, ok := cat.Get(id); !ok {
			return fmt.Errorf("record: layer for unknown item %s", id)
		}
	}

	dates := map[string]bool{}
	for _, e := range r.SleepEntries {
		if dates[e.Date] {
			return fmt.Errorf("record: duplicate sleep entry for %s", e.Date)
		}
		dates[e.Date] = true
	}
	return nil
}
