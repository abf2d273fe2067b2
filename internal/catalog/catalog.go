package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Category classifies an item and gates the one-slot-per-category home rule.
type Category string

const (
	CategoryBed   Category = "bed"
	CategoryChair Category = "chair"
	CategoryDesk  Category = "desk"
	CategoryLamp  Category = "lamp"
)

var categories = []Category{CategoryBed, CategoryChair, CategoryDesk, CategoryLamp}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func IsKnownCategory(c Category) bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// Point is a 2D canvas coordinate used for home placement.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ItemDef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Price    int      `json:"price"`
}

// Catalog is the read-only registry of purchasable furniture. Built once at
// startup, never mutated afterwards.
type Catalog struct {
	defs   map[string]ItemDef
	ids    []string
	digest string
}

type pricing struct {
	category Category
	price    int
	label    string
}

// Four variants per category, priced as the shop has always priced them.
var defaultPricing = []pricing{
	{CategoryBed, 100, "Bed"},
	{CategoryChair, 50, "Chair"},
	{CategoryDesk, 150, "Desk"},
	{CategoryLamp, 30, "Lamp"},
}

const variantsPerCategory = 4

// Default builds the built-in furniture catalog.
func Default() *Catalog {
	defs := make([]ItemDef, 0, len(defaultPricing)*variantsPerCategory)
	for _, p := range defaultPricing {
		for i := 1; i <= variantsPerCategory; i++ {
			defs = append(defs, ItemDef{
				ID:       fmt.Sprintf("%s%d", p.category, i),
				Name:     fmt.Sprintf("%s %d", p.label, i),
				Category: p.category,
				Price:    p.price,
			})
		}
	}
	c, err := New(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from explicit definitions.
func New(defs []ItemDef) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]ItemDef, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog: empty item id")
		}
		if !IsKnownCategory(d.Category) {
			return nil, fmt.Errorf("catalog: item %s: unknown category %q", d.ID, d.Category)
		}
		if d.Price < 0 {
			return nil, fmt.Errorf("catalog: item %s: negative price %d", d.ID, d.Price)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item id %s", d.ID)
		}
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Strings(c.ids)

	// Digest over the sorted defs so clients can detect catalog drift.
	ordered := make([]ItemDef, 0, len(c.ids))
	for _, id := range c.ids {
		ordered = append(ordered, c.defs[id])
	}
	raw, err := json.Marshal(ordered)
	if err != nil {
		return nil, err
	}
	c.digest = sha256Hex(raw)
	return c, nil
}

func (c *Catalog) Get(id string) (ItemDef, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// IDs returns all item ids in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

func (c *Catalog) Len() int { return len(c.defs) }

func (c *Catalog) Digest() string { return c.digest }

// DefaultAnchor is the shared home-canvas coordinate for every item of a
// category until the player drags it somewhere else.
func DefaultAnchor(c Category) Point {
	switch c {
	case CategoryBed:
		return Point{X: -150, Y: 100}
	case CategoryChair:
		return Point{X: 150, Y: 100}
	case CategoryDesk:
		return Point{X: -150, Y: -100}
	case CategoryLamp:
		return Point{X: 150, Y: -100}
	default:
		return Point{}
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
