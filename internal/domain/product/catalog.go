package product

import "github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"

// Catalog is the canonical product store. byID owns the records; byOwner and byShop
// hold ids only and are resolved through byID on every read, so a record mutated in
// place is seen identically through all three.
//
// Catalog is not safe for concurrent use.
type Catalog struct {
	byID    map[string]*Record
	byOwner map[identity.Identity][]string
	byShop  map[string][]string
	seq     uint64
}

func NewCatalog() *Catalog {
	return &Catalog{
		byID:    make(map[string]*Record),
		byOwner: make(map[identity.Identity][]string),
		byShop:  make(map[string][]string),
	}
}

func (c *Catalog) Insert(rec Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}
	if rec.Owner.IsZero() {
		return ErrInvalidOwner
	}
	if _, exists := c.byID[rec.ID]; exists {
		return ErrDuplicateID
	}
	c.put(rec)
	return nil
}

func (c *Catalog) Get(id string) (Record, error) {
	rec, ok := c.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

func (c *Catalog) ListByShop(shopID string) []Record {
	return c.resolve(c.byShop[shopID])
}

func (c *Catalog) ListByOwner(owner identity.Identity) []Record {
	return c.resolve(c.byOwner[owner])
}

// Purchase applies an order. Every check runs before the first write, so a failed
// order leaves the catalog untouched.
func (c *Catalog) Purchase(o Order) (*Purchase, error) {
	listing, ok := c.byID[o.ProductID]
	if !ok {
		return nil, ErrNotFound
	}
	total, err := Check(*listing, o)
	if err != nil {
		return nil, err
	}

	seq, holdingID := c.nextHolding(listing.ID)

	c.seq = seq
	listing.RemainingSupply -= o.Quantity
	holding := NewHolding(*listing, holdingID, o.Quantity, o.Buyer)
	c.put(holding)

	return NewPurchase(seq, *listing, holding, total, o.Buyer), nil
}

func (c *Catalog) Len() int { return len(c.byID) }

// Sequence reports the last purchase sequence handed out.
func (c *Catalog) Sequence() uint64 { return c.seq }

// nextHolding picks the next sequence whose holding id is free. Listing ids are caller
// chosen, so a candidate can already be taken.
func (c *Catalog) nextHolding(productID string) (uint64, string) {
	seq := c.seq
	for {
		seq++
		id := HoldingID(productID, seq)
		if _, taken := c.byID[id]; !taken {
			return seq, id
		}
	}
}

func (c *Catalog) put(rec Record) {
	stored := rec
	c.byID[rec.ID] = &stored
	c.byOwner[rec.Owner] = append(c.byOwner[rec.Owner], rec.ID)
	if rec.IsListing() {
		c.byShop[rec.ShopID] = append(c.byShop[rec.ShopID], rec.ID)
	}
}

func (c *Catalog) resolve(ids []string) []Record {
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := c.byID[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}
