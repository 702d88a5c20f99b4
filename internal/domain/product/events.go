package product

import "time"

// ListedEvent is emitted after a record is committed to the catalog.
type ListedEvent struct {
	ProductID  string
	ShopID     string
	Owner      string
	Supply     uint64
	OccurredAt time.Time
}

func (ListedEvent) EventName() string { return "product.listed" }

func NewListedEvent(r Record) ListedEvent {
	return ListedEvent{
		ProductID:  r.ID,
		ShopID:     r.ShopID,
		Owner:      r.Owner.String(),
		Supply:     r.RemainingSupply,
		OccurredAt: time.Now().UTC(),
	}
}

// PurchasedEvent is emitted after a purchase commits.
type PurchasedEvent struct {
	Sequence   uint64
	ProductID  string
	HoldingID  string
	Buyer      string
	Seller     string
	Quantity   uint64
	Remaining  uint64
	Total      string
	OccurredAt time.Time
}

func (PurchasedEvent) EventName() string { return "product.purchased" }

func NewPurchasedEvent(p *Purchase) PurchasedEvent {
	return PurchasedEvent{
		Sequence:   p.Sequence,
		ProductID:  p.Listing.ID,
		HoldingID:  p.Holding.ID,
		Buyer:      p.Holding.Owner.String(),
		Seller:     p.Listing.Owner.String(),
		Quantity:   p.Holding.RemainingSupply,
		Remaining:  p.Listing.RemainingSupply,
		Total:      p.Total.String(),
		OccurredAt: time.Now().UTC(),
	}
}
