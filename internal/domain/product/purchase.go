package product

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
)

// holdingSeparator joins a listing id and a purchase sequence into a holding id.
const holdingSeparator = "#"

// Order is a purchase request. Funds is what the buyer can spend, as reported by the
// funds provider before the purchase runs.
type Order struct {
	ProductID string
	Quantity  uint64
	Buyer     identity.Identity
	Funds     money.Amount
}

// Purchase is the committed outcome of an order.
type Purchase struct {
	Sequence   uint64
	Listing    Record
	Holding    Record
	Total      money.Amount
	Settlement settlement.Instruction
}

// Check runs every precondition of an order against the resolved listing, in order, and
// returns the total price. It never mutates anything.
func Check(listing Record, o Order) (money.Amount, error) {
	if o.Buyer.IsZero() {
		return money.Zero, ErrInvalidOwner
	}
	if o.Quantity == 0 {
		return money.Zero, ErrInvalidQuantity
	}
	if !listing.IsListing() {
		return money.Zero, ErrNotForSale
	}
	if listing.RemainingSupply < o.Quantity {
		return money.Zero, fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, o.Quantity, listing.RemainingSupply)
	}
	total, err := listing.UnitPrice.MulQuantity(o.Quantity)
	if err != nil {
		return money.Zero, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	if o.Funds.Cmp(total) < 0 {
		return money.Zero, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, total, o.Funds)
	}
	return total, nil
}

func HoldingID(productID string, seq uint64) string {
	return fmt.Sprintf("%s%s%d", productID, holdingSeparator, seq)
}

// NewHolding copies the identity fields of listing into a shop-less record owned by buyer.
func NewHolding(listing Record, id string, quantity uint64, buyer identity.Identity) Record {
	return Record{
		ID:              id,
		Name:            listing.Name,
		Category:        listing.Category,
		UnitPrice:       listing.UnitPrice,
		RemainingSupply: quantity,
		Owner:           buyer,
	}
}

// NewPurchase assembles the outcome once the listing has been decremented and the holding stored.
func NewPurchase(seq uint64, listing, holding Record, total money.Amount, payer identity.Identity) *Purchase {
	return &Purchase{
		Sequence: seq,
		Listing:  listing,
		Holding:  holding,
		Total:    total,
		Settlement: settlement.Instruction{
			Payer:     payer,
			Payee:     listing.Owner,
			Amount:    total,
			Reference: holding.ID,
		},
	}
}
