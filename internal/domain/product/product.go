package product

import (
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrDuplicateID       = errors.New("product: id already exists")
	ErrInvalidID         = errors.New("product: id is required")
	ErrInvalidOwner      = errors.New("product: owner is required")
	ErrInvalidPrice      = errors.New("product: unit price must be greater than zero")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInsufficientFunds = errors.New("product: insufficient funds")
	ErrOverflow          = errors.New("product: total price overflows")
	ErrNotForSale        = errors.New("product: holding is not for sale")
	ErrUnauthorized      = errors.New("product: caller does not own the shop")
	ErrSupplyTooLarge    = errors.New("product: supply exceeds what the store can hold")
)

// Record is a catalog entry. A record with a ShopID is a listing; one without is a
// holding produced by a purchase.
type Record struct {
	ID              string
	Name            string
	Category        string
	UnitPrice       money.Amount
	RemainingSupply uint64
	Owner           identity.Identity
	ShopID          string
}

func (r Record) IsListing() bool { return r.ShopID != "" }

// NewListing validates the fields of a record about to be listed. shopID may be empty,
// which lists the record as an owner-only holding.
func NewListing(shopID, id, name, category string, unitPrice money.Amount, totalSupply uint64, owner identity.Identity) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidID
	}
	if owner.IsZero() {
		return Record{}, ErrInvalidOwner
	}
	if unitPrice.IsZero() {
		return Record{}, ErrInvalidPrice
	}
	return Record{
		ID:              id,
		Name:            name,
		Category:        category,
		UnitPrice:       unitPrice,
		RemainingSupply: totalSupply,
		Owner:           owner,
		ShopID:          strings.TrimSpace(shopID),
	}, nil
}
