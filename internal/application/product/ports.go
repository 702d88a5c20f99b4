package product

import (
	"context"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
)

// FundsProvider reports what an identity can spend right now and holds the total of a
// purchase until its settlement is applied. Hold fails with an error wrapping
// wallet.ErrInsufficientBalance when the available funds do not cover amount.
type FundsProvider interface {
	AvailableFunds(ctx context.Context, who identity.Identity) (money.Amount, error)
	Hold(ctx context.Context, who identity.Identity, amount money.Amount) error
	Release(ctx context.Context, who identity.Identity, amount money.Amount) error
}

// ShopDirectory resolves a shop's registered owner for listing authorization.
type ShopDirectory interface {
	ShopOwner(ctx context.Context, shopID string) (identity.Identity, error)
}
