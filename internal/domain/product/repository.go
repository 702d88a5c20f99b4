package product

import (
	"context"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
)

type Repository interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	ListByShop(ctx context.Context, shopID string) ([]Record, error)
	ListByOwner(ctx context.Context, owner identity.Identity) ([]Record, error)
	// Purchase applies the order atomically: either every write commits or none does.
	Purchase(ctx context.Context, o Order) (*Purchase, error)
}
