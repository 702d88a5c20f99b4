package shop

import (
	"context"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
)

type Repository interface {
	Insert(ctx context.Context, s Shop) error
	Get(ctx context.Context, id string) (Shop, error)
	ListByOwner(ctx context.Context, owner identity.Identity) ([]Shop, error)
}
