package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
)

type ShopRepository struct {
	mu       sync.RWMutex
	registry *domain.Registry
}

func NewShopRepository() *ShopRepository {
	return &ShopRepository{registry: domain.NewRegistry()}
}

func (r *ShopRepository) Insert(ctx context.Context, s domain.Shop) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.registry.Register(s)
}

func (r *ShopRepository) Get(ctx context.Context, id string) (domain.Shop, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.registry.Get(id)
}

func (r *ShopRepository) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Shop, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.registry.ListByOwner(owner), nil
}
