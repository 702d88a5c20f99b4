package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
)

// ProductRepository serializes every call on one mutex around a product.Catalog, so a
// purchase's check and commit never interleave with another write.
type ProductRepository struct {
	mu      sync.RWMutex
	catalog *domain.Catalog
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{catalog: domain.NewCatalog()}
}

func (r *ProductRepository) Insert(ctx context.Context, rec domain.Record) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.catalog.Insert(rec)
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.catalog.Get(id)
}

func (r *ProductRepository) ListByShop(ctx context.Context, shopID string) ([]domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.catalog.ListByShop(shopID), nil
}

func (r *ProductRepository) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.catalog.ListByOwner(owner), nil
}

func (r *ProductRepository) Purchase(ctx context.Context, o domain.Order) (*domain.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.catalog.Purchase(o)
}
