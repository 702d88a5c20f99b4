package product

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
)

// Service serves catalog reads. Reads never mutate and return empty slices for no results.
type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Record, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Record{}, application.Validation("product id is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByShop(ctx context.Context, shopID string) ([]domain.Record, error) {
	if strings.TrimSpace(shopID) == "" {
		return []domain.Record{}, nil
	}
	return s.repo.ListByShop(ctx, shopID)
}

func (s *Service) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Record, error) {
	if owner.IsZero() {
		return []domain.Record{}, nil
	}
	return s.repo.ListByOwner(ctx, owner)
}
