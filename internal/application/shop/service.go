package shop

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
)

// Service serves registry reads. It also answers shop ownership lookups for the product
// ledger, which never reads the registry directly.
type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (domain.Shop, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Shop{}, application.Validation("shop id is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Shop, error) {
	if owner.IsZero() {
		return []domain.Shop{}, nil
	}
	return s.repo.ListByOwner(ctx, owner)
}

func (s *Service) ShopOwner(ctx context.Context, shopID string) (identity.Identity, error) {
	shop, err := s.repo.Get(ctx, shopID)
	if err != nil {
		return "", err
	}
	return shop.Owner, nil
}
