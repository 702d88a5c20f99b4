package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	shopService         = "shop-service"
	useCaseShopRegister = "shop.register"
	publishPeer         = "outbox"
	publishTimeout      = 300 * time.Millisecond
)

var (
	ErrDuplicateID = domain.ErrDuplicateID
	ErrNotFound    = domain.ErrNotFound
	ErrRepository  = errors.New("shop: repository failure")
)

type RegisterShopInput struct {
	Caller   identity.Identity
	ID       string
	Name     string
	Location string
}

// RegisterShopUseCase registers a shop owned by the caller.
type RegisterShopUseCase struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	ins       *application.Instruments
}

var _ application.UseCase[RegisterShopInput, domain.Shop] = (*RegisterShopUseCase)(nil)

func NewRegisterShopUseCase(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *RegisterShopUseCase {
	return &RegisterShopUseCase{
		repo:      repo,
		publisher: publisher,
		ins:       application.NewInstruments(tel, shopService),
	}
}

func (uc *RegisterShopUseCase) Execute(ctx context.Context, cmd RegisterShopInput) (_ domain.Shop, err error) {
	ctx, run := uc.ins.Begin(ctx, useCaseShopRegister, "RegisterShop",
		attribute.String("shop.id", cmd.ID),
		attribute.String("shop.owner", cmd.Caller.String()),
	)
	defer func() { run.End(err) }()

	if cmd.Caller.IsZero() {
		run.Fail("CALLER_REQUIRED")
		return domain.Shop{}, application.Validation("caller identity is required")
	}
	if strings.TrimSpace(cmd.ID) == "" {
		run.Fail("SHOP_ID_REQUIRED")
		return domain.Shop{}, application.Validation("shop id is required")
	}

	s, derr := domain.New(cmd.Caller, cmd.ID, cmd.Name, cmd.Location)
	if derr != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return domain.Shop{}, fmt.Errorf("shop: construct: %w", derr)
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return domain.Shop{}, err
	}

	if err := uc.repo.Insert(ctx, s); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			run.Fail("DUPLICATE_ID")
			return domain.Shop{}, err
		}
		run.Fail("REPO_INSERT_FAILED")
		return domain.Shop{}, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	if uc.publisher != nil {
		ev := domain.NewRegisteredEvent(s)
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		start := time.Now()
		perr := uc.publisher.Publish(pubCtx, ev)
		cancel()
		uc.ins.External(publishPeer, ev.EventName(), start, perr)
		if perr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
			run.Span().RecordError(perr)
			run.Note(observability.F("event_publish_error", perr.Error()))
		}
	}

	run.Note(observability.F("shop_id", s.ID))
	return s, nil
}
