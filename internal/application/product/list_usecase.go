package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	productService     = "product-ledger"
	useCaseProductList = "product.list"
	useCasePurchase    = "product.purchase"
	publishPeer        = "outbox"
	publishTimeout     = 300 * time.Millisecond
)

var ErrRepository = errors.New("product: repository failure")

// ListProductInput lists a product against ShopID. Owner defaults to Caller. An empty
// ShopID creates an owner-only record, which only the owner itself may do.
type ListProductInput struct {
	Caller      identity.Identity
	ShopID      string
	ID          string
	Name        string
	Category    string
	UnitPrice   money.Amount
	TotalSupply uint64
	Owner       identity.Identity
}

type ListProductUseCase struct {
	repo      domain.Repository
	shops     ShopDirectory
	publisher domoutbox.Publisher
	ins       *application.Instruments
}

var _ application.UseCase[ListProductInput, domain.Record] = (*ListProductUseCase)(nil)

func NewListProductUseCase(
	repo domain.Repository,
	shops ShopDirectory,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ListProductUseCase {
	return &ListProductUseCase{
		repo:      repo,
		shops:     shops,
		publisher: publisher,
		ins:       application.NewInstruments(tel, productService),
	}
}

func (uc *ListProductUseCase) Execute(ctx context.Context, cmd ListProductInput) (_ domain.Record, err error) {
	ctx, run := uc.ins.Begin(ctx, useCaseProductList, "ListProduct",
		attribute.String("product.id", cmd.ID),
		attribute.String("shop.id", cmd.ShopID),
		attribute.String("caller", cmd.Caller.String()),
	)
	defer func() { run.End(err) }()

	if cmd.Caller.IsZero() {
		run.Fail("CALLER_REQUIRED")
		return domain.Record{}, application.Validation("caller identity is required")
	}
	owner := cmd.Owner
	if owner.IsZero() {
		owner = cmd.Caller
	}
	shopID := strings.TrimSpace(cmd.ShopID)

	if shopID != "" {
		shopOwner, serr := uc.shops.ShopOwner(ctx, shopID)
		if serr != nil {
			run.Fail("SHOP_LOOKUP_FAILED")
			return domain.Record{}, fmt.Errorf("product: shop %s: %w", shopID, serr)
		}
		if shopOwner != cmd.Caller {
			run.Fail("UNAUTHORIZED")
			return domain.Record{}, fmt.Errorf("%w: shop %s", domain.ErrUnauthorized, shopID)
		}
	} else if owner != cmd.Caller {
		run.Fail("UNAUTHORIZED")
		return domain.Record{}, fmt.Errorf("%w: cannot create a holding for %s", domain.ErrUnauthorized, owner)
	}

	rec, derr := domain.NewListing(shopID, cmd.ID, cmd.Name, cmd.Category, cmd.UnitPrice, cmd.TotalSupply, owner)
	if derr != nil {
		run.Fail("INVALID_LISTING")
		return domain.Record{}, derr
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return domain.Record{}, err
	}

	if err := uc.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			run.Fail("DUPLICATE_ID")
			return domain.Record{}, err
		}
		if errors.Is(err, domain.ErrSupplyTooLarge) {
			run.Fail("SUPPLY_TOO_LARGE")
			return domain.Record{}, err
		}
		run.Fail("REPO_INSERT_FAILED")
		return domain.Record{}, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	if perr := publish(ctx, uc.ins, uc.publisher, domain.NewListedEvent(rec)); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Note(observability.F("event_publish_error", perr.Error()))
	}

	run.Span().AddEvent("product.listed", trace.WithAttributes(
		attribute.String("product.id", rec.ID),
		attribute.String("product.owner", rec.Owner.String()),
	))
	run.Note(observability.F("product_id", rec.ID))
	return rec, nil
}

// publish is best effort: a committed write is never undone because an event was lost.
func publish(ctx context.Context, ins *application.Instruments, pub domoutbox.Publisher, ev domoutbox.Event) error {
	if pub == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	err := pub.Publish(pubCtx, ev)
	ins.External(publishPeer, ev.EventName(), start, err)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
	return err
}
