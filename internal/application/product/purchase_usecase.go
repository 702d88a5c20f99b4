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
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fundsPeer       = "funds"
	fundsEndpoint   = "available_funds"
	holdEndpoint    = "hold"
	releaseEndpoint = "release"
	settlePeer      = "settlement"
	settleEndpoint  = "settle"
	settleTimeout   = 2 * time.Second
	statusSettleErr = "SETTLEMENT_REQUEST_FAILED"
)

type PurchaseInput struct {
	Buyer     identity.Identity
	ProductID string
	Quantity  uint64
}

// PurchaseUseCase reads the buyer's funds, holds the order total, commits the purchase,
// and then requests settlement exactly once. Settlement runs only after the repository has committed; a
// failed request is reported on the receipt and never rolls the purchase back.
type PurchaseUseCase struct {
	repo      domain.Repository
	funds     FundsProvider
	sink      settlement.Sink
	publisher domoutbox.Publisher
	ins       *application.Instruments

	units observability.Counter // purchased_units_total{category}
}

// PurchaseResult is the receipt of a committed purchase.
type PurchaseResult struct {
	*domain.Purchase
	// SettlementErr is set when the instruction could not be handed to the sink.
	SettlementErr error
}

var _ application.UseCase[PurchaseInput, *PurchaseResult] = (*PurchaseUseCase)(nil)

func NewPurchaseUseCase(
	repo domain.Repository,
	funds FundsProvider,
	sink settlement.Sink,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PurchaseUseCase {
	ins := application.NewInstruments(tel, productService)
	return &PurchaseUseCase{
		repo:      repo,
		funds:     funds,
		sink:      sink,
		publisher: publisher,
		ins:       ins,
		units:     ins.Tel.Metrics().Counter(observability.MPurchasedUnits),
	}
}

func (uc *PurchaseUseCase) Execute(ctx context.Context, cmd PurchaseInput) (_ *PurchaseResult, err error) {
	ctx, run := uc.ins.Begin(ctx, useCasePurchase, "Purchase",
		attribute.String("product.id", cmd.ProductID),
		attribute.String("buyer", cmd.Buyer.String()),
		attribute.Int64("quantity", int64(cmd.Quantity)),
	)
	defer func() { run.End(err) }()

	if cmd.Buyer.IsZero() {
		run.Fail("BUYER_REQUIRED")
		return nil, application.Validation("buyer identity is required")
	}
	if strings.TrimSpace(cmd.ProductID) == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, application.Validation("product id is required")
	}

	start := time.Now()
	funds, ferr := uc.funds.AvailableFunds(ctx, cmd.Buyer)
	uc.ins.External(fundsPeer, fundsEndpoint, start, ferr)
	if ferr != nil {
		run.Fail("FUNDS_LOOKUP_FAILED")
		return nil, fmt.Errorf("product: funds for %s: %w", cmd.Buyer, ferr)
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	order := domain.Order{
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Buyer:     cmd.Buyer,
		Funds:     funds,
	}
	total, cerr := uc.precheck(ctx, order)
	if cerr != nil {
		run.Fail(purchaseStatus(cerr))
		return nil, uc.repoError(cerr)
	}

	// Held funds cannot back a second purchase before this one settles. The hold is
	// released if the commit does not happen.
	start = time.Now()
	herr := uc.funds.Hold(ctx, cmd.Buyer, total)
	uc.ins.External(fundsPeer, holdEndpoint, start, herr)
	if herr != nil {
		if errors.Is(herr, domwallet.ErrInsufficientBalance) {
			run.Fail(purchaseStatus(domain.ErrInsufficientFunds))
			return nil, fmt.Errorf("%w: %w", domain.ErrInsufficientFunds, herr)
		}
		run.Fail("FUNDS_HOLD_FAILED")
		return nil, fmt.Errorf("product: hold funds for %s: %w", cmd.Buyer, herr)
	}

	order.Funds = total
	p, perr := uc.repo.Purchase(ctx, order)
	if perr != nil {
		uc.release(ctx, run, cmd.Buyer, total)
		run.Fail(purchaseStatus(perr))
		return nil, uc.repoError(perr)
	}

	res := &PurchaseResult{Purchase: p}
	run.Note(
		observability.F("product_id", p.Listing.ID),
		observability.F("holding_id", p.Holding.ID),
		observability.F("sequence", p.Sequence),
		observability.F("total", p.Total),
	)
	run.Span().AddEvent("product.purchased", trace.WithAttributes(
		attribute.String("holding.id", p.Holding.ID),
		attribute.String("total", p.Total.String()),
		attribute.Int64("remaining_supply", int64(p.Listing.RemainingSupply)),
	))
	uc.units.Add(float64(cmd.Quantity), observability.L("category", p.Listing.Category))

	// Committed. From here on nothing fails the purchase.
	if serr := uc.settle(ctx, p.Settlement); serr != nil {
		res.SettlementErr = serr
		run.Status(statusSettleErr)
		run.Span().RecordError(serr)
		run.Logger().Error("settlement_request_failed",
			observability.F("reference", p.Settlement.Reference),
			observability.F("payer", p.Settlement.Payer),
			observability.F("payee", p.Settlement.Payee),
			observability.F("amount", p.Settlement.Amount),
			observability.Err(serr),
		)
	}

	if perr := publish(ctx, uc.ins, uc.publisher, domain.NewPurchasedEvent(p)); perr != nil {
		run.Note(observability.F("event_publish_error", perr.Error()))
	}

	return res, nil
}

// precheck runs the order's checks against the current listing without writing, so a
// hold is only placed for an order that can commit. The repository checks again under
// its own lock.
func (uc *PurchaseUseCase) precheck(ctx context.Context, o domain.Order) (money.Amount, error) {
	listing, err := uc.repo.Get(ctx, o.ProductID)
	if err != nil {
		return money.Zero, err
	}
	return domain.Check(listing, o)
}

func (uc *PurchaseUseCase) release(ctx context.Context, run *application.Run, buyer identity.Identity, amount money.Amount) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	start := time.Now()
	err := uc.funds.Release(ctx, buyer, amount)
	uc.ins.External(fundsPeer, releaseEndpoint, start, err)
	if err != nil {
		run.Span().RecordError(err)
		run.Logger().Error("funds_release_failed",
			observability.F("buyer", buyer),
			observability.F("amount", amount),
			observability.Err(err),
		)
	}
}

func (uc *PurchaseUseCase) repoError(err error) error {
	if isDomainRejection(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}

func (uc *PurchaseUseCase) settle(ctx context.Context, in settlement.Instruction) error {
	if uc.sink == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	start := time.Now()
	err := uc.sink.Settle(ctx, in)
	uc.ins.External(settlePeer, settleEndpoint, start, err)
	return err
}

var rejections = []struct {
	err    error
	status string
}{
	{domain.ErrNotFound, "NOT_FOUND"},
	{domain.ErrInvalidQuantity, "QUANTITY_INVALID"},
	{domain.ErrInvalidOwner, "BUYER_REQUIRED"},
	{domain.ErrNotForSale, "NOT_FOR_SALE"},
	{domain.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{domain.ErrOverflow, "OVERFLOW"},
	{domain.ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
}

func purchaseStatus(err error) string {
	for _, r := range rejections {
		if errors.Is(err, r.err) {
			return r.status
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CONTEXT_CANCELED"
	}
	return "REPO_PURCHASE_FAILED"
}

func isDomainRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r.err) {
			return true
		}
	}
	return false
}
