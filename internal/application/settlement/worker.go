package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService          = "settlement-worker"
	useCaseSettleRequested = "settlement.worker.requested"
)

// Worker applies settlement instructions received over the bus to the wallet
// simulator. It plays the external payment collaborator when no broker is configured.
type Worker struct {
	wallets domwallet.Repository
	ins     *application.Instruments
}

func NewWorker(wallets domwallet.Repository, tel observability.Observability) *Worker {
	return &Worker{
		wallets: wallets,
		ins:     application.NewInstruments(tel, workerService),
	}
}

func (w *Worker) Events() []string {
	return []string{domain.RequestedEvent{}.EventName()}
}

func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) (err error) {
	ctx, run := w.ins.Begin(ctx, useCaseSettleRequested, "SettlementRequested",
		attribute.String("event", e.EventName()),
	)
	defer func() { run.End(err) }()

	evt, ok := e.(domain.RequestedEvent)
	if !ok {
		run.Ignore("UNEXPECTED_EVENT")
		return nil
	}
	in := evt.Instruction
	run.Note(
		observability.F("reference", in.Reference),
		observability.F("payer", in.Payer),
		observability.F("payee", in.Payee),
		observability.F("amount", in.Amount),
	)

	if err := w.wallets.Transfer(ctx, in.Payer, in.Payee, in.Amount); err != nil {
		if errors.Is(err, domwallet.ErrInsufficientBalance) {
			run.Fail("INSUFFICIENT_BALANCE")
		} else {
			run.Fail("TRANSFER_FAILED")
		}
		return fmt.Errorf("settlement %s: %w", in.Reference, err)
	}

	run.Span().SetAttributes(attribute.String("settlement.reference", in.Reference))
	return nil
}
