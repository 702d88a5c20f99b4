package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
)

type otherEvent struct{}

func (otherEvent) EventName() string { return "other" }

func TestWorkerAppliesInstruction(t *testing.T) {
	ctx := context.Background()
	wallets := memory.NewWalletRepository()
	if _, err := wallets.Credit(ctx, "B", money.FromUint64(100)); err != nil {
		t.Fatal(err)
	}
	w := NewWorker(wallets, observability.Nop())

	if got := w.Events(); len(got) != 1 || got[0] != "settlement.requested" {
		t.Fatalf("unexpected subscriptions %v", got)
	}

	in := domain.Instruction{Payer: "B", Payee: "A", Amount: money.FromUint64(30), Reference: "p1#1"}
	if err := wallets.Hold(ctx, "B", in.Amount); err != nil {
		t.Fatal(err)
	}
	if err := w.Handle(ctx, domain.NewRequestedEvent(in)); err != nil {
		t.Fatal(err)
	}
	if b, _ := wallets.Balance(ctx, "B"); !b.Equal(money.FromUint64(70)) {
		t.Fatalf("payer balance %s", b)
	}
	if a, _ := wallets.Balance(ctx, "A"); !a.Equal(money.FromUint64(30)) {
		t.Fatalf("payee balance %s", a)
	}
	if avail, _ := wallets.AvailableFunds(ctx, "B"); !avail.Equal(money.FromUint64(70)) {
		t.Fatalf("settling should consume the hold, available %s", avail)
	}

	big := domain.Instruction{Payer: "B", Payee: "A", Amount: money.FromUint64(1000), Reference: "p1#2"}
	if err := w.Handle(ctx, domain.NewRequestedEvent(big)); !errors.Is(err, domwallet.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}

	if err := w.Handle(ctx, otherEvent{}); err != nil {
		t.Fatalf("unexpected events are ignored, got %v", err)
	}
}
