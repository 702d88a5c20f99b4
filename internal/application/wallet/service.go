package wallet

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	walletService       = "wallet-simulator"
	useCaseWalletCredit = "wallet.credit"
)

type CreditInput struct {
	Owner  identity.Identity
	Amount money.Amount
}

// CreditUseCase seeds spendable funds. It stands in for deposits made through the
// external payment collaborator.
type CreditUseCase struct {
	repo domain.Repository
	ins  *application.Instruments
}

var _ application.UseCase[CreditInput, money.Amount] = (*CreditUseCase)(nil)

func NewCreditUseCase(repo domain.Repository, tel observability.Observability) *CreditUseCase {
	return &CreditUseCase{repo: repo, ins: application.NewInstruments(tel, walletService)}
}

func (uc *CreditUseCase) Execute(ctx context.Context, cmd CreditInput) (_ money.Amount, err error) {
	ctx, run := uc.ins.Begin(ctx, useCaseWalletCredit, "CreditWallet",
		attribute.String("wallet.owner", cmd.Owner.String()),
	)
	defer func() { run.End(err) }()

	if cmd.Owner.IsZero() {
		run.Fail("OWNER_REQUIRED")
		return money.Zero, application.Validation("wallet owner is required")
	}
	if cmd.Amount.IsZero() {
		run.Fail("AMOUNT_INVALID")
		return money.Zero, domain.ErrInvalidAmount
	}

	balance, err := uc.repo.Credit(ctx, cmd.Owner, cmd.Amount)
	if err != nil {
		run.Fail("CREDIT_FAILED")
		return money.Zero, fmt.Errorf("wallet: credit: %w", err)
	}
	run.Note(observability.F("balance", balance))
	return balance, nil
}

// Balance is a plain read.
func Balance(ctx context.Context, repo domain.Repository, owner identity.Identity) (money.Amount, error) {
	if owner.IsZero() {
		return money.Zero, application.Validation("wallet owner is required")
	}
	return repo.Balance(ctx, owner)
}

// Available is the balance minus funds held for purchases awaiting settlement.
func Available(ctx context.Context, repo domain.Repository, owner identity.Identity) (money.Amount, error) {
	if owner.IsZero() {
		return money.Zero, application.Validation("wallet owner is required")
	}
	return repo.AvailableFunds(ctx, owner)
}
