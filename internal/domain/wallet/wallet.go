package wallet

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
)

var (
	ErrInvalidOwner        = errors.New("wallet: owner is required")
	ErrInvalidAmount       = errors.New("wallet: amount must be greater than zero")
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrNoHold              = errors.New("wallet: amount exceeds held funds")
)

// Repository holds spendable balances. It simulates the external payment collaborator:
// purchases hold funds in it and settlement instructions are applied to it.
//
// A wallet's held amount never exceeds its balance. Available funds are the balance
// minus what is held.
type Repository interface {
	Balance(ctx context.Context, owner identity.Identity) (money.Amount, error)
	AvailableFunds(ctx context.Context, owner identity.Identity) (money.Amount, error)
	Credit(ctx context.Context, owner identity.Identity, amount money.Amount) (money.Amount, error)
	// Hold earmarks amount for a pending settlement, failing with ErrInsufficientBalance
	// when the available funds do not cover it.
	Hold(ctx context.Context, owner identity.Identity, amount money.Amount) error
	// Release returns held funds to the available balance.
	Release(ctx context.Context, owner identity.Identity, amount money.Amount) error
	// Transfer moves amount from payer to payee atomically, drawing first on the
	// payer's held funds.
	Transfer(ctx context.Context, payer, payee identity.Identity, amount money.Amount) error
}

// Account is the stored state of one wallet.
type Account struct {
	Balance money.Amount
	Held    money.Amount
}

// Available is the part of the balance not held for pending settlements.
func (a Account) Available() money.Amount {
	v, err := a.Balance.Sub(a.Held)
	if err != nil {
		return money.Zero
	}
	return v
}

// Hold returns the account with amount earmarked.
func (a Account) Hold(amount money.Amount) (Account, error) {
	avail := a.Available()
	if avail.Cmp(amount) < 0 {
		return a, ErrInsufficientBalance
	}
	held, err := a.Held.Add(amount)
	if err != nil {
		return a, err
	}
	a.Held = held
	return a, nil
}

// Release returns the account with amount no longer held.
func (a Account) Release(amount money.Amount) (Account, error) {
	held, err := a.Held.Sub(amount)
	if err != nil {
		return a, ErrNoHold
	}
	a.Held = held
	return a, nil
}

// Debit returns the account with amount paid out, consuming held funds first.
func (a Account) Debit(amount money.Amount) (Account, error) {
	balance, err := a.Balance.Sub(amount)
	if err != nil {
		return a, ErrInsufficientBalance
	}
	if a.Held.Cmp(amount) <= 0 {
		a.Held = money.Zero
	} else {
		a.Held, _ = a.Held.Sub(amount)
	}
	a.Balance = balance
	return a, nil
}
