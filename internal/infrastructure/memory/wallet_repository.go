package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
)

// WalletRepository keeps accounts in memory. Unknown owners have a zero balance.
type WalletRepository struct {
	mu       sync.RWMutex
	accounts map[identity.Identity]domain.Account
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		accounts: make(map[identity.Identity]domain.Account),
	}
}

func (r *WalletRepository) account(ctx context.Context, owner identity.Identity) (domain.Account, error) {
	_ = ctx
	if owner.IsZero() {
		return domain.Account{}, domain.ErrInvalidOwner
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.accounts[owner], nil
}

// AvailableFunds satisfies the purchase flow's funds port: the balance minus held funds.
func (r *WalletRepository) AvailableFunds(ctx context.Context, owner identity.Identity) (money.Amount, error) {
	acct, err := r.account(ctx, owner)
	if err != nil {
		return money.Zero, err
	}
	return acct.Available(), nil
}

func (r *WalletRepository) Balance(ctx context.Context, owner identity.Identity) (money.Amount, error) {
	acct, err := r.account(ctx, owner)
	if err != nil {
		return money.Zero, err
	}
	return acct.Balance, nil
}

func (r *WalletRepository) Credit(ctx context.Context, owner identity.Identity, amount money.Amount) (money.Amount, error) {
	_ = ctx
	if owner.IsZero() {
		return money.Zero, domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return money.Zero, domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acct := r.accounts[owner]
	next, err := acct.Balance.Add(amount)
	if err != nil {
		return money.Zero, fmt.Errorf("wallet %s: %w", owner, err)
	}
	acct.Balance = next
	r.accounts[owner] = acct
	return next, nil
}

func (r *WalletRepository) Hold(ctx context.Context, owner identity.Identity, amount money.Amount) error {
	return r.update(ctx, owner, amount, func(a domain.Account) (domain.Account, error) {
		next, err := a.Hold(amount)
		if err != nil {
			return a, fmt.Errorf("%w: %s has %s available, needs %s", err, owner, a.Available(), amount)
		}
		return next, nil
	})
}

func (r *WalletRepository) Release(ctx context.Context, owner identity.Identity, amount money.Amount) error {
	return r.update(ctx, owner, amount, func(a domain.Account) (domain.Account, error) {
		next, err := a.Release(amount)
		if err != nil {
			return a, fmt.Errorf("%w: %s holds %s, releasing %s", err, owner, a.Held, amount)
		}
		return next, nil
	})
}

func (r *WalletRepository) update(ctx context.Context, owner identity.Identity, amount money.Amount, fn func(domain.Account) (domain.Account, error)) error {
	_ = ctx
	if owner.IsZero() {
		return domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.accounts[owner])
	if err != nil {
		return err
	}
	r.accounts[owner] = next
	return nil
}

func (r *WalletRepository) Transfer(ctx context.Context, payer, payee identity.Identity, amount money.Amount) error {
	_ = ctx
	if payer.IsZero() || payee.IsZero() {
		return domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.accounts[payer]
	debited, err := from.Debit(amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", err, payer, from.Balance, amount)
	}
	if payer == payee {
		debited.Balance = from.Balance
		r.accounts[payer] = debited
		return nil
	}
	to := r.accounts[payee]
	credited, err := to.Balance.Add(amount)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", payee, err)
	}
	to.Balance = credited
	r.accounts[payer] = debited
	r.accounts[payee] = to
	return nil
}
