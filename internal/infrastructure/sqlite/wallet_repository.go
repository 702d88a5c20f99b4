package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/jmoiron/sqlx"
)

// WalletRepository stores balances and holds as decimal TEXT. Unknown owners have a zero balance.
type WalletRepository struct{ db *sqlx.DB }

func NewWalletRepository(db *sqlx.DB) *WalletRepository { return &WalletRepository{db: db} }

type walletRow struct {
	Balance string `db:"balance"`
	Held    string `db:"held"`
}

func (r *WalletRepository) AvailableFunds(ctx context.Context, owner identity.Identity) (money.Amount, error) {
	if owner.IsZero() {
		return money.Zero, domain.ErrInvalidOwner
	}
	acct, err := account(ctx, r.db, owner)
	if err != nil {
		return money.Zero, err
	}
	return acct.Available(), nil
}

func (r *WalletRepository) Balance(ctx context.Context, owner identity.Identity) (money.Amount, error) {
	if owner.IsZero() {
		return money.Zero, domain.ErrInvalidOwner
	}
	acct, err := account(ctx, r.db, owner)
	if err != nil {
		return money.Zero, err
	}
	return acct.Balance, nil
}

func account(ctx context.Context, q sqlx.QueryerContext, owner identity.Identity) (domain.Account, error) {
	var row walletRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT balance, held FROM wallets WHERE owner = ?`, owner.String())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, nil
	}
	if err != nil {
		return domain.Account{}, err
	}
	balance, err := money.Parse(row.Balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("wallet %s: balance: %w", owner, err)
	}
	held, err := money.Parse(row.Held)
	if err != nil {
		return domain.Account{}, fmt.Errorf("wallet %s: held: %w", owner, err)
	}
	return domain.Account{Balance: balance, Held: held}, nil
}

func putAccount(ctx context.Context, tx *sqlx.Tx, owner identity.Identity, acct domain.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets(owner, balance, held, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner) DO UPDATE SET balance = excluded.balance, held = excluded.held, updated_at = excluded.updated_at
	`, owner.String(), acct.Balance.String(), acct.Held.String())
	return err
}

func (r *WalletRepository) Credit(ctx context.Context, owner identity.Identity, amount money.Amount) (money.Amount, error) {
	if owner.IsZero() {
		return money.Zero, domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return money.Zero, domain.ErrInvalidAmount
	}

	var next money.Amount
	err := r.update(ctx, owner, func(a domain.Account) (domain.Account, error) {
		balance, err := a.Balance.Add(amount)
		if err != nil {
			return a, fmt.Errorf("wallet %s: %w", owner, err)
		}
		a.Balance = balance
		next = balance
		return a, nil
	})
	if err != nil {
		return money.Zero, err
	}
	return next, nil
}

func (r *WalletRepository) Hold(ctx context.Context, owner identity.Identity, amount money.Amount) error {
	if owner.IsZero() {
		return domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return domain.ErrInvalidAmount
	}
	return r.update(ctx, owner, func(a domain.Account) (domain.Account, error) {
		next, err := a.Hold(amount)
		if err != nil {
			return a, fmt.Errorf("%w: %s has %s available, needs %s", err, owner, a.Available(), amount)
		}
		return next, nil
	})
}

func (r *WalletRepository) Release(ctx context.Context, owner identity.Identity, amount money.Amount) error {
	if owner.IsZero() {
		return domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return domain.ErrInvalidAmount
	}
	return r.update(ctx, owner, func(a domain.Account) (domain.Account, error) {
		next, err := a.Release(amount)
		if err != nil {
			return a, fmt.Errorf("%w: %s holds %s, releasing %s", err, owner, a.Held, amount)
		}
		return next, nil
	})
}

// update reads, changes and writes one account in a single transaction.
func (r *WalletRepository) update(ctx context.Context, owner identity.Identity, fn func(domain.Account) (domain.Account, error)) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	acct, err := account(ctx, tx, owner)
	if err != nil {
		return err
	}
	next, err := fn(acct)
	if err != nil {
		return err
	}
	if err := putAccount(ctx, tx, owner, next); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *WalletRepository) Transfer(ctx context.Context, payer, payee identity.Identity, amount money.Amount) error {
	if payer.IsZero() || payee.IsZero() {
		return domain.ErrInvalidOwner
	}
	if amount.IsZero() {
		return domain.ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	from, err := account(ctx, tx, payer)
	if err != nil {
		return err
	}
	debited, err := from.Debit(amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", err, payer, from.Balance, amount)
	}
	if payer == payee {
		debited.Balance = from.Balance
		if err := putAccount(ctx, tx, payer, debited); err != nil {
			return err
		}
		return tx.Commit()
	}
	to, err := account(ctx, tx, payee)
	if err != nil {
		return err
	}
	credited, err := to.Balance.Add(amount)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", payee, err)
	}
	to.Balance = credited
	if err := putAccount(ctx, tx, payer, debited); err != nil {
		return err
	}
	if err := putAccount(ctx, tx, payee, to); err != nil {
		return err
	}
	return tx.Commit()
}
