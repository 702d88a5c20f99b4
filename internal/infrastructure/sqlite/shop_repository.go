package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	"github.com/jmoiron/sqlx"
)

type ShopRepository struct{ db *sqlx.DB }

func NewShopRepository(db *sqlx.DB) *ShopRepository { return &ShopRepository{db: db} }

type shopRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Location string `db:"location"`
	Owner    string `db:"owner"`
}

func (row shopRow) shop() domain.Shop {
	return domain.Shop{ID: row.ID, Name: row.Name, Location: row.Location, Owner: identity.Identity(row.Owner)}
}

func (r *ShopRepository) Insert(ctx context.Context, s domain.Shop) error {
	if s.ID == "" {
		return domain.ErrInvalidID
	}
	if s.Owner.IsZero() {
		return domain.ErrInvalidOwner
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM shops WHERE id = ?`, s.ID); err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrDuplicateID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shops(id, name, location, owner) VALUES (?, ?, ?, ?)
	`, s.ID, s.Name, s.Location, s.Owner.String()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ShopRepository) Get(ctx context.Context, id string) (domain.Shop, error) {
	var row shopRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, location, owner FROM shops WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Shop{}, err
	}
	return row.shop(), nil
}

func (r *ShopRepository) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Shop, error) {
	var rows []shopRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, location, owner FROM shops WHERE owner = ? ORDER BY rowid
	`, owner.String()); err != nil {
		return nil, err
	}
	out := make([]domain.Shop, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.shop())
	}
	return out, nil
}
