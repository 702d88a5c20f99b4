package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domain "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	"github.com/jmoiron/sqlx"
)

const purchaseSequence = "purchase"

type ProductRepository struct{ db *sqlx.DB }

func NewProductRepository(db *sqlx.DB) *ProductRepository { return &ProductRepository{db: db} }

type productRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Category        string         `db:"category"`
	UnitPrice       string         `db:"unit_price"`
	RemainingSupply int64          `db:"remaining_supply"`
	Owner           string         `db:"owner"`
	ShopID          sql.NullString `db:"shop_id"`
}

const selectProduct = `SELECT id, name, category, unit_price, remaining_supply, owner, shop_id FROM products`

func (row productRow) record() (domain.Record, error) {
	price, err := money.Parse(row.UnitPrice)
	if err != nil {
		return domain.Record{}, fmt.Errorf("product %s: unit_price: %w", row.ID, err)
	}
	if row.RemainingSupply < 0 {
		return domain.Record{}, fmt.Errorf("product %s: negative supply %d", row.ID, row.RemainingSupply)
	}
	return domain.Record{
		ID:              row.ID,
		Name:            row.Name,
		Category:        row.Category,
		UnitPrice:       price,
		RemainingSupply: uint64(row.RemainingSupply),
		Owner:           identity.Identity(row.Owner),
		ShopID:          row.ShopID.String,
	}, nil
}

func supplyColumn(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrSupplyRange, v)
	}
	return int64(v), nil
}

func shopColumn(shopID string) sql.NullString {
	return sql.NullString{String: shopID, Valid: shopID != ""}
}

func (r *ProductRepository) Insert(ctx context.Context, rec domain.Record) error {
	if rec.ID == "" {
		return domain.ErrInvalidID
	}
	if rec.Owner.IsZero() {
		return domain.ErrInvalidOwner
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertProduct(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func insertProduct(ctx context.Context, tx *sqlx.Tx, rec domain.Record) error {
	taken, err := productExists(ctx, tx, rec.ID)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateID
	}
	supply, err := supplyColumn(rec.RemainingSupply)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO products(id, name, category, unit_price, remaining_supply, owner, shop_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Category, rec.UnitPrice.String(), supply, rec.Owner.String(), shopColumn(rec.ShopID))
	return err
}

func productExists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Record, error) {
	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Record, error) {
	var row productRow
	err := sqlx.GetContext(ctx, q, &row, selectProduct+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, err
	}
	return row.record()
}

func (r *ProductRepository) ListByShop(ctx context.Context, shopID string) ([]domain.Record, error) {
	if shopID == "" {
		return []domain.Record{}, nil
	}
	return r.list(ctx, selectProduct+` WHERE shop_id = ? ORDER BY rowid`, shopID)
}

func (r *ProductRepository) ListByOwner(ctx context.Context, owner identity.Identity) ([]domain.Record, error) {
	return r.list(ctx, selectProduct+` WHERE owner = ? ORDER BY rowid`, owner.String())
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Purchase runs the checks and the three writes (listing supply, sequence, holding)
// in one transaction; any failure rolls all of them back.
func (r *ProductRepository) Purchase(ctx context.Context, o domain.Order) (*domain.Purchase, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	listing, err := getProduct(ctx, tx, o.ProductID)
	if err != nil {
		return nil, err
	}
	total, err := domain.Check(listing, o)
	if err != nil {
		return nil, err
	}

	seq, holdingID, err := nextHolding(ctx, tx, listing.ID)
	if err != nil {
		return nil, err
	}

	listing.RemainingSupply -= o.Quantity
	holding := domain.NewHolding(listing, holdingID, o.Quantity, o.Buyer)

	qty, err := supplyColumn(o.Quantity)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET remaining_supply = remaining_supply - ?
		WHERE id = ? AND remaining_supply >= ?
	`, qty, listing.ID, qty); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sequences SET value = ? WHERE name = ?`, int64(seq), purchaseSequence); err != nil {
		return nil, err
	}
	if err := insertProduct(ctx, tx, holding); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return domain.NewPurchase(seq, listing, holding, total, o.Buyer), nil
}

func nextHolding(ctx context.Context, tx *sqlx.Tx, productID string) (uint64, string, error) {
	var last int64
	if err := tx.GetContext(ctx, &last, `SELECT value FROM sequences WHERE name = ?`, purchaseSequence); err != nil {
		return 0, "", fmt.Errorf("sqlite: purchase sequence: %w", err)
	}
	seq := uint64(last)
	for {
		seq++
		id := domain.HoldingID(productID, seq)
		taken, err := productExists(ctx, tx, id)
		if err != nil {
			return 0, "", err
		}
		if !taken {
			return seq, id, nil
		}
	}
}
