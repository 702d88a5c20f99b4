package sqlite

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrSupplyRange is returned when a supply does not fit the INTEGER column.
var ErrSupplyRange = fmt.Errorf("sqlite: supply exceeds int64 range: %w", product.ErrSupplyTooLarge)

const schema = `
CREATE TABLE IF NOT EXISTS shops(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  location TEXT NOT NULL,
  owner TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_shops_owner ON shops(owner);

-- shop_id NULL marks a holding; listings carry the shop they were listed against.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  remaining_supply INTEGER NOT NULL CHECK (remaining_supply >= 0),
  owner TEXT NOT NULL,
  shop_id TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_owner ON products(owner);
CREATE INDEX IF NOT EXISTS idx_products_shop  ON products(shop_id);

CREATE TABLE IF NOT EXISTS sequences(
  name TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);
INSERT INTO sequences(name, value) VALUES ('purchase', 0) ON CONFLICT(name) DO NOTHING;

-- held is the part of balance earmarked for settlements that have not been applied yet.
CREATE TABLE IF NOT EXISTS wallets(
  owner TEXT PRIMARY KEY,
  balance TEXT NOT NULL,
  held TEXT NOT NULL DEFAULT '0',
  updated_at TEXT
);
`

// Open connects to dsn with the pure-Go driver and applies the schema. The pool is
// pinned to one connection: every repository call is serialized through it, and a
// ":memory:" database stays the same database for the life of the handle.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: schema: %w", err)
	}
	// Databases created before wallets carried holds.
	return ensureColumn(ctx, db, "wallets", "held", `TEXT NOT NULL DEFAULT '0'`)
}

func ensureColumn(ctx context.Context, db *sqlx.DB, table, column, decl string) error {
	var cols []struct {
		Name string `db:"name"`
	}
	if err := db.SelectContext(ctx, &cols, `SELECT name FROM pragma_table_info(?)`, table); err != nil {
		return fmt.Errorf("sqlite: columns of %s: %w", table, err)
	}
	for _, c := range cols {
		if c.Name == column {
			return nil
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("sqlite: add %s.%s: %w", table, column, err)
	}
	return nil
}
