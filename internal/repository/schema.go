package repository

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		price       NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		stock       INTEGER NOT NULL CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status     TEXT NOT NULL DEFAULT 'in process'
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders (id),
		product_id BIGINT NOT NULL REFERENCES products (id),
		amount     INTEGER NOT NULL CHECK (amount > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
}

// Migrate creates the tables if they do not exist yet. It is safe to run on
// every start.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.WithinTx(ctx, func(tx Store) error {
		q := tx.(*PostgresStore).q
		for i, stmt := range schema {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration step %d: %w", i+1, err)
			}
		}
		s.logger.Info("Schema up to date", logging.Fields{"statements": len(schema)})
		return nil
	})
}
