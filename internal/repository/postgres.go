package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
)

// pqForeignKeyViolation is the SQLSTATE Postgres reports when a row is still
// referenced by another table.
const pqForeignKeyViolation = "23503"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	q      querier
	inTx   bool
	logger *logging.Logger
}

// NewPostgresStore creates a store that runs statements directly on db.
func NewPostgresStore(db *sql.DB, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		q:      db,
		logger: logger,
	}
}

// Products returns the catalog repository bound to this store's connection
// or transaction.
func (s *PostgresStore) Products() ProductRepository {
	return &PostgresProductRepository{q: s.q, logger: s.logger}
}

// Orders returns the order repository bound to this store's connection or
// transaction.
func (s *PostgresStore) Orders() OrderRepository {
	return &PostgresOrderRepository{q: s.q, logger: s.logger}
}

// WithinTx runs fn in a READ COMMITTED transaction. Rows that need to stay
// stable for the whole of fn must be read with FOR UPDATE.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("Failed to begin transaction", logging.Fields{"error": err.Error()})
		return &errors.StoreError{Op: "begin", Err: err}
	}

	txStore := &PostgresStore{
		db:     s.db,
		q:      tx,
		inTx:   true,
		logger: s.logger,
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", logging.Fields{
				"error":    rbErr.Error(),
				"original": err.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", logging.Fields{"error": err.Error()})
		return &errors.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolation
	}
	return false
}
