package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/enrollment/internal/db"
)

// PostgresGateway is the Gateway backed by a pgx pool.
type PostgresGateway struct {
	*store
	db *db.PostgresDB
}

// NewPostgresGateway creates a Gateway over an open pool
func NewPostgresGateway(database *db.PostgresDB) *PostgresGateway {
	return &PostgresGateway{
		store: &store{q: pgxQuerier{db: database.Pool}, d: postgresDialect},
		db:    database,
	}
}

// WithinTx implements Gateway.
func (g *PostgresGateway) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return g.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &store{q: pgxQuerier{db: tx}, d: postgresDialect})
	})
}

// Close implements Gateway.
func (g *PostgresGateway) Close() error {
	g.db.Close()
	return nil
}
