package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yigit/enrollment/internal/app/migrations"
	"github.com/yigit/enrollment/internal/db"
)

// SQLiteGateway is the Gateway backed by an embedded SQLite file.
//
// The handle has a single connection. Calls made on the gateway itself from
// inside a WithinTx callback would wait for that connection forever, so
// callbacks must only use the Tx they are given.
type SQLiteGateway struct {
	*store
	db *db.SQLiteDB
}

// OpenSQLiteGateway opens the database at path and applies pending migrations.
func OpenSQLiteGateway(ctx context.Context, path string) (*SQLiteGateway, error) {
	database, err := db.NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.ApplySQLite(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("apply sqlite migrations: %w", err)
	}
	return NewSQLiteGateway(database), nil
}

// NewSQLiteGateway creates a Gateway over an already migrated database.
func NewSQLiteGateway(database *db.SQLiteDB) *SQLiteGateway {
	return &SQLiteGateway{
		store: &store{q: sqlQuerier{db: database.DB}, d: sqliteDialect},
		db:    database,
	}
}

// WithinTx implements Gateway.
func (g *SQLiteGateway) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return g.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &store{q: sqlQuerier{db: tx}, d: sqliteDialect})
	})
}

// Close implements Gateway.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}
