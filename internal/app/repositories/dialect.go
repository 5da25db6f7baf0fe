package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dialect captures what differs between the supported databases. Query shapes
// are shared and built with squirrel.
type dialect struct {
	name       string
	sb         squirrel.StatementBuilderType
	lockSuffix string
	likeOp     string
	actorLock  string
	encodeTime func(time.Time) any
	timeDest   func(*time.Time) any
}

var postgresDialect = dialect{
	name:       "postgres",
	sb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	lockSuffix: "FOR UPDATE",
	likeOp:     "ILIKE",
	actorLock:  "SELECT pg_advisory_xact_lock(hashtext($1))",
	encodeTime: func(t time.Time) any { return t.UTC() },
	timeDest:   func(t *time.Time) any { return t },
}

// SQLite has no row locks; the single-connection pool serializes transactions.
// Timestamps are stored as unix milliseconds.
var sqliteDialect = dialect{
	name:       "sqlite",
	sb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	likeOp:     "LIKE",
	encodeTime: func(t time.Time) any { return t.UTC().UnixMilli() },
	timeDest:   func(t *time.Time) any { return millis{t: t} },
}

// millis scans an INTEGER unix-millisecond column into a time.Time.
type millis struct {
	t *time.Time
}

func (m millis) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m.t = time.UnixMilli(v).UTC()
	case nil:
		*m.t = time.Time{}
	case time.Time:
		*m.t = v.UTC()
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a "contains" LIKE pattern with wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// rowScanner is satisfied by pgx.Row and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// querier hides the driver API difference between pgx and database/sql.
type querier interface {
	queryRow(ctx context.Context, query string, args ...any) rowScanner
	query(ctx context.Context, query string, args ...any) (rowsIter, error)
	exec(ctx context.Context, query string, args ...any) (int64, error)
}

// pgxDB is satisfied by *pgxpool.Pool and pgx.Tx.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxQuerier struct {
	db pgxDB
}

func (q pgxQuerier) queryRow(ctx context.Context, query string, args ...any) rowScanner {
	return q.db.QueryRow(ctx, query, args...)
}

func (q pgxQuerier) query(ctx context.Context, query string, args ...any) (rowsIter, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q pgxQuerier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := q.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// sqlDB is satisfied by *sql.DB and *sql.Tx.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlQuerier struct {
	db sqlDB
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}

func (q sqlQuerier) queryRow(ctx context.Context, query string, args ...any) rowScanner {
	return q.db.QueryRowContext(ctx, query, args...)
}

func (q sqlQuerier) query(ctx context.Context, query string, args ...any) (rowsIter, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (q sqlQuerier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
