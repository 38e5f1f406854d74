// Package pgxutil bridges database/sql handles to native pgx connections so
// repositories can use pgx row collectors on a *sql.DB pool.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Querier is the subset of *pgx.Conn and pgx.Tx used by the helpers below.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// WithConn acquires a connection from db and runs fn on its pgx.Conn.
func WithConn(ctx context.Context, db *sql.DB, fn func(*pgx.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		return fn(std.Conn())
	})
}

// WithTx runs fn in a pgx transaction. fn's error aborts the transaction and
// is returned as is.
func WithTx(ctx context.Context, db *sql.DB, fn func(pgx.Tx) error) error {
	return WithConn(ctx, db, func(conn *pgx.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// One runs query and collects exactly one row into a *T by column name.
// No rows yields pgx.ErrNoRows.
func One[T any](ctx context.Context, q Querier, query string, args ...any) (*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
}

// All runs query and collects every row into a []*T by column name.
func All[T any](ctx context.Context, q Querier, query string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
}

// OneOnDB is One on a connection borrowed from db.
func OneOnDB[T any](ctx context.Context, db *sql.DB, query string, args ...any) (*T, error) {
	var out *T
	err := WithConn(ctx, db, func(conn *pgx.Conn) error {
		var err error
		out, err = One[T](ctx, conn, query, args...)
		return err
	})
	return out, err
}

// AllOnDB is All on a connection borrowed from db.
func AllOnDB[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]*T, error) {
	var out []*T
	err := WithConn(ctx, db, func(conn *pgx.Conn) error {
		var err error
		out, err = All[T](ctx, conn, query, args...)
		return err
	})
	return out, err
}
