// Package repository implements the relational persistence layer (C3):
// one type per entity in internal/domain, each issuing its own database/sql
// queries. This file holds the small shared helpers (the Querier interface,
// scanOne, and withTx); there is no generic CRUD base type.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, letting repository
// methods run either standalone or inside a caller-managed transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanOne runs query, returning sql.ErrNoRows unchanged so callers can
// translate it into a domain.Err*NotFound sentinel.
func scanOne(ctx context.Context, q Querier, scan func(*sql.Row) error, query string, args ...interface{}) error {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error (including a panic, re-raised after rollback).
func withTx(ctx context.Context, database *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
