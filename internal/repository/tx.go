package repository

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"kb-service/internal/query"
)

// SafeTx wraps a write transaction so Rollback is safe to defer even after
// Commit. Statements may be issued from several goroutines; each one runs
// to completion, result rows included, before the next starts.
type SafeTx struct {
	mu        sync.Mutex
	tx        *sql.Tx
	committed atomic.Bool
}

func (t *SafeTx) Exec(ctx context.Context, stmt query.Statement) (sql.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
}

// ScanRow runs a single-row statement and scans it into dest. It returns
// sql.ErrNoRows when the statement yields nothing.
func (t *SafeTx) ScanRow(ctx context.Context, stmt query.Statement, dest ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(dest...)
}

func (t *SafeTx) Commit() error {
	if t.committed.Load() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.committed.Store(true)
	return nil
}

// Rollback rolls back unless the transaction was committed.
func (t *SafeTx) Rollback() error {
	if t.committed.Load() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.Rollback()
}
