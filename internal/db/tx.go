package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryer is the subset of pgx query methods shared by *pgxpool.Pool and
// pgx.Tx, letting repository statements run standalone or inside a caller's
// transaction.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	txMaxAttempts  = 3
	txRetryBackoff = 50 * time.Millisecond
)

// InTx runs fn in a transaction with the given options, retrying a bounded
// number of times on serialization failures and deadlocks. Domain errors
// returned by fn abort immediately.
func InTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	backoff := txRetryBackoff
	var err error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		err = runTx(ctx, pool, opts, fn)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

// InSerializableTx is InTx at serializable isolation, required for every
// operation that reads a conflict set and writes a hold in one step.
func InSerializableTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return InTx(ctx, pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
