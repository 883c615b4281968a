package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// pgxTx adapts pgx.Tx to domain.Tx so internal/service never imports pgx
// directly, the same boundary the teacher draws between internal/service
// and internal/repository/postgres.
type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// unwrapTx recovers the concrete pgx.Tx from the domain.Tx handle a service
// passes back into a repository method. Every repository in this package
// only ever hands out *pgxTx, so the assertion cannot fail.
func unwrapTx(tx domain.Tx) pgx.Tx {
	return tx.(*pgxTx).tx
}

// withTx begins a transaction on pool, runs fn with a domain.Tx wrapping it,
// and commits on success or rolls back on any error or panic. Every
// repository's WithTx method delegates here.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx domain.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
