package uow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/storytrack/backend/repository"
	"github.com/storytrack/backend/repository/postgres"
)

// Factory builds one Env per inbound request.
type Factory struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewFactory wires the shared connection pool into a per-request
// environment factory.
func NewFactory(pool *pgxpool.Pool, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{pool: pool, logger: logger}
}

// New returns a fresh environment. The transaction is not started until
// Begin is called.
func (f *Factory) New() *Env {
	return &Env{pool: f.pool, logger: f.logger}
}

// Env owns the single transaction of one unit of work. It must not be
// shared across concurrent requests.
type Env struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	tx    pgx.Tx
	store repository.StoryStore
	done  bool
}

// Begin starts the transaction and returns the store handle bound to
// it. Calling Begin again returns the same handle.
func (e *Env) Begin(ctx context.Context) (repository.StoryStore, error) {
	if e.tx != nil {
		return e.store, nil
	}
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	e.tx = tx
	e.store = postgres.NewStoryStore(tx)
	return e.store, nil
}

// Commit commits the transaction when one was begun; otherwise no-op.
func (e *Env) Commit(ctx context.Context) error {
	if e.tx == nil || e.done {
		return nil
	}
	e.done = true
	return e.tx.Commit(ctx)
}

// Rollback rolls back the transaction when one was begun; otherwise
// no-op. Safe to call after Commit.
func (e *Env) Rollback(ctx context.Context) error {
	if e.tx == nil || e.done {
		return nil
	}
	e.done = true
	if err := e.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close releases the unit of work, rolling back anything left
// uncommitted. Intended for defer.
func (e *Env) Close(ctx context.Context) {
	if err := e.Rollback(ctx); err != nil {
		e.logger.Error("unit of work rollback failed", zap.Error(err))
	}
}
