package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

var (
	ErrReferencedUserMissing = errors.New("referenced user does not exist")
	ErrDuplicate             = errors.New("duplicate record")
	ErrConstraint            = errors.New("constraint violation")
)

// PostgreSQL SQLSTATE codes the ledger cares about.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// queryable is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryable interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type Repository struct {
	db *sqlx.DB
	q  queryable
}

func New(dsn string) (*Repository, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sqlx.DB) *Repository {
	return &Repository{db: db, q: db}
}

func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithTx runs fn inside a database transaction. The repository handed to fn
// issues every query on that transaction. Calling WithTx on a repository that
// is already transactional just runs fn.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) (err error) {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(&Repository{q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify maps constraint violations onto repository sentinels while keeping
// the driver error in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrReferencedUserMissing, err)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case pgCheckViolation:
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}
