package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Store owns the database handle and is the single unit-of-work type used
// by every workflow.  Repositories built on a Store share its locking
// dialect, so `...ForUpdateTx` reads take row locks where the engine
// supports them.
type Store struct {
	db       *sql.DB
	lockRows bool
	txOpts   *sql.TxOptions
}

// NewStore wraps db.  driver selects the locking dialect ("mysql" uses
// SELECT ... FOR UPDATE, "sqlite" relies on its single writer).  isolation
// is applied to every transaction; sql.LevelDefault leaves the engine's
// default in place.
func NewStore(db *sql.DB, driver string, isolation sql.IsolationLevel) *Store {
	s := &Store{db: db, lockRows: driver == "" || driver == "mysql"}
	if isolation != sql.LevelDefault {
		s.txOpts = &sql.TxOptions{Isolation: isolation}
	}
	return s
}

// WithTx runs fn inside a transaction.  The transaction commits only when
// fn returns nil; an error or a panic rolls back every statement fn issued
// before propagating.  Nothing is retried.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// forUpdate appends a row-lock clause to a single-table SELECT when the
// dialect supports it.
func (s *Store) forUpdate(q string) string {
	if !s.lockRows {
		return q
	}
	return strings.TrimSpace(q) + " FOR UPDATE"
}

// ParseIsolation maps a config value such as "repeatable_read" onto a
// sql.IsolationLevel.  Unknown or empty values give sql.LevelDefault.
func ParseIsolation(v string) sql.IsolationLevel {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "read_committed":
		return sql.LevelReadCommitted
	case "repeatable_read":
		return sql.LevelRepeatableRead
	case "serializable":
		return sql.LevelSerializable
	}
	return sql.LevelDefault
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// notFound converts sql.ErrNoRows into ErrNotFound and leaves other errors
// untouched.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func nullableID(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	id := uint64(v.Int64)
	return &id
}
