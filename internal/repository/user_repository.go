package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// UserRepo reads users and flips their availability.  Account creation and
// credentials belong to the identity provider; Create exists for seeding.
type UserRepo struct{ s *Store }

func NewUserRepo(s *Store) *UserRepo { return &UserRepo{s: s} }

const userColumns = "id, email, name, role, sub_role, is_available, created_at"

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		role    string
		subRole sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &subRole, &u.IsAvailable, &u.CreatedAt)
	u.Role = model.Role(role)
	if subRole.Valid {
		u.SubRole = model.SubRole(subRole.String)
	}
	return u, err
}

// Create inserts a user and returns its ID.  New workers start available.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	var subRole any
	if u.SubRole != "" {
		subRole = string(u.SubRole)
	}
	res, err := r.s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, role, sub_role, is_available, created_at) VALUES (?,?,?,?,?,?)",
		strings.ToLower(strings.TrimSpace(u.Email)), u.Name, string(u.Role), subRole, true, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err, "user")
}

// GetForUpdateTx loads a user inside tx and locks the row, so the
// availability flag read here cannot change before the transaction ends.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx,
		r.s.forUpdate("SELECT "+userColumns+" FROM users WHERE id=?"), id))
	return u, notFound(err, "user")
}

// SetAvailabilityTx writes the availability flag.  Only the acceptance and
// assignment workflows call it.
func (r *UserRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, id uint64, available bool) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET is_available=? WHERE id=?", available, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(sql.ErrNoRows, "user")
	}
	return nil
}

// WorkerFilter narrows ListWorkers.  Zero values match everything.
type WorkerFilter struct {
	SubRole   model.SubRole
	Available *bool
}

// ListWorkers returns workers ordered by id.
func (r *UserRepo) ListWorkers(ctx context.Context, f WorkerFilter) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE role='worker'"
	args := []any{}
	if f.SubRole != "" {
		q += " AND sub_role=?"
		args = append(args, string(f.SubRole))
	}
	if f.Available != nil {
		q += " AND is_available=?"
		args = append(args, *f.Available)
	}
	q += " ORDER BY id"
	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
