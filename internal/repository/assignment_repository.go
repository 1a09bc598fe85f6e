package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// AssignmentRepo persists project_worker_assignments.  Rows are only ever
// inserted, by request acceptance or direct assignment.
type AssignmentRepo struct{ s *Store }

func NewAssignmentRepo(s *Store) *AssignmentRepo { return &AssignmentRepo{s: s} }

const assignmentColumns = "id, project_id, worker_id, assigned_by, role, created_at"

func scanAssignment(row rowScanner) (model.Assignment, error) {
	var (
		a    model.Assignment
		role string
	)
	err := row.Scan(&a.ID, &a.ProjectID, &a.WorkerID, &a.AssignedBy, &role, &a.CreatedAt)
	a.Role = model.SubRole(role)
	return a, err
}

// CreateTx inserts an assignment and fills in its ID and timestamp.
func (r *AssignmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Assignment) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO project_worker_assignments (project_id, worker_id, assigned_by, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ProjectID, a.WorkerID, a.AssignedBy, string(a.Role), now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.CreatedAt = now
	return nil
}

// ExistsTx reports whether the worker is already attached to the project.
func (r *AssignmentRepo) ExistsTx(ctx context.Context, tx *sql.Tx, projectID, workerID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_worker_assignments WHERE project_id = ? AND worker_id = ?`,
		projectID, workerID).Scan(&n)
	return n > 0, err
}

// IsMember reports whether the worker appears in the project's assignment
// list.
func (r *AssignmentRepo) IsMember(ctx context.Context, projectID, workerID uint64) (bool, error) {
	var n int
	err := r.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_worker_assignments WHERE project_id = ? AND worker_id = ?`,
		projectID, workerID).Scan(&n)
	return n > 0, err
}

// ListByProject returns the project's assignments in creation order.
func (r *AssignmentRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Assignment, error) {
	rows, err := r.s.db.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM project_worker_assignments WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByRole counts assignments of the given role for a project.  It backs
// the engineer/assignment consistency checks in tests and diagnostics.
func (r *AssignmentRepo) CountByRole(ctx context.Context, projectID, workerID uint64, role model.SubRole) (int, error) {
	var n int
	err := r.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_worker_assignments WHERE project_id = ? AND worker_id = ? AND role = ?`,
		projectID, workerID, string(role)).Scan(&n)
	return n, err
}
