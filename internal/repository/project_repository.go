package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// ProjectRepo persists projects.  The civil engineer column is written only
// by AssignCivilEngineerTx, which refuses to overwrite an existing value.
type ProjectRepo struct{ s *Store }

// NewProjectRepo returns a ProjectRepo bound to the given store.
func NewProjectRepo(s *Store) *ProjectRepo { return &ProjectRepo{s: s} }

const projectColumns = "id, name, description, owner_id, civil_engineer_id, status, created_at, updated_at"

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p        model.Project
		engineer sql.NullInt64
		status   string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &engineer, &status, &p.CreatedAt, &p.UpdatedAt)
	p.CivilEngineerID = nullableID(engineer)
	p.Status = model.ProjectStatus(status)
	return p, err
}

// Create inserts a project in the planning state and fills in the
// generated ID and timestamps.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	res, err := r.s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, owner_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.OwnerID, string(model.ProjectPlanning), now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.ProjectPlanning
	p.CivilEngineerID = nil
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// GetByID returns ErrNotFound when the project does not exist.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	p, err := scanProject(r.s.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	return p, notFound(err, "project")
}

// GetTx reads a project inside tx without locking it.
func (r *ProjectRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Project, error) {
	p, err := scanProject(tx.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	return p, notFound(err, "project")
}

// GetForUpdateTx reads and locks a project row.  Workflows that create
// per-project state (requests, assignments) lock the project first so that
// concurrent calls for the same project queue behind each other.
func (r *ProjectRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Project, error) {
	p, err := scanProject(tx.QueryRowContext(ctx,
		r.s.forUpdate("SELECT "+projectColumns+" FROM projects WHERE id = ?"), id))
	return p, notFound(err, "project")
}

// AssignCivilEngineerTx records the accepted engineer and moves the project
// to in_progress.  It only succeeds while no engineer is set; otherwise it
// returns ErrConflict and changes nothing.
func (r *ProjectRepo) AssignCivilEngineerTx(ctx context.Context, tx *sql.Tx, projectID, engineerID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET civil_engineer_id = ?, status = ?, updated_at = ?
		 WHERE id = ? AND civil_engineer_id IS NULL`,
		engineerID, string(model.ProjectInProgress), time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: project already has a civil engineer", ErrConflict)
	}
	return nil
}

// ListForUser returns projects the user owns, engineers or is assigned to,
// newest first.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects
	           WHERE owner_id = ? OR civil_engineer_id = ?
	              OR id IN (SELECT project_id FROM project_worker_assignments WHERE worker_id = ?)
	           ORDER BY id DESC`
	rows, err := r.s.db.QueryContext(ctx, q, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
