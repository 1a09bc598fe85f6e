package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// MilestoneRepo provides the thin persistence used by the milestone
// endpoints.  Access checks happen in the guard before these are called.
type MilestoneRepo struct{ s *Store }

func NewMilestoneRepo(s *Store) *MilestoneRepo { return &MilestoneRepo{s: s} }

// Create inserts a pending milestone.
func (r *MilestoneRepo) Create(ctx context.Context, m *model.Milestone) error {
	now := time.Now().UTC()
	if m.Status == "" {
		m.Status = model.MilestonePending
	}
	res, err := r.s.db.ExecContext(ctx,
		`INSERT INTO milestones (project_id, title, target_date, status, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ProjectID, m.Title, m.TargetDate.UTC(), string(m.Status), m.CreatedBy, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.CreatedAt = now
	return nil
}

// ListByProject returns milestones ordered by target date.
func (r *MilestoneRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Milestone, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT id, project_id, title, target_date, completed_at, status, created_by, created_at
		 FROM milestones WHERE project_id = ? ORDER BY target_date, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Milestone, 0)
	for rows.Next() {
		var (
			m         model.Milestone
			completed sql.NullTime
			status    string
		)
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.TargetDate, &completed, &status, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		if completed.Valid {
			t := completed.Time
			m.CompletedAt = &t
		}
		m.Status = model.MilestoneStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}
