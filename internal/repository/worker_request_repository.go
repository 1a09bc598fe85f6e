package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/buildtrack/internal/model"
)

// WorkerRequestRepo persists civil-engineer requests.  Status moves from
// pending to accepted or rejected exactly once; UpdateStatusTx enforces
// that at the SQL level as well.
type WorkerRequestRepo struct{ s *Store }

func NewWorkerRequestRepo(s *Store) *WorkerRequestRepo { return &WorkerRequestRepo{s: s} }

const workerRequestColumns = "id, project_id, worker_id, requester_id, status, message, created_at, responded_at"

func scanWorkerRequest(row rowScanner) (model.WorkerRequest, error) {
	var (
		wr        model.WorkerRequest
		status    string
		responded sql.NullTime
	)
	err := row.Scan(&wr.ID, &wr.ProjectID, &wr.WorkerID, &wr.RequesterID, &status, &wr.Message, &wr.CreatedAt, &responded)
	wr.Status = model.RequestStatus(status)
	if responded.Valid {
		t := responded.Time
		wr.RespondedAt = &t
	}
	return wr, err
}

// CreateTx inserts a pending request and populates its ID and timestamps.
func (r *WorkerRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, wr *model.WorkerRequest) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO worker_requests (project_id, worker_id, requester_id, status, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		wr.ProjectID, wr.WorkerID, wr.RequesterID, string(model.RequestPending), wr.Message, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	wr.ID = uint64(id)
	wr.Status = model.RequestPending
	wr.CreatedAt = now
	wr.RespondedAt = nil
	return nil
}

// HasPendingTx reports whether a pending request exists for the pair.
// Callers hold the project row lock, which serializes the check with the
// insert that follows it.
func (r *WorkerRequestRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, projectID, workerID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM worker_requests WHERE project_id = ? AND worker_id = ? AND status = ?`,
		projectID, workerID, string(model.RequestPending)).Scan(&n)
	return n > 0, err
}

// GetForWorkerForUpdateTx loads the request only if it is addressed to
// workerID, locking the row.  A request addressed to someone else is
// reported as ErrNotFound, the same as a missing one.
func (r *WorkerRequestRepo) GetForWorkerForUpdateTx(ctx context.Context, tx *sql.Tx, id, workerID uint64) (model.WorkerRequest, error) {
	wr, err := scanWorkerRequest(tx.QueryRowContext(ctx,
		r.s.forUpdate("SELECT "+workerRequestColumns+" FROM worker_requests WHERE id = ? AND worker_id = ?"),
		id, workerID))
	return wr, notFound(err, "worker request")
}

// UpdateStatusTx resolves a pending request.  If the row is no longer
// pending the update matches nothing and ErrConflict is returned.
func (r *WorkerRequestRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.RequestStatus, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE worker_requests SET status = ?, responded_at = ? WHERE id = ? AND status = ?`,
		string(status), at, id, string(model.RequestPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: request already responded", ErrConflict)
	}
	return nil
}

// ListByProject returns a project's requests, newest first.
func (r *WorkerRequestRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.WorkerRequest, error) {
	return r.list(ctx, "SELECT "+workerRequestColumns+" FROM worker_requests WHERE project_id = ? ORDER BY id DESC", projectID)
}

// ListForWorker returns requests addressed to a worker, optionally limited
// to one status, newest first.
func (r *WorkerRequestRepo) ListForWorker(ctx context.Context, workerID uint64, status model.RequestStatus) ([]model.WorkerRequest, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+workerRequestColumns+" FROM worker_requests WHERE worker_id = ? ORDER BY id DESC", workerID)
	}
	return r.list(ctx, "SELECT "+workerRequestColumns+" FROM worker_requests WHERE worker_id = ? AND status = ? ORDER BY id DESC", workerID, string(status))
}

func (r *WorkerRequestRepo) list(ctx context.Context, q string, args ...any) ([]model.WorkerRequest, error) {
	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WorkerRequest, 0)
	for rows.Next() {
		wr, err := scanWorkerRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wr)
	}
	return out, rows.Err()
}
