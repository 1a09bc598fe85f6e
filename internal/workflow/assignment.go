package workflow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// AssignmentWorkflow lets a project's civil engineer attach other workers
// directly, without a request round trip.
type AssignmentWorkflow struct {
	d Deps
}

func NewAssignmentWorkflow(d Deps) *AssignmentWorkflow { return &AssignmentWorkflow{d: d} }

// AssignInput is the payload of Assign.  An empty Role defaults to the
// worker's own sub-role.
type AssignInput struct {
	ProjectID uint64
	WorkerID  uint64
	Role      model.SubRole
}

// Assign attaches a worker to a project and marks them unavailable.  An
// unavailable worker is reported as ErrConflict before the caller's
// authority is examined, so the outcome does not depend on who asks.
func (w *AssignmentWorkflow) Assign(ctx context.Context, actor model.Actor, in AssignInput) (model.Assignment, error) {
	if in.WorkerID == 0 {
		return model.Assignment{}, fmt.Errorf("%w: worker_id is required", repository.ErrBadRequest)
	}

	var a model.Assignment
	err := w.d.Store.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := w.d.Projects.GetForUpdateTx(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		worker, err := w.d.Users.GetForUpdateTx(ctx, tx, in.WorkerID)
		if err != nil {
			return err
		}
		if worker.Role != model.RoleWorker {
			return fmt.Errorf("%w: user %d is not a worker", repository.ErrBadRequest, worker.ID)
		}
		if !worker.IsAvailable {
			return fmt.Errorf("%w: worker %d is not available", repository.ErrConflict, worker.ID)
		}

		if !policy.IsCivilEngineer(actor, policy.FactsFor(p)) {
			return fmt.Errorf("%w: only the project's civil engineer may assign workers", repository.ErrForbidden)
		}
		if err := w.d.requireAction(actor, policy.ActionAssignWorker); err != nil {
			return err
		}

		role := in.Role
		if role == "" {
			role = worker.SubRole
		}
		if !role.Valid() {
			return fmt.Errorf("%w: unknown role %q", repository.ErrBadRequest, role)
		}

		exists, err := w.d.Assignments.ExistsTx(ctx, tx, p.ID, worker.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: worker %d is already assigned to project %d", repository.ErrConflict, worker.ID, p.ID)
		}

		a = model.Assignment{ProjectID: p.ID, WorkerID: worker.ID, AssignedBy: actor.ID, Role: role}
		if err := w.d.Assignments.CreateTx(ctx, tx, &a); err != nil {
			return err
		}
		return w.d.Users.SetAvailabilityTx(ctx, tx, worker.ID, false)
	})
	if err != nil {
		return model.Assignment{}, err
	}

	log.Infoj(log.JSON{"msg": "worker assigned", "project_id": a.ProjectID, "worker_id": a.WorkerID, "role": a.Role})
	w.d.publish(ctx, queue.ProjectEvent{
		Type:      queue.EventWorkerAssigned,
		ProjectID: a.ProjectID,
		ActorID:   actor.ID,
		WorkerID:  a.WorkerID,
		Role:      string(a.Role),
	})
	return a, nil
}

// ListForProject returns the project's assignments.  Callers authorize the
// project with the access guard first.
func (w *AssignmentWorkflow) ListForProject(ctx context.Context, projectID uint64) ([]model.Assignment, error) {
	return w.d.Assignments.ListByProject(ctx, projectID)
}
