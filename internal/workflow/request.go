package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// RequestWorkflow lets a project owner ask a civil engineer to join a
// project and lets that engineer accept or reject.
type RequestWorkflow struct {
	d Deps
}

func NewRequestWorkflow(d Deps) *RequestWorkflow { return &RequestWorkflow{d: d} }

// CreateRequestInput is the payload of Create.
type CreateRequestInput struct {
	ProjectID uint64
	WorkerID  uint64
	Message   string
}

// Create records a pending request from the project owner to a civil
// engineer.  It fails with ErrConflict when the project already has an
// engineer or the pair already has a pending request.
func (w *RequestWorkflow) Create(ctx context.Context, actor model.Actor, in CreateRequestInput) (model.WorkerRequest, error) {
	if err := w.d.requireAction(actor, policy.ActionRequestWorker); err != nil {
		return model.WorkerRequest{}, err
	}
	if in.WorkerID == 0 {
		return model.WorkerRequest{}, fmt.Errorf("%w: worker_id is required", repository.ErrBadRequest)
	}

	wr := model.WorkerRequest{
		ProjectID:   in.ProjectID,
		WorkerID:    in.WorkerID,
		RequesterID: actor.ID,
		Message:     strings.TrimSpace(in.Message),
	}
	err := w.d.Store.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := w.d.Projects.GetForUpdateTx(ctx, tx, in.ProjectID)
		if err != nil {
			return err
		}
		if !policy.IsOwner(actor, policy.FactsFor(p)) {
			return fmt.Errorf("%w: only the project owner may request workers", repository.ErrForbidden)
		}
		if p.HasCivilEngineer() {
			return fmt.Errorf("%w: project already has a civil engineer", repository.ErrConflict)
		}

		worker, err := w.d.Users.GetForUpdateTx(ctx, tx, in.WorkerID)
		if err != nil {
			return err
		}
		if !worker.IsCivilEngineer() {
			return fmt.Errorf("%w: user %d is not a civil engineer", repository.ErrBadRequest, worker.ID)
		}
		if !worker.IsAvailable {
			return fmt.Errorf("%w: civil engineer %d is not available", repository.ErrBadRequest, worker.ID)
		}

		pending, err := w.d.Requests.HasPendingTx(ctx, tx, p.ID, worker.ID)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: a pending request already exists for this worker", repository.ErrConflict)
		}
		return w.d.Requests.CreateTx(ctx, tx, &wr)
	})
	if err != nil {
		return model.WorkerRequest{}, err
	}

	log.Infoj(log.JSON{"msg": "worker request created", "request_id": wr.ID, "project_id": wr.ProjectID, "worker_id": wr.WorkerID})
	w.d.publish(ctx, queue.ProjectEvent{
		Type:      queue.EventRequestCreated,
		ProjectID: wr.ProjectID,
		ActorID:   actor.ID,
		WorkerID:  wr.WorkerID,
		RequestID: wr.ID,
		Status:    string(wr.Status),
	})
	return wr, nil
}

// Respond resolves a pending request addressed to the actor.  Acceptance
// makes the actor the project's civil engineer, moves the project to
// in_progress, records the assignment and marks the engineer unavailable,
// all in the same transaction as the status change.
func (w *RequestWorkflow) Respond(ctx context.Context, actor model.Actor, requestID uint64, decision model.RequestStatus) (model.WorkerRequest, error) {
	if !decision.IsDecision() {
		return model.WorkerRequest{}, fmt.Errorf("%w: decision must be accepted or rejected", repository.ErrBadRequest)
	}
	if err := w.d.requireAction(actor, policy.ActionRespondRequest); err != nil {
		return model.WorkerRequest{}, err
	}

	var wr model.WorkerRequest
	err := w.d.Store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		wr, err = w.d.Requests.GetForWorkerForUpdateTx(ctx, tx, requestID, actor.ID)
		if err != nil {
			return err
		}
		if wr.Status != model.RequestPending {
			return fmt.Errorf("%w: request already %s", repository.ErrConflict, wr.Status)
		}

		now := time.Now().UTC()
		if err := w.d.Requests.UpdateStatusTx(ctx, tx, wr.ID, decision, now); err != nil {
			return err
		}
		wr.Status = decision
		wr.RespondedAt = &now

		if decision == model.RequestRejected {
			return nil
		}
		return w.accept(ctx, tx, wr)
	})
	if err != nil {
		return model.WorkerRequest{}, err
	}

	log.Infoj(log.JSON{"msg": "worker request responded", "request_id": wr.ID, "project_id": wr.ProjectID, "status": wr.Status})
	w.d.publish(ctx, queue.ProjectEvent{
		Type:      queue.EventRequestResponded,
		ProjectID: wr.ProjectID,
		ActorID:   actor.ID,
		WorkerID:  wr.WorkerID,
		RequestID: wr.ID,
		Status:    string(wr.Status),
	})
	return wr, nil
}

func (w *RequestWorkflow) accept(ctx context.Context, tx *sql.Tx, wr model.WorkerRequest) error {
	worker, err := w.d.Users.GetForUpdateTx(ctx, tx, wr.WorkerID)
	if err != nil {
		return err
	}
	if !worker.IsAvailable {
		return fmt.Errorf("%w: worker %d is no longer available", repository.ErrConflict, worker.ID)
	}
	if err := w.d.Projects.AssignCivilEngineerTx(ctx, tx, wr.ProjectID, worker.ID); err != nil {
		return err
	}
	exists, err := w.d.Assignments.ExistsTx(ctx, tx, wr.ProjectID, worker.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: worker %d is already assigned to project %d", repository.ErrConflict, worker.ID, wr.ProjectID)
	}
	a := model.Assignment{
		ProjectID:  wr.ProjectID,
		WorkerID:   worker.ID,
		AssignedBy: wr.RequesterID,
		Role:       model.SubRoleCivilEngineer,
	}
	if err := w.d.Assignments.CreateTx(ctx, tx, &a); err != nil {
		return err
	}
	return w.d.Users.SetAvailabilityTx(ctx, tx, worker.ID, false)
}

// Incoming lists requests addressed to the actor.  An empty status lists
// every request.
func (w *RequestWorkflow) Incoming(ctx context.Context, actor model.Actor, status model.RequestStatus) ([]model.WorkerRequest, error) {
	if actor.Role != model.RoleWorker {
		return []model.WorkerRequest{}, nil
	}
	return w.d.Requests.ListForWorker(ctx, actor.ID, status)
}

// ListForProject returns the project's requests.  Callers authorize the
// project with the access guard first.
func (w *RequestWorkflow) ListForProject(ctx context.Context, projectID uint64) ([]model.WorkerRequest, error) {
	return w.d.Requests.ListByProject(ctx, projectID)
}
