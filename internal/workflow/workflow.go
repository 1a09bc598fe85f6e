// Package workflow implements the transactional state transitions of the
// system: worker requests, direct worker assignment and material orders.
//
// Each operation runs in a single repository.Store transaction.  Facts
// that gate a transition are read with row locks inside that transaction
// and re-checked by guarded UPDATE statements, so concurrent callers
// cannot both pass a check that only one of them may pass.  Errors wrap
// the repository sentinels; nothing is retried.
package workflow

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// EventPublisher receives events after a workflow commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ProjectEvent) error
}

// CacheInvalidator drops cached views that a workflow made stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps groups what the workflows need.  Events and Catalog may be nil.
type Deps struct {
	Store       *repository.Store
	Users       *repository.UserRepo
	Projects    *repository.ProjectRepo
	Requests    *repository.WorkerRequestRepo
	Assignments *repository.AssignmentRepo
	Materials   *repository.MaterialRepo
	Orders      *repository.OrderRepo
	Policy      *policy.Policy
	Events      EventPublisher
	Catalog     CacheInvalidator
}

// NewDeps wires repositories around a single store.
func NewDeps(s *repository.Store, p *policy.Policy) Deps {
	return Deps{
		Store:       s,
		Users:       repository.NewUserRepo(s),
		Projects:    repository.NewProjectRepo(s),
		Requests:    repository.NewWorkerRequestRepo(s),
		Assignments: repository.NewAssignmentRepo(s),
		Materials:   repository.NewMaterialRepo(s),
		Orders:      repository.NewOrderRepo(s),
		Policy:      p,
	}
}

// requireAction fails with ErrForbidden when the policy table does not
// grant action to the actor.
func (d Deps) requireAction(actor model.Actor, action policy.Action) error {
	if !d.Policy.CanPerform(actor, action) {
		return fmt.Errorf("%w: %s may not %s", repository.ErrForbidden, actor.Role, action)
	}
	return nil
}

// publish delivers ev after commit.  Delivery is best effort: the
// transaction has already succeeded, so a broker failure is only logged.
func (d Deps) publish(ctx context.Context, ev queue.ProjectEvent) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, ev); err != nil {
		log.Warnj(log.JSON{"msg": "event publish failed", "type": ev.Type, "project_id": ev.ProjectID, "error": err.Error()})
	}
}

func (d Deps) invalidateCatalog(ctx context.Context) {
	if d.Catalog == nil {
		return
	}
	if err := d.Catalog.Invalidate(ctx); err != nil {
		log.Warnj(log.JSON{"msg": "catalog cache invalidation failed", "error": err.Error()})
	}
}
