// Package access answers "may this actor read or manage this project's
// sub-resources".  Every project-scoped endpoint goes through Guard before
// returning data.
package access

import (
	"context"
	"fmt"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/repository"
)

// ProjectReader loads a project by id.
type ProjectReader interface {
	GetByID(ctx context.Context, id uint64) (model.Project, error)
}

// MembershipChecker answers whether a worker is assigned to a project.
type MembershipChecker interface {
	IsMember(ctx context.Context, projectID, workerID uint64) (bool, error)
}

// Guard combines the policy with the lookups it needs.
type Guard struct {
	projects ProjectReader
	members  MembershipChecker
	policy   *policy.Policy
}

// NewGuard builds a Guard.  All dependencies must be non-nil.
func NewGuard(projects ProjectReader, members MembershipChecker, p *policy.Policy) *Guard {
	if projects == nil || members == nil || p == nil {
		panic("nil dependency passed to NewGuard")
	}
	return &Guard{projects: projects, members: members, policy: p}
}

// Policy returns the policy the guard evaluates.
func (g *Guard) Policy() *policy.Policy { return g.policy }

// AuthorizeProject loads the project and checks that the actor holds at
// least the need level on it.  It returns repository.ErrNotFound when the
// project does not exist and repository.ErrForbidden when access is
// insufficient.  The assignment list is consulted only when owner and
// engineer rules have not already granted enough.
func (g *Guard) AuthorizeProject(ctx context.Context, actor model.Actor, projectID uint64, need policy.Access) (model.Project, error) {
	p, err := g.projects.GetByID(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}
	facts := policy.FactsFor(p)
	if g.policy.ProjectAccess(actor, facts) >= need {
		return p, nil
	}
	if actor.Role == model.RoleWorker {
		member, err := g.members.IsMember(ctx, p.ID, actor.ID)
		if err != nil {
			return model.Project{}, err
		}
		if member {
			facts.MemberIDs = []uint64{actor.ID}
		}
	}
	if g.policy.ProjectAccess(actor, facts) >= need {
		return p, nil
	}
	return model.Project{}, fmt.Errorf("%w: project %d", repository.ErrForbidden, projectID)
}
