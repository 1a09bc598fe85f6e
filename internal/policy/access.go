package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iliyamo/buildtrack/internal/model"
)

// Access is the level of access an actor has to a project's
// sub-resources.  Levels are ordered: manage implies read.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessManage
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessManage:
		return "manage"
	}
	return "none"
}

// ParseAccess parses "none", "read" or "manage".
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AccessNone, nil
	case "read":
		return AccessRead, nil
	case "manage":
		return AccessManage, nil
	}
	return AccessNone, fmt.Errorf("unknown project access level %q", s)
}

// ProjectFacts carries what the policy needs to know about a project.
// MemberIDs may be nil when membership has not been loaded.
type ProjectFacts struct {
	OwnerID         uint64
	CivilEngineerID *uint64
	MemberIDs       []uint64
}

// FactsFor builds facts from a project row.
func FactsFor(p model.Project, members ...uint64) ProjectFacts {
	return ProjectFacts{OwnerID: p.OwnerID, CivilEngineerID: p.CivilEngineerID, MemberIDs: members}
}

// IsOwner reports whether the actor owns the project.
func IsOwner(actor model.Actor, f ProjectFacts) bool {
	return actor.ID != 0 && actor.ID == f.OwnerID
}

// IsCivilEngineer reports whether the actor is the project's accepted
// civil engineer.
func IsCivilEngineer(actor model.Actor, f ProjectFacts) bool {
	return actor.Role == model.RoleWorker && f.CivilEngineerID != nil && *f.CivilEngineerID == actor.ID
}

// ProjectAccess evaluates the project rules in precedence order: owner,
// civil engineer, assigned worker, admin rule, deny.
func (p *Policy) ProjectAccess(actor model.Actor, f ProjectFacts) Access {
	switch {
	case IsOwner(actor, f):
		return AccessManage
	case IsCivilEngineer(actor, f):
		return AccessManage
	case actor.Role == model.RoleWorker && slices.Contains(f.MemberIDs, actor.ID):
		return AccessRead
	case actor.Role == model.RoleAdmin:
		return p.adminAccess
	}
	return AccessNone
}

// CanAccessProject reports whether the actor may at least read the
// project's sub-resources.
func (p *Policy) CanAccessProject(actor model.Actor, f ProjectFacts) bool {
	return p.ProjectAccess(actor, f) >= AccessRead
}
