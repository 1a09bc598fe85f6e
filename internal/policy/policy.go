// Package policy holds the role authorization table and the project access
// rules.  Everything here is a pure function of the actor and the facts
// passed in; nothing touches the database.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/buildtrack/internal/model"
)

// Action names an operation guarded by the rule table.
type Action string

const (
	ActionCreateProject    Action = "projects:create"
	ActionBrowseWorkers    Action = "workers:browse"
	ActionRequestWorker    Action = "workers:request"
	ActionRespondRequest   Action = "requests:respond"
	ActionAssignWorker     Action = "workers:assign"
	ActionOrderMaterial    Action = "materials:order"
	ActionManageMilestones Action = "milestones:manage"
	ActionManageMaterials  Action = "materials:manage"
	ActionManageUsers      Action = "users:manage"
)

var knownActions = map[Action]bool{
	ActionCreateProject:    true,
	ActionBrowseWorkers:    true,
	ActionRequestWorker:    true,
	ActionRespondRequest:   true,
	ActionAssignWorker:     true,
	ActionOrderMaterial:    true,
	ActionManageMilestones: true,
	ActionManageMaterials:  true,
	ActionManageUsers:      true,
}

const anySubRole = "*"

//go:embed default_policy.yaml
var defaultPolicy []byte

// Rule grants Actions to every actor with Role and SubRole.  An empty
// SubRole matches any sub-role.
type Rule struct {
	Role    model.Role `yaml:"role"`
	SubRole string     `yaml:"sub_role"`
	Actions []Action   `yaml:"actions"`
}

// File is the on-disk shape of a policy.
type File struct {
	AdminProjectAccess string `yaml:"admin_project_access"`
	Rules              []Rule `yaml:"rules"`
}

type ruleKey struct {
	role    model.Role
	subRole string
	action  Action
}

// Policy is an immutable, validated rule table.
type Policy struct {
	table       map[ruleKey]struct{}
	adminAccess Access
}

// New validates f and builds a Policy from it.
func New(f File) (*Policy, error) {
	p := &Policy{table: make(map[ruleKey]struct{})}
	if f.AdminProjectAccess != "" {
		a, err := ParseAccess(f.AdminProjectAccess)
		if err != nil {
			return nil, err
		}
		p.adminAccess = a
	}
	for i, r := range f.Rules {
		if !r.Role.Valid() {
			return nil, fmt.Errorf("policy rule %d: unknown role %q", i, r.Role)
		}
		sub := strings.TrimSpace(r.SubRole)
		if sub == "" {
			sub = anySubRole
		}
		if sub != anySubRole && !model.SubRole(sub).Valid() {
			return nil, fmt.Errorf("policy rule %d: unknown sub_role %q", i, sub)
		}
		for _, a := range r.Actions {
			if !knownActions[a] {
				return nil, fmt.Errorf("policy rule %d: unknown action %q", i, a)
			}
			p.table[ruleKey{role: r.Role, subRole: sub, action: a}] = struct{}{}
		}
	}
	return p, nil
}

// Parse decodes a YAML policy.
func Parse(data []byte) (*Policy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return New(f)
}

// Load reads a policy file.  An empty path yields the built-in table.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Parse(defaultPolicy)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in table.
func Default() *Policy {
	p, err := Parse(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return p
}

// WithAdminProjectAccess returns a copy of p with the admin project rule
// replaced.
func (p *Policy) WithAdminProjectAccess(a Access) *Policy {
	cp := *p
	cp.adminAccess = a
	return &cp
}

// AdminProjectAccess reports the configured admin project rule.
func (p *Policy) AdminProjectAccess() Access { return p.adminAccess }

// CanPerform reports whether the table grants action to the actor.
func (p *Policy) CanPerform(actor model.Actor, action Action) bool {
	if _, ok := p.table[ruleKey{role: actor.Role, subRole: anySubRole, action: action}]; ok {
		return true
	}
	if actor.SubRole == "" {
		return false
	}
	_, ok := p.table[ruleKey{role: actor.Role, subRole: string(actor.SubRole), action: action}]
	return ok
}
