package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/buildtrack/internal/model"
)

var (
	admin    = model.Actor{ID: 1, Role: model.RoleAdmin}
	client   = model.Actor{ID: 2, Role: model.RoleClient}
	engineer = model.Actor{ID: 3, Role: model.RoleWorker, SubRole: model.SubRoleCivilEngineer}
	painter  = model.Actor{ID: 4, Role: model.RoleWorker, SubRole: model.SubRolePainter}
	stranger = model.Actor{ID: 5, Role: model.RoleWorker, SubRole: model.SubRolePlumber}
)

func TestCanPerformDefaultTable(t *testing.T) {
	p := Default()

	tests := []struct {
		name   string
		actor  model.Actor
		action Action
		want   bool
	}{
		{"admin manages materials", admin, ActionManageMaterials, true},
		{"admin manages users", admin, ActionManageUsers, true},
		{"admin cannot order materials", admin, ActionOrderMaterial, false},
		{"admin cannot request workers", admin, ActionRequestWorker, false},
		{"client creates projects", client, ActionCreateProject, true},
		{"client requests workers", client, ActionRequestWorker, true},
		{"client cannot assign workers", client, ActionAssignWorker, false},
		{"client cannot manage materials", client, ActionManageMaterials, false},
		{"engineer responds to requests", engineer, ActionRespondRequest, true},
		{"engineer assigns workers", engineer, ActionAssignWorker, true},
		{"engineer orders materials", engineer, ActionOrderMaterial, true},
		{"engineer cannot create projects", engineer, ActionCreateProject, false},
		{"painter cannot order materials", painter, ActionOrderMaterial, false},
		{"painter cannot respond to requests", painter, ActionRespondRequest, false},
		{"unknown role is denied", model.Actor{ID: 9, Role: "guest"}, ActionBrowseWorkers, false},
		{"unknown action is denied", admin, Action("projects:delete"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanPerform(tt.actor, tt.action))
		})
	}
}

func TestProjectAccessPrecedence(t *testing.T) {
	p := Default()
	engineerID := engineer.ID
	facts := ProjectFacts{OwnerID: client.ID, CivilEngineerID: &engineerID, MemberIDs: []uint64{engineer.ID, painter.ID}}

	tests := []struct {
		name  string
		actor model.Actor
		facts ProjectFacts
		want  Access
	}{
		{"owner manages", client, facts, AccessManage},
		{"civil engineer manages", engineer, facts, AccessManage},
		{"assigned worker reads", painter, facts, AccessRead},
		{"unrelated worker denied", stranger, facts, AccessNone},
		{"admin denied by default", admin, facts, AccessNone},
		{"other client denied", model.Actor{ID: 42, Role: model.RoleClient}, facts, AccessNone},
		{"engineer without assignment row still manages", engineer, ProjectFacts{OwnerID: client.ID, CivilEngineerID: &engineerID}, AccessManage},
		{"member list not loaded", painter, ProjectFacts{OwnerID: client.ID}, AccessNone},
		{"client listed as member gets nothing", model.Actor{ID: 7, Role: model.RoleClient}, ProjectFacts{OwnerID: client.ID, MemberIDs: []uint64{7}}, AccessNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ProjectAccess(tt.actor, tt.facts))
			assert.Equal(t, tt.want >= AccessRead, p.CanAccessProject(tt.actor, tt.facts))
		})
	}
}

func TestAdminProjectAccessIsConfigurable(t *testing.T) {
	facts := ProjectFacts{OwnerID: client.ID}

	read := Default().WithAdminProjectAccess(AccessRead)
	assert.Equal(t, AccessRead, read.ProjectAccess(admin, facts))
	assert.Equal(t, AccessNone, Default().ProjectAccess(admin, facts), "copy must not mutate the original")

	p, err := Parse([]byte("admin_project_access: manage\nrules: []\n"))
	require.NoError(t, err)
	assert.Equal(t, AccessManage, p.ProjectAccess(admin, facts))
	assert.False(t, p.CanPerform(client, ActionCreateProject), "empty table denies everything")
}

func TestParseRejectsUnknownEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown role", "rules:\n  - role: foreman\n    actions: [workers:browse]\n"},
		{"unknown sub role", "rules:\n  - role: worker\n    sub_role: welder\n    actions: [workers:browse]\n"},
		{"unknown action", "rules:\n  - role: client\n    actions: [projects:delete]\n"},
		{"unknown access level", "admin_project_access: everything\n"},
		{"malformed yaml", "rules: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "rules:\n  - role: worker\n    actions: [workers:browse]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.True(t, p.CanPerform(painter, ActionBrowseWorkers), "rule without sub_role matches any trade")
	assert.False(t, p.CanPerform(client, ActionBrowseWorkers))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.True(t, def.CanPerform(client, ActionCreateProject))
}

func TestParseAccess(t *testing.T) {
	for in, want := range map[string]Access{"": AccessNone, "none": AccessNone, "READ": AccessRead, " manage ": AccessManage} {
		got, err := ParseAccess(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "manage", AccessManage.String())
}
