package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/buildtrack/internal/model"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
)

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)

	wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID, Message: "  need you  "})
	require.NoError(t, err)
	assert.NotZero(t, wr.ID)
	assert.Equal(t, model.RequestPending, wr.Status)
	assert.Equal(t, "need you", wr.Message)
	assert.Equal(t, owner.ID, wr.RequesterID)
	assert.Nil(t, wr.RespondedAt)
	assert.Equal(t, []queue.EventType{queue.EventRequestCreated}, f.events.types())

	incoming, err := f.requests.Incoming(ctx, engineer, model.RequestPending)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, wr.ID, incoming[0].ID)
}

func TestCreateRequestFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	painter := f.db.User(model.RoleWorker, model.SubRolePainter)
	busy := f.db.Engineer()
	f.db.SetAvailable(busy.ID, false)
	p := f.db.Project(owner)
	staffed := f.db.StaffedProject(owner, f.db.Engineer())

	tests := []struct {
		name  string
		actor model.Actor
		in    CreateRequestInput
		want  error
	}{
		{"missing project", owner, CreateRequestInput{ProjectID: 9999, WorkerID: engineer.ID}, repository.ErrNotFound},
		{"not the owner", f.db.Client(), CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID}, repository.ErrForbidden},
		{"worker may not request", engineer, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID}, repository.ErrForbidden},
		{"missing worker", owner, CreateRequestInput{ProjectID: p.ID, WorkerID: 9999}, repository.ErrNotFound},
		{"no worker id", owner, CreateRequestInput{ProjectID: p.ID}, repository.ErrBadRequest},
		{"not a civil engineer", owner, CreateRequestInput{ProjectID: p.ID, WorkerID: painter.ID}, repository.ErrBadRequest},
		{"engineer unavailable", owner, CreateRequestInput{ProjectID: p.ID, WorkerID: busy.ID}, repository.ErrBadRequest},
		{"project already staffed", owner, CreateRequestInput{ProjectID: staffed.ID, WorkerID: engineer.ID}, repository.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requests.Create(ctx, tt.actor, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.events.types())
}

func TestDuplicatePendingRequestConflictsUntilRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)
	in := CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID}

	first, err := f.requests.Create(ctx, owner, in)
	require.NoError(t, err)

	_, err = f.requests.Create(ctx, owner, in)
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = f.requests.Respond(ctx, engineer, first.ID, model.RequestRejected)
	require.NoError(t, err)

	second, err := f.requests.Create(ctx, owner, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, f.db.Count("worker_requests", "project_id = ? AND status = 'pending'", p.ID))
}

func TestAcceptStaffsProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)

	wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
	require.NoError(t, err)

	got, err := f.requests.Respond(ctx, engineer, wr.ID, model.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)

	project, err := f.deps.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, project.CivilEngineerID)
	assert.Equal(t, engineer.ID, *project.CivilEngineerID)
	assert.Equal(t, model.ProjectInProgress, project.Status)

	n, err := f.deps.Assignments.CountByRole(ctx, p.ID, engineer.ID, model.SubRoleCivilEngineer)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.db.Available(engineer.ID))
	assert.Equal(t, []queue.EventType{queue.EventRequestCreated, queue.EventRequestResponded}, f.events.types())
}

func TestRespondTwiceConflictsWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	for _, decision := range []model.RequestStatus{model.RequestAccepted, model.RequestRejected} {
		t.Run(string(decision), func(t *testing.T) {
			f := newFixture(t)
			owner := f.db.Client()
			engineer := f.db.Engineer()
			p := f.db.Project(owner)
			wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
			require.NoError(t, err)

			_, err = f.requests.Respond(ctx, engineer, wr.ID, decision)
			require.NoError(t, err)
			assignments := f.db.Count("project_worker_assignments", "project_id = ?", p.ID)

			for _, again := range []model.RequestStatus{model.RequestAccepted, model.RequestRejected} {
				_, err = f.requests.Respond(ctx, engineer, wr.ID, again)
				assert.ErrorIs(t, err, repository.ErrConflict)
			}
			assert.Equal(t, assignments, f.db.Count("project_worker_assignments", "project_id = ?", p.ID))
			assert.Equal(t, 1, f.db.Count("worker_requests", "id = ? AND status = ?", wr.ID, string(decision)))
		})
	}
}

func TestRespondFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)
	wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
	require.NoError(t, err)

	_, err = f.requests.Respond(ctx, engineer, wr.ID, model.RequestPending)
	assert.ErrorIs(t, err, repository.ErrBadRequest)

	_, err = f.requests.Respond(ctx, f.db.Engineer(), wr.ID, model.RequestAccepted)
	assert.ErrorIs(t, err, repository.ErrNotFound, "a request addressed to someone else is invisible")

	_, err = f.requests.Respond(ctx, engineer, 9999, model.RequestAccepted)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.requests.Respond(ctx, owner, wr.ID, model.RequestAccepted)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	assert.Equal(t, 1, f.db.Count("worker_requests", "id = ? AND status = 'pending'", wr.ID))
}

func TestAcceptRollsBackWhenProjectAlreadyStaffed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	first := f.db.Engineer()
	second := f.db.Engineer()
	p := f.db.Project(owner)

	r1, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: first.ID})
	require.NoError(t, err)
	r2, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: second.ID})
	require.NoError(t, err)

	_, err = f.requests.Respond(ctx, first, r1.ID, model.RequestAccepted)
	require.NoError(t, err)

	_, err = f.requests.Respond(ctx, second, r2.ID, model.RequestAccepted)
	require.ErrorIs(t, err, repository.ErrConflict)

	assert.Equal(t, 1, f.db.Count("worker_requests", "id = ? AND status = 'pending'", r2.ID), "status change rolled back")
	assert.True(t, f.db.Available(second.ID))
	assert.Equal(t, 0, f.db.Count("project_worker_assignments", "worker_id = ?", second.ID))

	project, err := f.deps.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, project.EngineerIs(first.ID))

	_, err = f.requests.Respond(ctx, second, r2.ID, model.RequestRejected)
	assert.NoError(t, err, "the request can still be rejected")
}

func TestAcceptConflictsWhenEngineerNoLongerAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)
	wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
	require.NoError(t, err)

	f.db.SetAvailable(engineer.ID, false)
	_, err = f.requests.Respond(ctx, engineer, wr.ID, model.RequestAccepted)
	require.ErrorIs(t, err, repository.ErrConflict)

	project, err := f.deps.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, project.HasCivilEngineer())
	assert.Equal(t, model.ProjectPlanning, project.Status)
	assert.Equal(t, 1, f.db.Count("worker_requests", "id = ? AND status = 'pending'", wr.ID))
}

func TestEngineerImpliesSingleAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.db.Client()

	for i := 0; i < 3; i++ {
		engineer := f.db.Engineer()
		p := f.db.Project(owner)
		wr, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
		require.NoError(t, err)
		if i == 1 {
			_, err = f.requests.Respond(ctx, engineer, wr.ID, model.RequestRejected)
		} else {
			_, err = f.requests.Respond(ctx, engineer, wr.ID, model.RequestAccepted)
		}
		require.NoError(t, err)
	}

	rows, err := f.db.SQL.Query("SELECT id, civil_engineer_id FROM projects WHERE civil_engineer_id IS NOT NULL")
	require.NoError(t, err)
	type pair struct{ project, engineer uint64 }
	var staffed []pair
	for rows.Next() {
		var p pair
		require.NoError(t, rows.Scan(&p.project, &p.engineer))
		staffed = append(staffed, p)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	require.Len(t, staffed, 2)
	for _, s := range staffed {
		n, err := f.deps.Assignments.CountByRole(ctx, s.project, s.engineer, model.SubRoleCivilEngineer)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "project %d", s.project)
	}
}

func TestPublishFailureDoesNotFailWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.events.err = assert.AnError
	owner := f.db.Client()
	engineer := f.db.Engineer()
	p := f.db.Project(owner)

	_, err := f.requests.Create(ctx, owner, CreateRequestInput{ProjectID: p.ID, WorkerID: engineer.ID})
	assert.NoError(t, err)
	assert.Len(t, f.events.types(), 1)
}
