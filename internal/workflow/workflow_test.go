package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/buildtrack/internal/database/dbtest"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ProjectEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ProjectEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return errors.New("redis down")
}

type fixture struct {
	db      *dbtest.DB
	deps    Deps
	events  *recordingPublisher
	catalog *countingInvalidator

	requests    *RequestWorkflow
	assignments *AssignmentWorkflow
	orders      *OrderWorkflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, events: &recordingPublisher{}, catalog: &countingInvalidator{}}
	f.deps = NewDeps(db.Store, policy.Default())
	f.deps.Events = f.events
	f.deps.Catalog = f.catalog
	f.requests = NewRequestWorkflow(f.deps)
	f.assignments = NewAssignmentWorkflow(f.deps)
	f.orders = NewOrderWorkflow(f.deps)
	return f
}
