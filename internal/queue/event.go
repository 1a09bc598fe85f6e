// Package queue defines the workflow events exchanged over the message
// broker, together with the publisher used by the workflows and the
// consumer that turns them into an activity log.
package queue

import "time"

// EventType names a workflow outcome.
type EventType string

const (
	EventRequestCreated   EventType = "worker_request.created"
	EventRequestResponded EventType = "worker_request.responded"
	EventWorkerAssigned   EventType = "worker.assigned"
	EventMaterialOrdered  EventType = "material.ordered"
)

// ProjectEvent is published after a workflow transaction commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database; fields that do not apply to a given type
// are left zero.
type ProjectEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	ProjectID      uint64    `json:"project_id"`
	ActorID        uint64    `json:"actor_id"`
	WorkerID       uint64    `json:"worker_id,omitempty"`
	RequestID      uint64    `json:"request_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Role           string    `json:"role,omitempty"`
	MaterialID     uint64    `json:"material_id,omitempty"`
	Quantity       int64     `json:"quantity,omitempty"`
	TotalCostCents int64     `json:"total_cost_cents,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
