package model

import "time"

// RequestStatus is the state of a worker request.  pending is the only
// non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// IsDecision reports whether s is a valid response to a pending request.
func (s RequestStatus) IsDecision() bool {
	return s == RequestAccepted || s == RequestRejected
}

// WorkerRequest asks a civil engineer to take on a project.
//
// Fields:
//
//	ProjectID   – project the engineer is requested for.
//	WorkerID    – the requested engineer; the only user allowed to respond.
//	RequesterID – project owner who created the request.
//	RespondedAt – set when the request leaves pending.
type WorkerRequest struct {
	ID          uint64        `json:"id"`
	ProjectID   uint64        `json:"project_id"`
	WorkerID    uint64        `json:"worker_id"`
	RequesterID uint64        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Message     string        `json:"message"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at"`
}
