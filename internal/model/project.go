package model

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Project is a construction project owned by a client.  CivilEngineerID is
// set exactly once, when a civil engineer accepts a worker request, and the
// status leaves planning at the same moment.
type Project struct {
	ID              uint64        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	OwnerID         uint64        `json:"owner_id"`
	CivilEngineerID *uint64       `json:"civil_engineer_id"`
	Status          ProjectStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// HasCivilEngineer reports whether an engineer has been accepted onto the
// project.
func (p Project) HasCivilEngineer() bool { return p.CivilEngineerID != nil }

// EngineerIs reports whether userID is the project's civil engineer.
func (p Project) EngineerIs(userID uint64) bool {
	return p.CivilEngineerID != nil && *p.CivilEngineerID == userID
}

// Assignment is a durable record that a worker is attached to a project.
// Role is civil_engineer for accepted requests, otherwise the label chosen
// by the assigning engineer.
type Assignment struct {
	ID         uint64    `json:"id"`
	ProjectID  uint64    `json:"project_id"`
	WorkerID   uint64    `json:"worker_id"`
	AssignedBy uint64    `json:"assigned_by"`
	Role       SubRole   `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// MilestoneStatus tracks progress of a milestone.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Milestone is a dated goal within a project.
type Milestone struct {
	ID          uint64          `json:"id"`
	ProjectID   uint64          `json:"project_id"`
	Title       string          `json:"title"`
	TargetDate  time.Time       `json:"target_date"`
	CompletedAt *time.Time      `json:"completed_at"`
	Status      MilestoneStatus `json:"status"`
	CreatedBy   uint64          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
