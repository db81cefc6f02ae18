// Package task defines the Task domain entity and its state machine.
package task

import "time"

// Status represents the current state of a task.
type Status string

const (
	StatusPending         Status = "pending"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusWaitingResponse Status = "waiting_response"
	StatusFailed          Status = "failed"
)

// Context keys written by the orchestrator during a processing pass.
// ContextKeyToolResults is append-only within a single pass.
const (
	ContextKeyToolResults = "tool_results"
	ContextKeyRejected    = "rejected_proposals"
	ContextKeyContactName = "contact_name"
)

// Task represents one unit of orchestrated work owned by a single identity.
// Status moves monotonically along pending -> in_progress -> one of the
// resolved states; the orchestrator is the only writer while processing.
type Task struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context"`
	Status      Status         `json:"status"`
	Result      string         `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	Description string         `json:"description"`
	Context     map[string]any `json:"context,omitempty"`
}

// IsResolved reports whether the task reached a resolved state.
func (s Status) IsResolved() bool {
	switch s {
	case StatusCompleted, StatusWaitingResponse, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal edge.
// Resolved states are never left automatically; a caller that re-processes a
// resolved task does so explicitly and restarts from in_progress.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next.IsResolved()
	default:
		return false
	}
}

// IsValidStatus checks that the given status is a supported enum value.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusWaitingResponse, StatusFailed:
		return true
	default:
		return false
	}
}
