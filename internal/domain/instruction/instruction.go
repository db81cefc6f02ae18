// Package instruction defines standing instructions evaluated against inbound events.
package instruction

import "time"

// Instruction is an owner-authored rule re-evaluated whenever an external
// event arrives. Only active instructions are considered by the evaluator;
// the orchestrator treats them as read-only prompt context.
type Instruction struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to create a new instruction.
type CreateRequest struct {
	Text string `json:"text"`
}
