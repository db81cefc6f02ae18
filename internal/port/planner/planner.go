// Package planner defines the language-model planning port.
package planner

import (
	"context"

	"github.com/Strob0t/TaskForge/internal/domain/tool"
)

// Request is one planning pass: the task description plus read-only prompt
// context and the tool catalog the model may draw from.
type Request struct {
	Description  string
	Instructions []string
	Snippets     []string
	Tools        []tool.Definition
	// RequireToolCall asks the model to respond with at least one tool
	// call instead of prose. Best-effort; the caller still handles zero
	// proposals.
	RequireToolCall bool
}

// Proposal is one tool call proposed by the model. Proposals are untrusted:
// the tool name may be unknown and the arguments may not satisfy the schema.
type Proposal struct {
	Tool      string
	Arguments map[string]any
}

// Planner produces an ordered list of tool proposals for a task.
type Planner interface {
	Plan(ctx context.Context, req Request) ([]Proposal, error)
}
