package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/TaskForge/internal/adapter/otel"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/domain/tool"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/port/planner"
	"github.com/Strob0t/TaskForge/internal/port/retrieval"
)

// Final result strings. Failed tasks point at the trace for diagnosis.
const (
	resultAwaitingReply  = "email sent, awaiting reply"
	resultCompleted      = "task completed"
	resultNoContact      = "no contact found; see trace"
	resultNoUsableResult = "no usable outcome; see trace"
)

// AgentService orchestrates task processing: one planner pass, validated
// tool execution, the contact-resolution fallback chain and finalization.
type AgentService struct {
	store   database.Store
	planner planner.Planner
	toolset *Toolset
	lookup  retrieval.Lookuper
	metrics *otel.Metrics
	logger  *slog.Logger

	// group collapses concurrent processing passes for the same task
	// into a single execution.
	group singleflight.Group
}

// NewAgentService creates the orchestrator. lookup and metrics may be nil.
func NewAgentService(store database.Store, p planner.Planner, ts *Toolset, lookup retrieval.Lookuper, metrics *otel.Metrics, logger *slog.Logger) *AgentService {
	return &AgentService{
		store:   store,
		planner: p,
		toolset: ts,
		lookup:  lookup,
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessTask runs one processing pass for the task. Concurrent calls for
// the same task ID share a single pass and its result.
func (s *AgentService) ProcessTask(ctx context.Context, ownerID, taskID string) (*task.Task, error) {
	v, err, _ := s.group.Do(taskID, func() (any, error) {
		return s.process(ctx, ownerID, taskID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*task.Task), nil
}

func (s *AgentService) process(ctx context.Context, ownerID, taskID string) (*task.Task, error) {
	t, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}

	ctx, span := otel.StartTaskSpan(ctx, t.ID, t.OwnerID)
	defer span.End()
	started := time.Now()

	// The in_progress transition is persisted before any tool runs, so an
	// observer never sees side effects from a task still marked pending.
	t.Status = task.StatusInProgress
	t.Result = ""
	if err := s.store.UpdateTaskProgress(ctx, t); err != nil {
		return nil, fmt.Errorf("mark in progress: %w", err)
	}

	var (
		trace    []tool.Invocation
		rejected []tool.RejectedProposal
	)

	proposals, planErr := s.plan(ctx, t)
	if planErr != nil {
		s.logger.Error("planning pass failed", "task", t.ID, "error", planErr)
		return s.finalizeFault(ctx, t, trace, rejected, planErr)
	}

	if len(proposals) == 0 {
		// The model declined to act; fall back to the deterministic
		// minimal workflow: CRM search, then the standard fallback chain.
		s.logger.Warn("planner returned no proposals, running minimal workflow", "task", t.ID)
		query := extractContactName(t.Description, t.Context)
		if query == "" {
			query = t.Description
		}
		proposals = []planner.Proposal{
			{Tool: string(tool.SearchContacts), Arguments: map[string]any{"query": query}},
		}
	}

	for _, prop := range proposals {
		inv, ok := s.invoke(ctx, t, prop.Tool, prop.Arguments, &rejected)
		if !ok {
			continue
		}
		trace = append(trace, inv)
	}

	trace, archiveCameUpEmpty := s.runContactFallback(ctx, t, trace)

	return s.finalize(ctx, t, trace, rejected, archiveCameUpEmpty, started)
}

// plan runs the single planning pass with standing instructions and
// best-effort retrieval snippets as read-only context.
func (s *AgentService) plan(ctx context.Context, t *task.Task) ([]planner.Proposal, error) {
	var instructions []string
	active, err := s.store.ListActiveInstructions(ctx, t.OwnerID)
	if err != nil {
		s.logger.Warn("listing instructions failed", "task", t.ID, "error", err)
	} else {
		for _, ins := range active {
			instructions = append(instructions, ins.Text)
		}
	}

	var snippets []string
	if s.lookup != nil {
		found, err := s.lookup.Lookup(ctx, t.OwnerID, t.Description)
		if err != nil {
			s.logger.Warn("snippet lookup failed", "task", t.ID, "error", err)
		} else {
			for _, sn := range found {
				snippets = append(snippets, sn.Text)
			}
		}
	}

	return s.planner.Plan(ctx, planner.Request{
		Description:     t.Description,
		Instructions:    instructions,
		Snippets:        snippets,
		Tools:           tool.Catalog(),
		RequireToolCall: true,
	})
}

// invoke validates and executes one proposal. A rejected proposal is
// recorded and reported via ok=false; it never reaches an adapter.
func (s *AgentService) invoke(ctx context.Context, t *task.Task, name string, args map[string]any, rejected *[]tool.RejectedProposal) (tool.Invocation, bool) {
	ctx, span := otel.StartToolCallSpan(ctx, t.ID, name)
	defer span.End()

	outcome, err := s.toolset.Execute(ctx, t.OwnerID, name, args)
	if err != nil {
		s.logger.Warn("proposal rejected", "task", t.ID, "tool", name, "reason", err)
		*rejected = append(*rejected, tool.RejectedProposal{
			Tool:   name,
			Args:   args,
			Reason: err.Error(),
		})
		return tool.Invocation{}, false
	}

	if s.metrics != nil {
		s.metrics.ToolCalls.Add(ctx, 1)
		if !outcome.Success {
			s.metrics.ToolFailures.Add(ctx, 1)
		}
	}
	s.logger.Info("tool executed", "task", t.ID, "tool", name, "success", outcome.Success)

	return tool.Invocation{
		Tool:      tool.Name(name),
		Arguments: args,
		Outcome:   outcome,
	}, true
}

// runContactFallback applies the deterministic fallback chain after the
// proposal loop: a failed CRM search (failure, not an empty success)
// triggers an archive scan, and a found candidate triggers the templated
// availability email. The second return value reports whether the archive
// scan ran and came up empty.
func (s *AgentService) runContactFallback(ctx context.Context, t *task.Task, trace []tool.Invocation) ([]tool.Invocation, bool) {
	crmFailed := false
	for _, inv := range trace {
		if inv.Tool == tool.SearchContacts && !inv.Outcome.Success {
			crmFailed = true
			break
		}
	}
	if !crmFailed {
		return trace, false
	}

	name := extractContactName(t.Description, t.Context)
	if name == "" {
		s.logger.Warn("no contact name for fallback, skipping archive scan", "task", t.ID)
		return trace, false
	}

	var rejected []tool.RejectedProposal
	inv, ok := s.invoke(ctx, t, string(tool.FindContactFromArchive), map[string]any{"name": name}, &rejected)
	if !ok {
		return trace, false
	}
	trace = append(trace, inv)

	candidates := candidateList(inv.Outcome)
	if !inv.Outcome.Success || len(candidates) == 0 {
		return trace, inv.Outcome.Success
	}

	top := candidates[0]
	contactName, _ := top["name"].(string)
	contactEmail, _ := top["email"].(string)

	sendArgs := map[string]any{
		"to":      contactEmail,
		"subject": "Meeting Request - " + name,
		"body": fmt.Sprintf("Hi %s,\n\nI'd like to schedule an appointment with you. "+
			"Are you available for a meeting this week?\n\n"+
			"Please let me know what times work best.\n\nBest regards", contactName),
	}
	if sendInv, ok := s.invoke(ctx, t, string(tool.SendEmail), sendArgs, &rejected); ok {
		trace = append(trace, sendInv)
	}
	return trace, false
}

// finalize applies the resolution policy and persists the outcome.
func (s *AgentService) finalize(ctx context.Context, t *task.Task, trace []tool.Invocation, rejected []tool.RejectedProposal, archiveCameUpEmpty bool, started time.Time) (*task.Task, error) {
	emailSent := false
	anySuccess := false
	for _, inv := range trace {
		if inv.Outcome.Success {
			anySuccess = true
			if inv.Tool == tool.SendEmail {
				emailSent = true
			}
		}
	}

	switch {
	case emailSent:
		t.Status = task.StatusWaitingResponse
		t.Result = resultAwaitingReply
	case anySuccess:
		t.Status = task.StatusCompleted
		t.Result = resultCompleted
	case archiveCameUpEmpty:
		t.Status = task.StatusFailed
		t.Result = resultNoContact
	default:
		t.Status = task.StatusFailed
		t.Result = resultNoUsableResult
	}

	s.writeTrace(t, trace, rejected)
	if err := s.store.UpdateTaskProgress(ctx, t); err != nil {
		return nil, fmt.Errorf("persist resolution: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TasksProcessed.Add(ctx, 1)
		if t.Status == task.StatusFailed {
			s.metrics.TasksFailed.Add(ctx, 1)
		}
		s.metrics.TaskDuration.Record(ctx, time.Since(started).Seconds())
	}
	s.logger.Info("task resolved", "task", t.ID, "status", t.Status, "result", t.Result)
	return t, nil
}

// finalizeFault resolves a task after an orchestration fault. The partial
// trace is preserved and the error message becomes the result.
func (s *AgentService) finalizeFault(ctx context.Context, t *task.Task, trace []tool.Invocation, rejected []tool.RejectedProposal, fault error) (*task.Task, error) {
	t.Status = task.StatusFailed
	t.Result = fmt.Sprintf("Error: %v", fault)
	s.writeTrace(t, trace, rejected)
	if err := s.store.UpdateTaskProgress(ctx, t); err != nil {
		return nil, fmt.Errorf("persist fault: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TasksProcessed.Add(ctx, 1)
		s.metrics.TasksFailed.Add(ctx, 1)
	}
	return t, nil
}

func (s *AgentService) writeTrace(t *task.Task, trace []tool.Invocation, rejected []tool.RejectedProposal) {
	if t.Context == nil {
		t.Context = make(map[string]any)
	}
	if trace == nil {
		trace = []tool.Invocation{}
	}
	t.Context[task.ContextKeyToolResults] = trace
	if len(rejected) > 0 {
		t.Context[task.ContextKeyRejected] = rejected
	}
}

// extractContactName isolates the name heuristic: the word run after the
// first "with" in the lowercased description, else the task context's
// contact_name, else empty.
func extractContactName(description string, taskCtx map[string]any) string {
	words := strings.Fields(strings.ToLower(description))
	for i, w := range words {
		if w == "with" && i+1 < len(words) {
			return strings.Join(words[i+1:], " ")
		}
	}
	if taskCtx != nil {
		if name, ok := taskCtx[task.ContextKeyContactName].(string); ok && name != "" {
			return name
		}
	}
	return ""
}

// candidateList extracts the candidate maps from an archive scan outcome.
// Fresh outcomes carry []map[string]any; outcomes rehydrated from JSON
// carry []any.
func candidateList(o tool.Outcome) []map[string]any {
	if o.Payload == nil {
		return nil
	}
	switch results := o.Payload["results"].(type) {
	case []map[string]any:
		return results
	case []any:
		out := make([]map[string]any, 0, len(results))
		for _, r := range results {
			if m, ok := r.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
