package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TaskForge/internal/domain/event"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/database"
)

// ProactiveService re-evaluates standing instructions when an external
// event arrives. One event produces at most one task regardless of how
// many instructions are active.
type ProactiveService struct {
	store  database.Store
	tasks  *TaskService
	agent  *AgentService
	logger *slog.Logger
}

// NewProactiveService creates a ProactiveService.
func NewProactiveService(store database.Store, tasks *TaskService, agent *AgentService, logger *slog.Logger) *ProactiveService {
	return &ProactiveService{store: store, tasks: tasks, agent: agent, logger: logger}
}

// HandleEvent evaluates an inbound event against the owner's active
// instructions. With no active instructions the event is dropped; otherwise
// a single evaluation task is synthesized and processed synchronously.
func (s *ProactiveService) HandleEvent(ctx context.Context, ev event.Event) (*task.Task, error) {
	active, err := s.store.ListActiveInstructions(ctx, ev.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	if len(active) == 0 {
		s.logger.Info("event dropped, no active instructions",
			"owner", ev.OwnerID, "type", ev.Type, "delivery", ev.DeliveryID)
		return nil, nil
	}

	t, err := s.tasks.Create(ctx, ev.OwnerID, task.CreateRequest{
		Description: fmt.Sprintf("Evaluate proactive action for %s event", ev.Type),
		Context: map[string]any{
			"event_type":  ev.Type,
			"event_data":  ev.Payload,
			"trigger":     "proactive_check",
			"delivery_id": ev.DeliveryID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize task: %w", err)
	}

	s.logger.Info("proactive task synthesized",
		"task", t.ID, "owner", ev.OwnerID, "event_type", ev.Type)

	processed, err := s.agent.ProcessTask(ctx, ev.OwnerID, t.ID)
	if err != nil {
		return nil, fmt.Errorf("process proactive task: %w", err)
	}
	return processed, nil
}
