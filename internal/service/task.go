package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/port/messagequeue"
)

// TaskService implements task CRUD and hands new tasks to the background
// execution path via the queue.
type TaskService struct {
	store  database.Store
	queue  messagequeue.Queue
	logger *slog.Logger
}

// NewTaskService creates a TaskService. queue may be nil; tasks are then
// only processed on explicit request.
func NewTaskService(store database.Store, queue messagequeue.Queue, logger *slog.Logger) *TaskService {
	return &TaskService{store: store, queue: queue, logger: logger}
}

// Create persists a new pending task and announces it on the queue.
// A publish failure does not fail the create; the task stays pending and
// can still be processed on request.
func (s *TaskService) Create(ctx context.Context, ownerID string, req task.CreateRequest) (*task.Task, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	t := &task.Task{
		OwnerID:     ownerID,
		Description: req.Description,
		Context:     req.Context,
		Status:      task.StatusPending,
	}
	if t.Context == nil {
		t.Context = make(map[string]any)
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if s.queue != nil {
		payload, err := json.Marshal(messagequeue.TaskCreatedPayload{
			TaskID:  t.ID,
			OwnerID: t.OwnerID,
		})
		if err == nil {
			err = s.queue.Publish(ctx, messagequeue.SubjectTaskCreated, payload)
		}
		if err != nil {
			s.logger.Warn("task created publish failed", "task", t.ID, "error", err)
		}
	}

	s.logger.Info("task created", "task", t.ID, "owner", ownerID)
	return t, nil
}

// Get returns one task by ID.
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, ownerID, id)
}

// List returns the owner's tasks, newest first.
func (s *TaskService) List(ctx context.Context, ownerID string) ([]*task.Task, error) {
	return s.store.ListTasks(ctx, ownerID)
}
