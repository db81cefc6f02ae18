// Package http provides the chi-based HTTP surface for TaskForge.
package http

import (
	"log/slog"
	"net/http"

	"github.com/Strob0t/TaskForge/internal/domain/event"
	"github.com/Strob0t/TaskForge/internal/domain/instruction"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/middleware"
	"github.com/Strob0t/TaskForge/internal/service"
)

const defaultBodyLimit = 1 << 20 // 1 MiB

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	Tasks        *service.TaskService
	Instructions *service.InstructionService
	Agent        *service.AgentService
	Proactive    *service.ProactiveService
	Sync         *service.SyncService
	Logger       *slog.Logger
}

// --- Tasks ---

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.CreateRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	t, err := h.Tasks.Create(r.Context(), middleware.OwnerIDFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), middleware.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.Context(), middleware.OwnerIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ProcessTask triggers a synchronous processing pass for one task.
func (h *Handlers) ProcessTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Agent.ProcessTask(r.Context(), middleware.OwnerIDFromContext(r.Context()), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- Instructions ---

func (h *Handlers) CreateInstruction(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[instruction.CreateRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	ins, err := h.Instructions.Create(r.Context(), middleware.OwnerIDFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "instruction not found")
		return
	}
	writeJSON(w, http.StatusCreated, ins)
}

func (h *Handlers) ListInstructions(w http.ResponseWriter, r *http.Request) {
	instructions, err := h.Instructions.List(r.Context(), middleware.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if instructions == nil {
		instructions = []*instruction.Instruction{}
	}
	writeJSON(w, http.StatusOK, instructions)
}

func (h *Handlers) ToggleInstruction(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Active bool `json:"active"`
	}](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	err := h.Instructions.Toggle(r.Context(), middleware.OwnerIDFromContext(r.Context()), urlParam(r, "id"), req.Active)
	if err != nil {
		writeDomainError(w, err, "instruction not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": urlParam(r, "id"), "active": req.Active})
}

// --- Sync ---

func (h *Handlers) SyncMessages(w http.ResponseWriter, r *http.Request) {
	count, err := h.Sync.SyncMessages(r.Context(), middleware.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": count})
}

func (h *Handlers) SyncContacts(w http.ResponseWriter, r *http.Request) {
	count, err := h.Sync.SyncContacts(r.Context(), middleware.OwnerIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": count})
}

// --- Webhooks ---

type webhookBody struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
}

// HandleWebhook returns the handler for one verified webhook source. A
// delivery without an owner is acknowledged and dropped.
func (h *Handlers) HandleWebhook(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readJSON[webhookBody](w, r, defaultBodyLimit)
		if !ok {
			return
		}
		if body.UserID == "" {
			h.Logger.Warn("webhook without owner dropped", "source", source)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}

		typ := body.EventType
		if typ == "" {
			typ = source + "_notification"
		}

		ev := event.New(body.UserID, source, typ, body.Data)
		if _, err := h.Proactive.HandleEvent(r.Context(), ev); err != nil {
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
