package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TaskForge/internal/config"
	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/domain/instruction"
	"github.com/Strob0t/TaskForge/internal/domain/task"
	"github.com/Strob0t/TaskForge/internal/domain/tool"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/port/planner"
	"github.com/Strob0t/TaskForge/internal/service"
)

// stubStore is an in-memory store covering the methods the HTTP surface
// reaches through the services.
type stubStore struct {
	database.Store
	tasks        map[string]*task.Task
	instructions []*instruction.Instruction
	nextID       int
}

func newStubStore() *stubStore {
	return &stubStore{tasks: make(map[string]*task.Task)}
}

func (s *stubStore) CreateTask(_ context.Context, t *task.Task) error {
	s.nextID++
	t.ID = fmt.Sprintf("task-%d", s.nextID)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *stubStore) GetTask(_ context.Context, ownerID, id string) (*task.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, fmt.Errorf("get task %s: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *stubStore) ListTasks(_ context.Context, ownerID string) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateTaskProgress(_ context.Context, t *task.Task) error {
	if _, ok := s.tasks[t.ID]; !ok {
		return fmt.Errorf("update task %s: %w", t.ID, domain.ErrNotFound)
	}
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *stubStore) CreateInstruction(_ context.Context, ins *instruction.Instruction) error {
	s.nextID++
	ins.ID = fmt.Sprintf("ins-%d", s.nextID)
	s.instructions = append(s.instructions, ins)
	return nil
}

func (s *stubStore) ListInstructions(_ context.Context, ownerID string) ([]*instruction.Instruction, error) {
	var out []*instruction.Instruction
	for _, ins := range s.instructions {
		if ins.OwnerID == ownerID {
			out = append(out, ins)
		}
	}
	return out, nil
}

func (s *stubStore) ListActiveInstructions(_ context.Context, ownerID string) ([]*instruction.Instruction, error) {
	var out []*instruction.Instruction
	for _, ins := range s.instructions {
		if ins.OwnerID == ownerID && ins.Active {
			out = append(out, ins)
		}
	}
	return out, nil
}

func (s *stubStore) ToggleInstruction(_ context.Context, ownerID, id string, active bool) error {
	for _, ins := range s.instructions {
		if ins.ID == id && ins.OwnerID == ownerID {
			ins.Active = active
			return nil
		}
	}
	return fmt.Errorf("toggle instruction %s: %w", id, domain.ErrNotFound)
}

type stubPlanner struct{}

func (stubPlanner) Plan(_ context.Context, _ planner.Request) ([]planner.Proposal, error) {
	return []planner.Proposal{
		{Tool: "search_contacts", Arguments: map[string]any{"query": "anyone"}},
	}, nil
}

type stubEmail struct{}

func (stubEmail) SendEmail(context.Context, string, tool.SendEmailArgs) tool.Outcome {
	return tool.OK(map[string]any{"message_id": "m-1"})
}
func (stubEmail) SearchEmails(context.Context, string, tool.SearchEmailsArgs) tool.Outcome {
	return tool.OK(map[string]any{"results": []map[string]any{}, "count": 0})
}
func (stubEmail) FindContactFromArchive(context.Context, string, tool.FindContactArgs) tool.Outcome {
	return tool.OK(map[string]any{"results": []map[string]any{}, "count": 0})
}

type stubCalendar struct{}

func (stubCalendar) CreateEvent(context.Context, string, tool.CreateEventArgs) tool.Outcome {
	return tool.OK(nil)
}
func (stubCalendar) SearchEvents(context.Context, string, tool.SearchCalendarArgs) tool.Outcome {
	return tool.OK(map[string]any{"results": []map[string]any{}, "count": 0})
}

type stubCRM struct{}

func (stubCRM) CreateContact(context.Context, string, tool.CreateContactArgs) tool.Outcome {
	return tool.OK(nil)
}
func (stubCRM) SearchContacts(context.Context, string, tool.SearchContactsArgs) tool.Outcome {
	return tool.OK(map[string]any{"results": []map[string]any{}, "count": 0})
}
func (stubCRM) AddNote(context.Context, string, tool.AddNoteArgs) tool.Outcome {
	return tool.OK(nil)
}

const testWebhookSecret = "webhook-secret"

func newTestRouter(t *testing.T, store *stubStore) chi.Router {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	toolset, err := service.NewToolset(stubEmail{}, stubCalendar{}, stubCRM{})
	if err != nil {
		t.Fatalf("toolset: %v", err)
	}
	agentSvc := service.NewAgentService(store, stubPlanner{}, toolset, nil, nil, log)
	taskSvc := service.NewTaskService(store, nil, log)
	insSvc := service.NewInstructionService(store, log)
	proactiveSvc := service.NewProactiveService(store, taskSvc, agentSvc, log)

	h := &Handlers{
		Tasks:        taskSvc,
		Instructions: insSvc,
		Agent:        agentSvc,
		Proactive:    proactiveSvc,
		Logger:       log,
	}

	r := chi.NewRouter()
	MountRoutes(r, h, config.Webhook{
		GmailSecret:   testWebhookSecret,
		HubSpotSecret: testWebhookSecret,
	})
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Owner-ID", "owner-1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetTask(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(t, store)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/tasks",
		`{"description":"Schedule an appointment with Selina Jones"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != task.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/tasks/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	rec := doRequest(t, r, http.MethodPost, "/api/v1/tasks", `{"description":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	rec := doRequest(t, r, http.MethodGet, "/api/v1/tasks/nonexistent", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListTasksEmptyArray(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	rec := doRequest(t, r, http.MethodGet, "/api/v1/tasks", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProcessTaskEndpoint(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(t, store)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/tasks",
		`{"description":"Find the contact details for Acme"}`, nil)
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(t, r, http.MethodPost, "/api/v1/tasks/"+created.ID+"/process", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var processed task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &processed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !processed.Status.IsResolved() {
		t.Fatalf("expected a resolved status, got %s", processed.Status)
	}
}

func TestInstructionLifecycle(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	rec := doRequest(t, r, http.MethodPost, "/api/v1/instructions",
		`{"text":"Always CC the assistant"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var ins instruction.Instruction
	_ = json.Unmarshal(rec.Body.Bytes(), &ins)

	rec = doRequest(t, r, http.MethodPost, "/api/v1/instructions/"+ins.ID+"/toggle",
		`{"active":false}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/instructions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func signWebhook(body string) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookIgnoredWithoutOwner(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	body := `{"event_type":"gmail_notification","data":{}}`
	rec := doRequest(t, r, http.MethodPost, "/api/v1/webhooks/gmail", body,
		map[string]string{"X-Goog-Signature": signWebhook(body)})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ignored"`) {
		t.Fatalf("expected ignored status, got %s", rec.Body.String())
	}
}

func TestWebhookProcessedWithActiveInstruction(t *testing.T) {
	store := newStubStore()
	store.instructions = []*instruction.Instruction{
		{ID: "i1", OwnerID: "owner-1", Text: "Follow up on new emails", Active: true},
	}
	r := newTestRouter(t, store)

	body := `{"user_id":"owner-1","data":{"message_id":"m-1"}}`
	rec := doRequest(t, r, http.MethodPost, "/api/v1/webhooks/gmail", body,
		map[string]string{"X-Goog-Signature": signWebhook(body)})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"processed"`) {
		t.Fatalf("expected processed status, got %s", rec.Body.String())
	}
	if len(store.tasks) != 1 {
		t.Fatalf("expected one synthesized task, got %d", len(store.tasks))
	}
	for _, tk := range store.tasks {
		if tk.Context["trigger"] != "proactive_check" {
			t.Fatalf("missing proactive marker: %#v", tk.Context)
		}
		if tk.Description != "Evaluate proactive action for gmail_notification event" {
			t.Fatalf("unexpected description: %q", tk.Description)
		}
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := newTestRouter(t, newStubStore())

	body := `{"user_id":"owner-1"}`
	rec := doRequest(t, r, http.MethodPost, "/api/v1/webhooks/gmail", body,
		map[string]string{"X-Goog-Signature": "deadbeef"})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
