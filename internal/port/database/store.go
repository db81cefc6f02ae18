// Package database defines the persistence port.
package database

import (
	"context"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/calendar"
	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/domain/instruction"
	"github.com/Strob0t/TaskForge/internal/domain/mail"
	"github.com/Strob0t/TaskForge/internal/domain/task"
)

// ConnectedAccount is a stored external-provider connection for one owner.
// Token management itself lives behind the credentials port; the store only
// persists what the excluded OAuth layer wrote.
type ConnectedAccount struct {
	ID          string
	OwnerID     string
	Provider    string
	AccessToken string
	ExpiresAt   time.Time
}

// Store is the persistence interface for all mirrored and owned state.
// Implementations must return domain.ErrNotFound for missing entities.
type Store interface {
	// Tasks.
	CreateTask(ctx context.Context, t *task.Task) error
	GetTask(ctx context.Context, ownerID, id string) (*task.Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]*task.Task, error)
	// UpdateTaskProgress persists status, context and result together and
	// refreshes updated_at. It is the single write path during processing.
	UpdateTaskProgress(ctx context.Context, t *task.Task) error

	// Standing instructions.
	CreateInstruction(ctx context.Context, ins *instruction.Instruction) error
	ListInstructions(ctx context.Context, ownerID string) ([]*instruction.Instruction, error)
	ListActiveInstructions(ctx context.Context, ownerID string) ([]*instruction.Instruction, error)
	ToggleInstruction(ctx context.Context, ownerID, id string, active bool) error

	// Email archive mirror.
	UpsertMessage(ctx context.Context, m *mail.Message) (inserted bool, err error)
	SearchMessages(ctx context.Context, ownerID, query string, limit int) ([]*mail.Message, error)
	ListMessages(ctx context.Context, ownerID string, limit int) ([]*mail.Message, error)

	// CRM contact mirror.
	InsertContact(ctx context.Context, c *contact.Contact) error
	UpsertContact(ctx context.Context, c *contact.Contact) (inserted bool, err error)
	GetContactByEmail(ctx context.Context, ownerID, email string) (*contact.Contact, error)
	SearchContacts(ctx context.Context, ownerID, query string) ([]*contact.Contact, error)
	InsertNote(ctx context.Context, n *contact.Note) error

	// Calendar mirror.
	InsertEvent(ctx context.Context, e *calendar.Event) error
	SearchEvents(ctx context.Context, ownerID, query string, start, end time.Time) ([]*calendar.Event, error)

	// Connected accounts.
	GetConnectedAccount(ctx context.Context, ownerID, provider string) (*ConnectedAccount, error)

	Close()
}
