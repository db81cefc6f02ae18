package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/TaskForge/internal/domain/tool"
)

// EmailTools is the email adapter surface consumed by the orchestrator.
type EmailTools interface {
	SendEmail(ctx context.Context, ownerID string, args tool.SendEmailArgs) tool.Outcome
	SearchEmails(ctx context.Context, ownerID string, args tool.SearchEmailsArgs) tool.Outcome
	FindContactFromArchive(ctx context.Context, ownerID string, args tool.FindContactArgs) tool.Outcome
}

// CalendarTools is the calendar adapter surface consumed by the orchestrator.
type CalendarTools interface {
	CreateEvent(ctx context.Context, ownerID string, args tool.CreateEventArgs) tool.Outcome
	SearchEvents(ctx context.Context, ownerID string, args tool.SearchCalendarArgs) tool.Outcome
}

// CRMTools is the CRM adapter surface consumed by the orchestrator.
type CRMTools interface {
	CreateContact(ctx context.Context, ownerID string, args tool.CreateContactArgs) tool.Outcome
	SearchContacts(ctx context.Context, ownerID string, args tool.SearchContactsArgs) tool.Outcome
	AddNote(ctx context.Context, ownerID string, args tool.AddNoteArgs) tool.Outcome
}

type toolFunc func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error)

// Toolset routes validated tool invocations to their adapters. A non-nil
// error from Execute means the proposal was rejected before any side
// effect; adapter failures arrive as failed outcomes with a nil error.
type Toolset struct {
	dispatch map[tool.Name]toolFunc
}

// NewToolset builds the dispatch table and verifies it covers the whole
// catalog, so a tool added to one but not the other fails at startup.
func NewToolset(email EmailTools, cal CalendarTools, crm CRMTools) (*Toolset, error) {
	dispatch := map[tool.Name]toolFunc{
		tool.SendEmail: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeSendEmail(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return email.SendEmail(ctx, ownerID, a), nil
		},
		tool.SearchEmails: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeSearchEmails(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return email.SearchEmails(ctx, ownerID, a), nil
		},
		tool.FindContactFromArchive: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeFindContact(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return email.FindContactFromArchive(ctx, ownerID, a), nil
		},
		tool.CreateCalendarEvent: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeCreateEvent(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return cal.CreateEvent(ctx, ownerID, a), nil
		},
		tool.SearchCalendar: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeSearchCalendar(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return cal.SearchEvents(ctx, ownerID, a), nil
		},
		tool.CreateContact: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeCreateContact(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return crm.CreateContact(ctx, ownerID, a), nil
		},
		tool.SearchContacts: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeSearchContacts(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return crm.SearchContacts(ctx, ownerID, a), nil
		},
		tool.AddNote: func(ctx context.Context, ownerID string, args map[string]any) (tool.Outcome, error) {
			a, err := tool.DecodeAddNote(args)
			if err != nil {
				return tool.Outcome{}, err
			}
			return crm.AddNote(ctx, ownerID, a), nil
		},
	}

	for _, def := range tool.Catalog() {
		if _, ok := dispatch[def.Name]; !ok {
			return nil, fmt.Errorf("toolset: no dispatch entry for %s", def.Name)
		}
	}

	return &Toolset{dispatch: dispatch}, nil
}

// Execute validates and runs one proposed tool call. Unknown tool names
// and schema-invalid arguments are rejected without executing anything.
func (ts *Toolset) Execute(ctx context.Context, ownerID, name string, args map[string]any) (tool.Outcome, error) {
	fn, ok := ts.dispatch[tool.Name(name)]
	if !ok {
		return tool.Outcome{}, fmt.Errorf("unknown tool %q", name)
	}
	return fn(ctx, ownerID, args)
}
