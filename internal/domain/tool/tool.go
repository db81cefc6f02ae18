// Package tool defines the closed tool capability set: the schema catalog
// exported to the planner, the typed argument structs each adapter consumes,
// and the invocation/outcome records that make up a task's execution trace.
package tool

import "encoding/json"

// Name identifies one tool in the capability set.
type Name string

// The capability set is closed: adding a tool requires extending the catalog
// and the orchestrator's dispatch table together. The dispatch table is
// checked against the catalog at startup.
const (
	SendEmail              Name = "send_email"
	SearchEmails           Name = "search_emails"
	CreateCalendarEvent    Name = "create_calendar_event"
	SearchCalendar         Name = "search_calendar"
	CreateContact          Name = "create_contact"
	SearchContacts         Name = "search_contacts"
	AddNote                Name = "add_note"
	FindContactFromArchive Name = "find_contact_from_archive"
)

// Definition describes one tool to the planner: its wire name and a JSON
// schema for its arguments, in the shape the completion API expects.
type Definition struct {
	Name        Name           `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Outcome is the uniform result of one adapter call. Adapters never raise
// faults across this boundary; every failure is folded into Success=false.
type Outcome struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Invocation records one adapter call that actually ran. Rejected planner
// proposals are never recorded as invocations.
type Invocation struct {
	Tool      Name           `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Outcome   Outcome        `json:"outcome"`
}

// RejectedProposal records a planner proposal dropped before execution,
// kept in the trace for debuggability.
type RejectedProposal struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"arguments,omitempty"`
	Reason string         `json:"reason"`
}

// OK returns a successful outcome with the given payload.
func OK(payload map[string]any) Outcome {
	return Outcome{Success: true, Payload: payload}
}

// Fail returns a failed outcome carrying the error message.
func Fail(msg string) Outcome {
	return Outcome{Success: false, Error: msg}
}

// Catalog returns the full tool schema catalog in planner order.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        SendEmail,
			Description: "Send an email to someone",
			Parameters: objectSchema(map[string]any{
				"to":      prop("string", "Email address to send to"),
				"subject": prop("string", "Email subject"),
				"body":    prop("string", "Email body content"),
			}, "to", "subject", "body"),
		},
		{
			Name:        SearchEmails,
			Description: "Search through the owner's archived emails",
			Parameters: objectSchema(map[string]any{
				"query": prop("string", "Search query"),
				"limit": prop("integer", "Max results"),
			}, "query"),
		},
		{
			Name:        CreateCalendarEvent,
			Description: "Create a calendar event",
			Parameters: objectSchema(map[string]any{
				"title":      prop("string", "Event title"),
				"start_time": prop("string", "Start time (ISO format)"),
				"end_time":   prop("string", "End time (ISO format)"),
				"attendees": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "List of attendee emails",
				},
			}, "title", "start_time", "end_time"),
		},
		{
			Name:        SearchCalendar,
			Description: "Search calendar events",
			Parameters: objectSchema(map[string]any{
				"query":      prop("string", "Search query"),
				"start_date": prop("string", "Start date (ISO format)"),
				"end_date":   prop("string", "End date (ISO format)"),
			}, "query"),
		},
		{
			Name:        CreateContact,
			Description: "Create a contact in the CRM",
			Parameters: objectSchema(map[string]any{
				"email":      prop("string", "Contact email"),
				"first_name": prop("string", "First name"),
				"last_name":  prop("string", "Last name"),
				"company":    prop("string", "Company name"),
				"note":       prop("string", "Note about the contact"),
			}, "email"),
		},
		{
			Name:        SearchContacts,
			Description: "Search CRM contacts by name or email",
			Parameters: objectSchema(map[string]any{
				"query": prop("string", "Search query (name or email)"),
			}, "query"),
		},
		{
			Name:        AddNote,
			Description: "Add a note to an existing CRM contact",
			Parameters: objectSchema(map[string]any{
				"contact_email": prop("string", "Contact email"),
				"note":          prop("string", "Note content"),
			}, "contact_email", "note"),
		},
		{
			Name:        FindContactFromArchive,
			Description: "Find contact information in the email archive when the CRM is not available",
			Parameters: objectSchema(map[string]any{
				"name": prop("string", "Person's name to search for"),
			}, "name"),
		},
	}
}

// Known reports whether name is part of the capability set.
func Known(name Name) bool {
	for _, d := range Catalog() {
		if d.Name == name {
			return true
		}
	}
	return false
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

// MarshalParameters serializes a definition's parameter schema, used by
// planner clients that need raw JSON.
func (d Definition) MarshalParameters() (json.RawMessage, error) {
	return json.Marshal(d.Parameters)
}
