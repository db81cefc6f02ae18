package tool

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/TaskForge/internal/domain"
)

// Argument decoding turns an untrusted planner-proposed map into a typed
// struct. Unknown keys are tolerated; missing required fields fail with
// domain.ErrValidation so the proposal can be rejected without executing.

// SendEmailArgs are the arguments for send_email.
type SendEmailArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SearchEmailsArgs are the arguments for search_emails. Limit defaults to 10.
type SearchEmailsArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// CreateEventArgs are the arguments for create_calendar_event. Times are
// ISO-8601 strings passed through to the calendar adapter.
type CreateEventArgs struct {
	Title     string   `json:"title"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Attendees []string `json:"attendees"`
}

// SearchCalendarArgs are the arguments for search_calendar.
type SearchCalendarArgs struct {
	Query     string `json:"query"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CreateContactArgs are the arguments for create_contact.
type CreateContactArgs struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Note      string `json:"note"`
}

// SearchContactsArgs are the arguments for search_contacts.
type SearchContactsArgs struct {
	Query string `json:"query"`
}

// AddNoteArgs are the arguments for add_note.
type AddNoteArgs struct {
	ContactEmail string `json:"contact_email"`
	Note         string `json:"note"`
}

// FindContactArgs are the arguments for find_contact_from_archive.
type FindContactArgs struct {
	Name string `json:"name"`
}

func decode[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("marshal arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return out, nil
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: missing required field %q", domain.ErrValidation, field)
	}
	return nil
}

// DecodeSendEmail validates and types send_email arguments.
func DecodeSendEmail(args map[string]any) (SendEmailArgs, error) {
	a, err := decode[SendEmailArgs](args)
	if err != nil {
		return a, err
	}
	for field, v := range map[string]string{"to": a.To, "subject": a.Subject, "body": a.Body} {
		if err := required(field, v); err != nil {
			return a, err
		}
	}
	return a, nil
}

// DecodeSearchEmails validates and types search_emails arguments.
func DecodeSearchEmails(args map[string]any) (SearchEmailsArgs, error) {
	a, err := decode[SearchEmailsArgs](args)
	if err != nil {
		return a, err
	}
	if err := required("query", a.Query); err != nil {
		return a, err
	}
	if a.Limit <= 0 {
		a.Limit = 10
	}
	return a, nil
}

// DecodeCreateEvent validates and types create_calendar_event arguments.
func DecodeCreateEvent(args map[string]any) (CreateEventArgs, error) {
	a, err := decode[CreateEventArgs](args)
	if err != nil {
		return a, err
	}
	for field, v := range map[string]string{"title": a.Title, "start_time": a.StartTime, "end_time": a.EndTime} {
		if err := required(field, v); err != nil {
			return a, err
		}
	}
	return a, nil
}

// DecodeSearchCalendar validates and types search_calendar arguments.
func DecodeSearchCalendar(args map[string]any) (SearchCalendarArgs, error) {
	a, err := decode[SearchCalendarArgs](args)
	if err != nil {
		return a, err
	}
	if err := required("query", a.Query); err != nil {
		return a, err
	}
	return a, nil
}

// DecodeCreateContact validates and types create_contact arguments.
func DecodeCreateContact(args map[string]any) (CreateContactArgs, error) {
	a, err := decode[CreateContactArgs](args)
	if err != nil {
		return a, err
	}
	if err := required("email", a.Email); err != nil {
		return a, err
	}
	return a, nil
}

// DecodeSearchContacts validates and types search_contacts arguments.
func DecodeSearchContacts(args map[string]any) (SearchContactsArgs, error) {
	a, err := decode[SearchContactsArgs](args)
	if err != nil {
		return a, err
	}
	if err := required("query", a.Query); err != nil {
		return a, err
	}
	return a, nil
}

// DecodeAddNote validates and types add_note arguments.
func DecodeAddNote(args map[string]any) (AddNoteArgs, error) {
	a, err := decode[AddNoteArgs](args)
	if err != nil {
		return a, err
	}
	for field, v := range map[string]string{"contact_email": a.ContactEmail, "note": a.Note} {
		if err := required(field, v); err != nil {
			return a, err
		}
	}
	return a, nil
}

// DecodeFindContact validates and types find_contact_from_archive arguments.
func DecodeFindContact(args map[string]any) (FindContactArgs, error) {
	a, err := decode[FindContactArgs](args)
	if err != nil {
		return a, err
	}
	if err := required("name", a.Name); err != nil {
		return a, err
	}
	return a, nil
}
