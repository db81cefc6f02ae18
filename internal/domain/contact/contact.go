// Package contact defines the mirrored CRM contact records and the
// candidate triple produced by the email-archive fallback scan.
package contact

import "time"

// Contact is a locally mirrored CRM contact. RemoteID is the CRM-side
// identifier and is the deduplication key during sync.
type Contact struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a free-text annotation attached to a mirrored contact.
type Note struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is one possible match from the archive fallback scan. Callers
// treat a candidate list as unordered.
type Candidate struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	LastContact time.Time `json:"last_contact"`
}

// FullName joins the first and last name, falling back to the email
// address when both are empty.
func (c Contact) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return c.Email
	}
}
