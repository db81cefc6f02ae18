// Package mail defines the locally archived email mirror used by the
// search and fallback tools.
package mail

import (
	"strings"
	"time"
)

// Message is one archived email. RemoteID is the provider-side message ID
// and is the deduplication key during sync.
type Message struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	RemoteID  string    `json:"remote_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Snippet   string    `json:"snippet,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// ParseSender splits a sender header of the form "Display Name <addr>" into
// its parts. A bare address yields an empty name. Whitespace and surrounding
// quotes on the display name are trimmed.
func ParseSender(sender string) (name, email string) {
	sender = strings.TrimSpace(sender)
	open := strings.LastIndexByte(sender, '<')
	close := strings.LastIndexByte(sender, '>')
	if open == -1 || close == -1 || close < open {
		return "", sender
	}
	email = strings.TrimSpace(sender[open+1 : close])
	name = strings.Trim(strings.TrimSpace(sender[:open]), `"`)
	return name, email
}
