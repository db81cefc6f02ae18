// Package calendar defines the locally mirrored calendar event.
package calendar

import "time"

// Event is one mirrored calendar entry. RemoteID is set when the event was
// created remotely or pulled in by sync.
type Event struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Attendees []string  `json:"attendees,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
