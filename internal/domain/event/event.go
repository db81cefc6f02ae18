// Package event defines inbound webhook events.
package event

import "github.com/google/uuid"

// Event is one inbound webhook delivery after source verification. Type is
// the source-reported event kind ("email_received", "meeting_updated", ...)
// and Payload is carried opaque to the evaluator.
type Event struct {
	DeliveryID string         `json:"delivery_id"`
	OwnerID    string         `json:"owner_id"`
	Source     string         `json:"source"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// New builds an event with a fresh delivery ID.
func New(ownerID, source, typ string, payload map[string]any) Event {
	return Event{
		DeliveryID: uuid.NewString(),
		OwnerID:    ownerID,
		Source:     source,
		Type:       typ,
		Payload:    payload,
	}
}
