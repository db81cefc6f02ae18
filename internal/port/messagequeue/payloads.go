package messagequeue

// TaskCreatedPayload is the schema for tasks.created messages.
type TaskCreatedPayload struct {
	TaskID  string `json:"task_id"`
	OwnerID string `json:"owner_id"`
}

// EventReceivedPayload is the schema for events.received messages.
type EventReceivedPayload struct {
	DeliveryID string         `json:"delivery_id"`
	OwnerID    string         `json:"owner_id"`
	Source     string         `json:"source"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// SyncRequestedPayload is the schema for sync.requested messages.
type SyncRequestedPayload struct {
	OwnerID string `json:"owner_id"`
	Target  string `json:"target"` // "messages" | "contacts" | "all"
}
