package events

import (
	"time"

	"github.com/conectapg/occurrence-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOccurrenceCreated       EventType = "occurrence_created"
	EventOccurrenceUpdated       EventType = "occurrence_updated"
	EventOccurrenceStatusChanged EventType = "occurrence_status_changed"
	EventOccurrenceDeleted       EventType = "occurrence_deleted"
	EventUserDeleted             EventType = "user_deleted"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventOccurrenceCreated,
	EventOccurrenceUpdated,
	EventOccurrenceStatusChanged,
	EventOccurrenceDeleted,
	EventUserDeleted,
}

// Event represents a domain event emitted by services after a successful write.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	OccurrenceID string      `json:"occurrence_id,omitempty"`
	UserID       string      `json:"user_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload,omitempty"`
}

// OccurrenceCreatedPayload payload.
type OccurrenceCreatedPayload struct {
	Title    string                  `json:"title"`
	Type     domain.OccurrenceType   `json:"type"`
	Status   domain.OccurrenceStatus `json:"status"`
	Location string                  `json:"location"`
}

// OccurrenceStatusChangedPayload payload.
type OccurrenceStatusChangedPayload struct {
	OldStatus domain.OccurrenceStatus `json:"old_status"`
	NewStatus domain.OccurrenceStatus `json:"new_status"`
}
