package realtime

import (
	"encoding/json"
	"time"
)

// Topics and event types carried on the bus.
const (
	// MessagesTopic is the broad "row inserted" topic for messages.
	// Every new message in the system is published here; consumers filter.
	MessagesTopic = "messages:inserted"

	EventMessageCreated = "message.created"
)

// Event represents a message published to the bus.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// MessagePayload is the body of a message.created event.
type MessagePayload struct {
	ID              uint64 `json:"id"`
	Sender          string `json:"sender"`
	Receiver        string `json:"receiver"`
	Content         string `json:"content"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
}
