package amqp

import (
	"encoding/json"
	"time"
)

// Subscription change events.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// SubscriptionChangedMessage announces a write to a subscription. It carries
// enough to identify the record; consumers read the rest from the API.
type SubscriptionChangedMessage struct {
	Event     string    `json:"event"`
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSubscriptionChangedMessage stamps a change event with the current time.
func NewSubscriptionChangedMessage(event, id, name string) *SubscriptionChangedMessage {
	return &SubscriptionChangedMessage{
		Event:     event,
		ID:        id,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SubscriptionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SubscriptionChangedMessageFromJSON decodes a change event.
func SubscriptionChangedMessageFromJSON(data []byte) (*SubscriptionChangedMessage, error) {
	var msg SubscriptionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
