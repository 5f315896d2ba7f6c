package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage is a lightweight pointer to a notification row.
// The worker fetches the full record from the database, so a stale or
// replayed message never delivers outdated text.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationMessage(id string) *NotificationMessage {
	return &NotificationMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
