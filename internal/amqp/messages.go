package amqp

import (
	"encoding/json"
	"time"
)

// Operation names carried by sync messages.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// EntrySyncMessage is a lightweight notification that a consumption entry
// changed. It carries only the ID and operation; the worker fetches the full
// row from the database before mirroring it.
type EntrySyncMessage struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id, version int64) *EntrySyncMessage {
	op := OpCreated
	if version > 1 {
		op = OpUpdated
	}
	return &EntrySyncMessage{
		ID:        id,
		Op:        op,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewEntryDeleteMessage(id int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Op:        OpDeleted,
		Version:   1,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
