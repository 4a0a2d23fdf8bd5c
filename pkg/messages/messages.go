package messages

import (
	"encoding/json"
	"time"
)

// Message types
const (
	// MessageTypeServerSnapshot carries the simulation state at a pause.
	MessageTypeServerSnapshot = "snapshot"
	// MessageTypeServerStatus carries the playback status.
	MessageTypeServerStatus = "status"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerSnapshot is sent to companions every time the simulation pauses.
type ServerSnapshot struct {
	SessionID  string    `json:"sessionId"`
	Frame      uint64    `json:"frame"`
	State      []byte    `json:"state"`
	CapturedAt time.Time `json:"capturedAt"`
}

// ServerStatus mirrors the playback status for companions.
type ServerStatus struct {
	SessionID    string `json:"sessionId"`
	Frame        uint64 `json:"frame"`
	Playing      bool   `json:"playing"`
	TimeTraveled bool   `json:"timeTraveled"`
	Bulk         bool   `json:"bulk"`
}

// NewMessage marshals payload into a message of the given type.
func NewMessage(messageType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:    messageType,
		Payload: b,
	}, nil
}
