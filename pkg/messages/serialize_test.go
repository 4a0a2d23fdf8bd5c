package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	capturedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := ServerSnapshot{
		SessionID:  "session",
		Frame:      42,
		State:      []byte{0x28, 0xb5, 0x2f, 0xfd},
		CapturedAt: capturedAt,
	}
	m, err := NewMessage(MessageTypeServerSnapshot, snapshot)
	require.NoError(t, err)

	b, err := SerializeMessage(m)
	require.NoError(t, err)

	got, err := DeserializeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeServerSnapshot, got.Type)

	var payload ServerSnapshot
	require.NoError(t, DecodePayload(got, &payload))
	assert.Equal(t, snapshot, payload)
}

func TestDeserializeMessage_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not compressed", data: []byte(`{"type":"status"}`)},
		{name: "empty", data: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeMessage(tt.data)
			assert.Error(t, err)
		})
	}

	b, err := SerializeMessage(&Message{Payload: []byte(`{}`)})
	require.NoError(t, err)
	_, err = DeserializeMessage(b)
	assert.Error(t, err)
}

func TestDecodePayload_Invalid(t *testing.T) {
	var payload ServerStatus
	assert.Error(t, DecodePayload(&Message{Type: MessageTypeServerStatus, Payload: []byte(`[`)}, &payload))
}
