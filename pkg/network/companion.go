package network

import (
	"context"
	"fmt"

	"github.com/cbodonnell/rewind/pkg/messages"
	"nhooyr.io/websocket"
)

// CompanionClient is the companion side of a hub connection.
type CompanionClient struct {
	conn *websocket.Conn
}

// DialCompanion connects to the hub at url (ws:// or wss://).
func DialCompanion(ctx context.Context, url string) (*CompanionClient, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %v", url, err)
	}
	conn.SetReadLimit(-1)
	return &CompanionClient{conn: conn}, nil
}

// ReadMessage blocks until the hub sends the next message.
func (c *CompanionClient) ReadMessage(ctx context.Context) (*messages.Message, error) {
	messageType, b, err := c.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	if messageType != websocket.MessageBinary {
		return nil, fmt.Errorf("unexpected message type: %v", messageType)
	}
	return messages.DeserializeMessage(b)
}

// ReadSnapshot reads messages until a snapshot arrives.
func (c *CompanionClient) ReadSnapshot(ctx context.Context) (*messages.ServerSnapshot, error) {
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Type != messages.MessageTypeServerSnapshot {
			continue
		}
		snapshot := &messages.ServerSnapshot{}
		if err := messages.DecodePayload(msg, snapshot); err != nil {
			return nil, err
		}
		return snapshot, nil
	}
}

func (c *CompanionClient) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
