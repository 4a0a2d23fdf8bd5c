package network

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/messages"
	"github.com/cbodonnell/rewind/pkg/playback"
	"nhooyr.io/websocket"
)

const (
	// CompanionIDMaxRetries represents the maximum number of retries when generating a unique ID
	CompanionIDMaxRetries = 1024
	// CompanionSendBufferSize is the number of messages queued per companion before new ones are dropped
	CompanionSendBufferSize = 16
	// CompanionWriteTimeout bounds a single websocket write
	CompanionWriteTimeout = 5 * time.Second
)

// Companion is a process following the simulation over a websocket.
type Companion struct {
	ID   uint32
	conn *websocket.Conn
	send chan []byte
}

// CompanionHub fans pause snapshots out to connected companions. It
// implements playback.Notifier and never blocks the caller: each companion
// has its own writer goroutine and a bounded send buffer.
type CompanionHub struct {
	companions     map[uint32]*Companion
	companionsLock sync.RWMutex
	logger         *log.Logger
}

func NewCompanionHub(logger *log.Logger) *CompanionHub {
	if logger == nil {
		logger = log.Default()
	}
	return &CompanionHub{
		companions: make(map[uint32]*Companion),
		logger:     logger,
	}
}

// Count returns the number of connected companions.
func (h *CompanionHub) Count() int {
	h.companionsLock.RLock()
	defer h.companionsLock.RUnlock()
	return len(h.companions)
}

// ServeHTTP upgrades the request and keeps the companion connected until
// either side closes.
func (h *CompanionHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("Failed to accept companion connection: %v", err)
		return
	}
	defer conn.CloseNow()

	companion, err := h.connect(conn)
	if err != nil {
		h.logger.Error("Failed to connect companion: %v", err)
		conn.Close(websocket.StatusInternalError, "failed to connect")
		return
	}
	defer h.disconnect(companion.ID)
	h.logger.Info("Companion %d connected", companion.ID)

	// companions only listen; CloseRead handles control frames and cancels
	// ctx once the peer goes away
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Companion %d disconnected", companion.ID)
			return
		case b := <-companion.send:
			if err := writeWithTimeout(ctx, conn, b); err != nil {
				h.logger.Warn("Failed to write to companion %d: %v", companion.ID, err)
				return
			}
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, b []byte) error {
	ctx, cancel := context.WithTimeout(ctx, CompanionWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, b)
}

// SendSnapshot broadcasts snapshot to every connected companion.
func (h *CompanionHub) SendSnapshot(snapshot playback.Snapshot) {
	msg, err := messages.NewMessage(messages.MessageTypeServerSnapshot, &messages.ServerSnapshot{
		SessionID:  snapshot.SessionID,
		Frame:      snapshot.Frame,
		State:      snapshot.State,
		CapturedAt: snapshot.CapturedAt,
	})
	if err != nil {
		h.logger.Error("Failed to create snapshot message: %v", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every connected companion. Companions whose
// buffer is full miss the message.
func (h *CompanionHub) Broadcast(msg *messages.Message) {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		h.logger.Error("Failed to serialize %s message: %v", msg.Type, err)
		return
	}

	h.companionsLock.RLock()
	defer h.companionsLock.RUnlock()
	for _, companion := range h.companions {
		select {
		case companion.send <- b:
		default:
			h.logger.Warn("Companion %d is not keeping up, dropping %s message", companion.ID, msg.Type)
		}
	}
}

func (h *CompanionHub) connect(conn *websocket.Conn) (*Companion, error) {
	h.companionsLock.Lock()
	defer h.companionsLock.Unlock()

	id, err := h.generateUniqueID(CompanionIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	companion := &Companion{
		ID:   id,
		conn: conn,
		send: make(chan []byte, CompanionSendBufferSize),
	}
	h.companions[id] = companion
	return companion, nil
}

func (h *CompanionHub) disconnect(id uint32) {
	h.companionsLock.Lock()
	defer h.companionsLock.Unlock()
	delete(h.companions, id)
}

// generateUniqueID generates a unique companion ID with a maximum number of retries
// it reads from the companions, so it needs to be locked before calling
func (h *CompanionHub) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := h.companions[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
