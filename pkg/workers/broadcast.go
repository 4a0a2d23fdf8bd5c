package workers

import (
	"context"
	"errors"
	"time"

	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/messages"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/state"
)

type Broadcaster interface {
	Broadcast(msg *messages.Message)
}

// BroadcastStatusWorker forwards changes of the published playback status
// to companions.
type BroadcastStatusWorker struct {
	broadcaster   Broadcaster
	statusManager state.StatusManager
	interval      time.Duration
	last          *playback.Status
}

type NewBroadcastStatusWorkerOptions struct {
	Broadcaster   Broadcaster
	StatusManager state.StatusManager
	Interval      time.Duration
}

func NewBroadcastStatusWorker(opts NewBroadcastStatusWorkerOptions) *BroadcastStatusWorker {
	return &BroadcastStatusWorker{
		broadcaster:   opts.Broadcaster,
		statusManager: opts.StatusManager,
		interval:      opts.Interval,
	}
}

func (w *BroadcastStatusWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.broadcastStatus(ctx)
		}
	}
}

func (w *BroadcastStatusWorker) broadcastStatus(ctx context.Context) {
	status, err := w.statusManager.Get(ctx)
	if err != nil {
		if !errors.Is(err, state.ErrNoStatus) {
			log.Error("Failed to get current status: %v", err)
		}
		return
	}
	if w.last != nil && *w.last == status {
		return
	}

	msg, err := messages.NewMessage(messages.MessageTypeServerStatus, &messages.ServerStatus{
		SessionID:    status.SessionID,
		Frame:        status.Frame,
		Playing:      status.Playing,
		TimeTraveled: status.TimeTraveled,
		Bulk:         status.Bulk,
	})
	if err != nil {
		log.Error("Failed to create status message: %v", err)
		return
	}
	w.broadcaster.Broadcast(msg)
	w.last = &status
}
