package workers

import (
	"context"

	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/repositories"
	"github.com/cbodonnell/rewind/pkg/repositories/models"
)

// DefaultSnapshotChannelSize is the number of pause snapshots that can wait
// for the archive before new ones are dropped.
const DefaultSnapshotChannelSize = 64

type SaveSnapshotWorker struct {
	repository   repositories.Repository
	snapshotChan <-chan playback.Snapshot
}

type NewSaveSnapshotWorkerOptions struct {
	Repository   repositories.Repository
	SnapshotChan <-chan playback.Snapshot
}

// NewSaveSnapshotWorker creates a new SaveSnapshotWorker.
// The worker archives the snapshots the controller sends on every pause.
func NewSaveSnapshotWorker(opts NewSaveSnapshotWorkerOptions) *SaveSnapshotWorker {
	return &SaveSnapshotWorker{
		repository:   opts.Repository,
		snapshotChan: opts.SnapshotChan,
	}
}

func (w *SaveSnapshotWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-w.snapshotChan:
			if !ok {
				return
			}
			w.saveSnapshot(ctx, snapshot)
		}
	}
}

func (w *SaveSnapshotWorker) saveSnapshot(ctx context.Context, snapshot playback.Snapshot) {
	err := w.repository.SaveSnapshot(ctx, &models.Snapshot{
		SessionID:  snapshot.SessionID,
		Frame:      snapshot.Frame,
		State:      snapshot.State,
		CapturedAt: snapshot.CapturedAt,
	})
	if err != nil {
		log.Error("Failed to save snapshot of frame %d: %v", snapshot.Frame, err)
		return
	}
	log.Debug("Saved snapshot of frame %d", snapshot.Frame)
}

// ChannelNotifier hands pause snapshots to a channel without ever blocking
// the simulation thread.
type ChannelNotifier chan playback.Snapshot

func (n ChannelNotifier) SendSnapshot(snapshot playback.Snapshot) {
	select {
	case n <- snapshot:
	default:
		log.Warn("Snapshot channel is full, dropping snapshot of frame %d", snapshot.Frame)
	}
}
