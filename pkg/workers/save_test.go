package workers

import (
	"context"
	"testing"
	"time"

	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSnapshotWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repository, err := repositories.NewSQLiteRepository(ctx, ":memory:")
	require.NoError(t, err)
	defer repository.Close(context.Background())

	notifier := make(ChannelNotifier, DefaultSnapshotChannelSize)
	worker := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{
		Repository:   repository,
		SnapshotChan: notifier,
	})
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	notifier.SendSnapshot(playback.Snapshot{SessionID: "session", Frame: 3, State: []byte("a"), CapturedAt: time.Now()})
	notifier.SendSnapshot(playback.Snapshot{SessionID: "session", Frame: 8, State: []byte("b"), CapturedAt: time.Now()})

	require.Eventually(t, func() bool {
		latest, err := repository.LatestSnapshot(ctx, "session")
		return err == nil && latest.Frame == 8
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestSaveSnapshotWorker_StopsWhenChannelCloses(t *testing.T) {
	ch := make(chan playback.Snapshot)
	worker := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{
		SnapshotChan: ch,
	})
	done := make(chan struct{})
	go func() {
		worker.Start(context.Background())
		close(done)
	}()
	close(ch)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestChannelNotifier_DropsWhenFull(t *testing.T) {
	notifier := make(ChannelNotifier, 1)
	notifier.SendSnapshot(playback.Snapshot{Frame: 1})
	notifier.SendSnapshot(playback.Snapshot{Frame: 2})

	require.Len(t, notifier, 1)
	assert.Equal(t, uint64(1), (<-notifier).Frame)
}
