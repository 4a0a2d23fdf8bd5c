package state

import (
	"context"

	"github.com/cbodonnell/rewind/pkg/playback"
)

// StatusManager provides shared access to the latest playback status.
// Implementations must be thread-safe.
type StatusManager interface {
	// Get returns the last published status.
	Get(ctx context.Context) (playback.Status, error)
	// Set publishes a status.
	Set(ctx context.Context, status playback.Status) error
}
