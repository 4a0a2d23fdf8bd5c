package state

import (
	"context"
	"errors"
	"sync"

	"github.com/cbodonnell/rewind/pkg/playback"
)

var ErrNoStatus = errors.New("no status published")

type InMemoryStatusManager struct {
	lock      sync.RWMutex
	status    playback.Status
	published bool
}

func NewInMemoryStatusManager() *InMemoryStatusManager {
	return &InMemoryStatusManager{}
}

func (m *InMemoryStatusManager) Get(ctx context.Context) (playback.Status, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if !m.published {
		return playback.Status{}, ErrNoStatus
	}
	return m.status, nil
}

func (m *InMemoryStatusManager) Set(ctx context.Context, status playback.Status) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status = status
	m.published = true
	return nil
}
