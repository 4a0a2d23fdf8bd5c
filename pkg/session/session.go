// Package session ties one attached simulation to its frame history,
// codec and playback controller.
package session

import (
	"fmt"

	"github.com/cbodonnell/rewind/pkg/codec"
	"github.com/cbodonnell/rewind/pkg/history"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/google/uuid"
)

type Options struct {
	// Codec defaults to a zstd compressed snapshot codec.
	Codec    codec.Codec
	Notifier playback.Notifier
	Bulk     bool
	Logger   *log.Logger
}

// Session owns everything recorded for one attached simulation. Nothing
// is shared between sessions.
type Session struct {
	id         string
	store      *history.Store
	codec      codec.Codec
	controller *playback.Controller
}

// Attach starts a session for driver. The driver is paused and its current
// state becomes the reset target.
func Attach(driver playback.Driver, opts Options) (*Session, error) {
	c := opts.Codec
	if c == nil {
		snapshotCodec, err := codec.NewSnapshotCodec()
		if err != nil {
			return nil, fmt.Errorf("failed to create codec: %v", err)
		}
		c = snapshotCodec
	}

	id := uuid.NewString()
	store := history.NewStore()
	controller, err := playback.NewController(playback.Options{
		Driver:    driver,
		Codec:     c,
		Store:     store,
		Notifier:  opts.Notifier,
		Bulk:      opts.Bulk,
		SessionID: id,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}
	if err := controller.Attach(); err != nil {
		return nil, fmt.Errorf("failed to attach session %s: %w", id, err)
	}

	return &Session{
		id:         id,
		store:      store,
		codec:      c,
		controller: controller,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Controller() *playback.Controller {
	return s.controller
}

func (s *Session) Store() *history.Store {
	return s.store
}

func (s *Session) Codec() codec.Codec {
	return s.codec
}

// Detach stops recording and releases the history.
func (s *Session) Detach() error {
	return s.controller.Detach()
}
