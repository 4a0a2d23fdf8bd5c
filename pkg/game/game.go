package game

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/queue"
	"github.com/cbodonnell/rewind/pkg/session"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/cbodonnell/rewind/pkg/state"
)

// GameManager owns the simulation thread. Every step of the driver and
// every controller operation happens inside its loop.
type GameManager struct {
	driver           playback.Driver
	registry         *session.Registry
	commandQueue     queue.Queue
	statusManager    state.StatusManager
	gameLoopInterval time.Duration
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Driver           playback.Driver
	Registry         *session.Registry
	CommandQueue     queue.Queue
	StatusManager    state.StatusManager
	GameLoopInterval time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	return &GameManager{
		driver:           opts.Driver,
		registry:         opts.Registry,
		commandQueue:     opts.CommandQueue,
		statusManager:    opts.StatusManager,
		gameLoopInterval: opts.GameLoopInterval,
	}
}

// Start runs the game loop until ctx is done.
func (gm *GameManager) Start(ctx context.Context) error {
	if gm.gameLoopInterval <= 0 {
		return fmt.Errorf("invalid game loop interval: %s", gm.gameLoopInterval)
	}

	// the loop needs an attached session before it can run commands
	s, err := gm.registry.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for session: %w", err)
	}
	log.Info("Running session %s every %s", s.ID(), gm.gameLoopInterval)

	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			err := gm.gameTick(ctx, t)
			if err != nil {
				log.Error("Failed to run game tick: %v", err)
			}
		}
	}
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, _ time.Time) error {
	gm.processCommands()

	if !gm.driver.IsPaused() {
		if err := gm.driver.Step(0, sim.StepOptions{}); err != nil {
			gm.haltAfterFailure()
			return fmt.Errorf("failed to step: %w", err)
		}
	}

	return gm.publishStatus(ctx)
}

// processCommands executes all pending operator commands in the order they
// were queued.
func (gm *GameManager) processCommands() {
	pendingCommands, err := gm.commandQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read commands: %v", err)
		return
	}
	for _, item := range pendingCommands {
		request, ok := item.(*CommandRequest)
		if !ok {
			log.Error("Unhandled command type: %T", item)
			continue
		}

		err := gm.execute(request.Command)
		if err != nil {
			log.Warn("Command %s failed: %v", request.Command, err)
		}
		request.reply(err)
	}
}

func (gm *GameManager) execute(cmd playback.Command) error {
	s, err := gm.registry.Current()
	if err != nil {
		return err
	}
	return s.Controller().Execute(cmd)
}

// haltAfterFailure pauses a failing simulation so it can be inspected and
// stepped back.
func (gm *GameManager) haltAfterFailure() {
	s, err := gm.registry.Current()
	if err != nil {
		gm.driver.Pause()
		return
	}
	if err := s.Controller().Pause(); err != nil {
		log.Error("Failed to pause after a failed step: %v", err)
	}
}

func (gm *GameManager) publishStatus(ctx context.Context) error {
	s, err := gm.registry.Current()
	if err != nil {
		return nil
	}
	if err := gm.statusManager.Set(ctx, s.Controller().Status()); err != nil {
		return fmt.Errorf("failed to publish status: %v", err)
	}
	return nil
}
