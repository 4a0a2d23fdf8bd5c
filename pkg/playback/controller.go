// Package playback records every frame of an attached simulation and moves
// it backward and forward through that history.
package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/rewind/pkg/codec"
	"github.com/cbodonnell/rewind/pkg/history"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/replay"
	"github.com/cbodonnell/rewind/pkg/sim"
)

const (
	// JumpWindowFrames is how far a jump moves: 2.5 seconds at 60 steps per second.
	JumpWindowFrames = 150
	// DefaultDeltaTime is the delta in milliseconds used for live steps
	// taken by the controller.
	DefaultDeltaTime = 16.0
)

// Driver is the simulation the controller drives. Frame is the next frame
// to be processed.
type Driver interface {
	codec.Target
	Step(dt float64, opts sim.StepOptions) error
	Paint()
	Pause()
	Unpause()
	IsPaused() bool
	ResetStart()
	SetFrame(frame uint64)
	Clock() float64
	SetNow(now float64)
	Dt() float64
	InputSource() sim.InputSource
	SetInputSource(source sim.InputSource)
	AfterFrame(fn func()) func()
	InputBuffer() []byte
	ReceiveInputBuffer(b []byte) error
}

type State int

const (
	Paused State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Status is what outside observers can see of a controller.
type Status struct {
	SessionID string `json:"sessionId"`
	// Frame is the frame last processed.
	Frame        uint64 `json:"frame"`
	Playing      bool   `json:"playing"`
	TimeTraveled bool   `json:"timeTraveled"`
	Bulk         bool   `json:"bulk"`
	Cursor       int    `json:"cursor"`
	Records      int    `json:"records"`
}

type Options struct {
	Driver Driver
	Codec  codec.Codec
	// Store defaults to an empty store.
	Store *history.Store
	// Notifier receives a snapshot on every pause outside bulk mode.
	Notifier Notifier
	// Bulk disables history capture for simulations whose state is too
	// large to dump every frame.
	Bulk      bool
	SessionID string
	Logger    *log.Logger
}

// Controller is not safe for concurrent use. Every method must be called
// from the goroutine that steps the driver.
type Controller struct {
	driver       Driver
	codec        codec.Codec
	store        *history.Store
	notifier     Notifier
	bulk         bool
	sessionID    string
	logger       *log.Logger
	observed     uint64
	timeTraveled bool
	replaying    bool
	unsubscribe  func()
}

func NewController(opts Options) (*Controller, error) {
	if opts.Driver == nil {
		return nil, errors.New("driver is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("codec is required")
	}
	store := opts.Store
	if store == nil {
		store = history.NewStore()
	}
	var notifier Notifier = nopNotifier{}
	if opts.Notifier != nil {
		notifier = opts.Notifier
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.SessionID != "" {
		logger = logger.With("session", opts.SessionID)
	}

	return &Controller{
		driver:    opts.Driver,
		codec:     opts.Codec,
		store:     store,
		notifier:  notifier,
		bulk:      opts.Bulk,
		sessionID: opts.SessionID,
		logger:    logger,
	}, nil
}

// Attach pauses the driver, captures the reset target and starts recording
// every frame the driver processes.
func (c *Controller) Attach() error {
	if c.unsubscribe != nil {
		return ErrAttached
	}
	c.driver.Pause()

	if !c.bulk {
		state, err := c.codec.Dump(c.driver)
		if err != nil {
			return fmt.Errorf("failed to dump start state: %w", err)
		}
		c.store.SetStart(history.FrameRecord{
			Frame:  c.driver.Frame(),
			State:  state,
			Inputs: copyBytes(c.driver.InputBuffer()),
			Dt:     c.driver.Dt(),
		})
	}

	c.observed = c.driver.Frame()
	c.unsubscribe = c.driver.AfterFrame(c.onAfterFrame)
	c.logger.Debug("Attached at frame %d (bulk: %t)", c.observed, c.bulk)
	return nil
}

// Detach stops recording and drops the history.
func (c *Controller) Detach() error {
	if c.unsubscribe == nil {
		return ErrDetached
	}
	c.unsubscribe()
	c.unsubscribe = nil
	c.store.Reset()
	c.logger.Debug("Detached")
	return nil
}

func (c *Controller) onAfterFrame() {
	frame := c.driver.Frame()
	c.observed = frame
	if c.bulk {
		return
	}

	state, err := c.codec.Dump(c.driver)
	if err != nil {
		c.logger.Error("Failed to capture frame %d: %v", frame, err)
		return
	}
	c.store.Capture(frame, c.driver.Dt(), state, copyBytes(c.driver.InputBuffer()))
	if !c.replaying {
		// a live frame diverges from whatever was recorded after it
		c.store.TruncateAfterCursor()
	}
	c.logger.Trace("Captured frame %d at index %d", frame, c.store.Cursor())
}

func (c *Controller) State() State {
	if c.driver.IsPaused() {
		return Paused
	}
	return Playing
}

// Play resumes ticking. The time reference is reset so the first delta
// does not include the time spent paused.
func (c *Controller) Play() error {
	if c.State() != Paused {
		return ErrAlreadyPlaying
	}
	c.driver.SetNow(c.driver.Clock() - DefaultDeltaTime)
	c.driver.Unpause()
	c.logger.Debug("Playing from frame %d", c.observed)
	return nil
}

// Pause halts ticking and, outside bulk mode, notifies observers with the
// current snapshot. A failed snapshot dump is logged and the pause still
// takes effect.
func (c *Controller) Pause() error {
	if c.State() != Playing {
		return ErrNotPlaying
	}
	c.driver.Pause()
	c.logger.Debug("Paused at frame %d", c.observed)
	if c.bulk {
		return nil
	}

	state, err := c.codec.Dump(c.driver)
	if err != nil {
		c.logger.Error("Failed to dump pause snapshot at frame %d: %v", c.observed, err)
		return nil
	}
	c.notifier.SendSnapshot(Snapshot{
		SessionID:  c.sessionID,
		Frame:      c.observed,
		State:      state,
		CapturedAt: time.Now(),
	})
	return nil
}

func (c *Controller) TogglePlay() error {
	if c.State() == Playing {
		return c.Pause()
	}
	return c.Play()
}

func (c *Controller) pauseIfPlaying() error {
	if c.State() == Playing {
		return c.Pause()
	}
	return nil
}

// StepBack restores the record before the cursor. At the earliest record it
// resets instead.
func (c *Controller) StepBack() error {
	if c.bulk {
		return nil
	}
	if err := c.pauseIfPlaying(); err != nil {
		return err
	}

	cursor := c.store.Cursor()
	if cursor <= 0 {
		return c.Reset()
	}
	return c.restore(cursor - 1)
}

// StepForward replays the recorded frame the driver is about to process
// using the current logic, or steps live when nothing is recorded.
func (c *Controller) StepForward() error {
	if c.unsubscribe == nil {
		return ErrDetached
	}
	playing := c.State() == Playing

	var err error
	record, ok := c.store.Get(c.store.IndexOfFrame(c.driver.Frame()))
	if ok && !c.bulk {
		err = c.replayFrame(record)
		c.timeTraveled = true
	} else {
		err = c.driver.Step(DefaultDeltaTime, sim.StepOptions{})
	}
	if err != nil {
		c.logger.Error("Failed to step forward: %v", err)
		err = fmt.Errorf("failed to step forward: %w", err)
	}

	if playing {
		if pauseErr := c.Pause(); pauseErr != nil && err == nil {
			err = pauseErr
		}
	}
	return err
}

func (c *Controller) replayFrame(record history.FrameRecord) error {
	live := c.driver.InputSource()
	c.driver.SetInputSource(replay.NewSingleFrameSource(record.Inputs))
	defer c.driver.SetInputSource(live)
	return c.replayStep(record.Dt, sim.StepOptions{})
}

// replayStep steps without truncating the recorded future.
func (c *Controller) replayStep(dt float64, opts sim.StepOptions) error {
	c.replaying = true
	defer func() {
		c.replaying = false
	}()
	return c.driver.Step(dt, opts)
}

// JumpBack restores the record a jump window before the cursor. A jump that
// would reach the start lands on the first processed frame.
func (c *Controller) JumpBack() error {
	if c.bulk {
		return nil
	}
	if err := c.pauseIfPlaying(); err != nil {
		return err
	}

	target := c.store.Cursor() - JumpWindowFrames
	if target <= 0 {
		if err := c.Reset(); err != nil {
			return err
		}
		return c.StepForward()
	}
	return c.restore(target)
}

type stepResult struct {
	frame    uint64
	replayed bool
	err      error
}

// JumpForward steps up to a jump window headless, replaying recorded frames
// and stepping live past the end of history, then paints once.
func (c *Controller) JumpForward() error {
	if c.bulk {
		return nil
	}
	if err := c.pauseIfPlaying(); err != nil {
		return err
	}

	live := c.driver.InputSource()
	source := replay.NewSequentialSource(c.store, c.store.IndexOfFrame(c.driver.Frame()))
	c.driver.SetInputSource(source)
	defer c.driver.SetInputSource(live)

	results := make([]stepResult, 0, JumpWindowFrames)
	replaying := true
	for i := 0; i < JumpWindowFrames; i++ {
		result := stepResult{frame: c.driver.Frame()}
		if replaying && !source.Exhausted() {
			record, _ := source.Peek()
			result.err = c.replayStep(record.Dt, sim.StepOptions{Headless: true})
			result.replayed = true
		} else {
			if replaying {
				// history ran out, continue live
				replaying = false
				c.driver.SetInputSource(live)
			}
			// each live headless step advances one nominal frame
			result.err = c.driver.Step(DefaultDeltaTime, sim.StepOptions{Headless: true})
		}
		results = append(results, result)
		if result.err != nil {
			break
		}
	}
	c.driver.Paint()
	c.timeTraveled = true

	replayed := 0
	for _, result := range results {
		if result.replayed {
			replayed++
		}
	}
	last := results[len(results)-1]
	if last.err != nil {
		c.logger.Error("Jump forward stopped at frame %d after %d steps: %v", last.frame, len(results)-1, last.err)
		return fmt.Errorf("failed to jump forward: %w", last.err)
	}
	c.logger.Debug("Jumped forward %d frames (%d replayed)", len(results), replayed)
	return nil
}

// Reset restores the state captured at attach time. Start logic runs again
// on the next step.
func (c *Controller) Reset() error {
	if c.bulk {
		return nil
	}
	start, ok := c.store.Start()
	if !ok {
		return ErrDetached
	}
	if err := c.codec.Hydrate(c.driver, start.State); err != nil {
		c.logger.Error("Failed to reset: %v", err)
		return fmt.Errorf("failed to reset: %w", err)
	}
	c.driver.ResetStart()
	c.driver.SetFrame(0)
	c.store.SetCursor(0)
	c.observed = 0
	c.timeTraveled = true
	return nil
}

// ClearForward drops every record after the cursor.
func (c *Controller) ClearForward() {
	if c.bulk {
		return
	}
	c.store.TruncateAfterCursor()
}

func (c *Controller) restore(index int) error {
	record, ok := c.store.Get(index)
	if !ok {
		return fmt.Errorf("no record at index %d", index)
	}
	if err := c.codec.Hydrate(c.driver, record.State); err != nil {
		c.logger.Error("Failed to restore frame %d: %v", record.Frame, err)
		return fmt.Errorf("failed to restore frame %d: %w", record.Frame, err)
	}

	c.store.SetCursor(index)
	c.driver.Paint()
	if err := c.driver.ReceiveInputBuffer(record.Inputs); err != nil {
		c.logger.Warn("Failed to deliver inputs of frame %d: %v", record.Frame, err)
	}
	c.observed = record.Frame
	c.driver.SetFrame(record.Frame + 1)
	c.timeTraveled = true
	return nil
}

// Frame is the frame last processed.
func (c *Controller) Frame() uint64 {
	return c.observed
}

func (c *Controller) TimeTraveled() bool {
	return c.timeTraveled
}

func (c *Controller) Bulk() bool {
	return c.bulk
}

func (c *Controller) Store() *history.Store {
	return c.store
}

func (c *Controller) Status() Status {
	return Status{
		SessionID:    c.sessionID,
		Frame:        c.observed,
		Playing:      c.State() == Playing,
		TimeTraveled: c.timeTraveled,
		Bulk:         c.bulk,
		Cursor:       c.store.Cursor(),
		Records:      c.store.Len(),
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
