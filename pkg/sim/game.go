// Package sim is a small fixed-step simulation driver. A Game owns a root
// state value, runs its systems once per step and exposes the clock, input
// and hook primitives a playback controller needs to record and replay it.
package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultDeltaTime is used when a live step cannot derive a positive delta
// from the clock.
const DefaultDeltaTime = 1000.0 / 60.0

const (
	phaseStart  = "start"
	phaseUpdate = "update"
)

// Time holds the simulation clock. All values are in milliseconds.
type Time struct {
	// Now is the wall clock reading of the last step. It is a reference
	// for deriving the next delta and is not part of the snapshot.
	Now float64 `json:"-"`
	// Dt is the delta time of the last step.
	Dt float64 `json:"dt"`
	// Elapsed is the simulated time since the first frame.
	Elapsed float64 `json:"elapsed"`
}

type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Context is handed to every system alongside the state.
type Context struct {
	// Frame is the next frame to be processed.
	Frame   uint64 `json:"frame"`
	Time    Time   `json:"time"`
	Camera  Camera `json:"camera"`
	Started bool   `json:"started"`
	Inputs  Inputs `json:"-"`
}

// System is a unit of simulation logic. Start runs once before the first
// update (and again after ResetStart), Update runs every step.
type System[T any] struct {
	Start  func(state *T, ctx *Context) error
	Update func(state *T, ctx *Context) error
}

// Linker is implemented by state types that keep references which are not
// serialized. Link rebuilds them after the state has been decoded.
type Linker interface {
	Link() error
}

type StepOptions struct {
	// Headless skips painting the stepped frame.
	Headless bool
}

type Painter[T any] func(state *T, ctx *Context)

type Game[T any] struct {
	state   *T
	ctx     Context
	systems []System[T]
	paused  bool
	input   InputSource
	buffer  []byte
	after   Hook
	painter Painter[T]
	clock   func() float64
	paints  int
}

// NewGame creates a paused game at frame 0 that reads no input.
func NewGame[T any](state T, systems ...System[T]) *Game[T] {
	epoch := time.Now()
	return &Game[T]{
		state: &state,
		ctx: Context{
			Camera: Camera{Zoom: 1},
		},
		systems: systems,
		paused:  true,
		input:   NullInputSource{},
		clock: func() float64 {
			return float64(time.Since(epoch).Microseconds()) / 1000
		},
	}
}

// SetSystems replaces the simulation logic. The next step runs the new systems.
func (g *Game[T]) SetSystems(systems ...System[T]) {
	g.systems = systems
}

func (g *Game[T]) SetPainter(painter Painter[T]) {
	g.painter = painter
}

// SetClock replaces the millisecond wall clock used to derive live deltas.
func (g *Game[T]) SetClock(clock func() float64) {
	g.clock = clock
}

// State returns the current root state. Hydrating replaces the value, so
// callers should not hold on to the pointer across a hydrate.
func (g *Game[T]) State() *T {
	return g.state
}

func (g *Game[T]) Context() *Context {
	return &g.ctx
}

// Step processes one frame. A dt <= 0 derives the delta from the clock.
func (g *Game[T]) Step(dt float64, opts StepOptions) error {
	raw := g.input.ReadInput()
	inputs, err := DecodeInputs(raw)
	if err != nil {
		return fmt.Errorf("failed to read input for frame %d: %w", g.ctx.Frame, err)
	}
	g.buffer = append(g.buffer[:0], raw...)
	g.ctx.Inputs = inputs

	now := g.clock()
	if dt <= 0 {
		dt = now - g.ctx.Time.Now
		if dt <= 0 {
			dt = DefaultDeltaTime
		}
	}
	g.ctx.Time.Now = now
	g.ctx.Time.Dt = dt
	g.ctx.Time.Elapsed += dt

	if !g.ctx.Started {
		if err := g.run(phaseStart); err != nil {
			return err
		}
		g.ctx.Started = true
	}
	if err := g.run(phaseUpdate); err != nil {
		return err
	}

	if !opts.Headless {
		g.Paint()
	}
	g.after.Fire()
	g.ctx.Frame++
	return nil
}

func (g *Game[T]) run(phase string) error {
	for i, system := range g.systems {
		fn := system.Update
		if phase == phaseStart {
			fn = system.Start
		}
		if fn == nil {
			continue
		}
		if err := g.call(phase, i, fn); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game[T]) call(phase string, index int, fn func(*T, *Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &LogicError{Frame: g.ctx.Frame, Phase: phase, System: index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(g.state, &g.ctx); err != nil {
		return &LogicError{Frame: g.ctx.Frame, Phase: phase, System: index, Err: err}
	}
	return nil
}

// Paint renders the current state without advancing.
func (g *Game[T]) Paint() {
	g.paints++
	if g.painter != nil {
		g.painter(g.state, &g.ctx)
	}
}

// Paints returns how many times the game has painted.
func (g *Game[T]) Paints() int {
	return g.paints
}

func (g *Game[T]) Pause() { g.paused = true }
func (g *Game[T]) Unpause() { g.paused = false }
func (g *Game[T]) IsPaused() bool { return g.paused }

// ResetStart makes the start systems run again on the next step.
func (g *Game[T]) ResetStart() {
	g.ctx.Started = false
}

func (g *Game[T]) Frame() uint64 { return g.ctx.Frame }
func (g *Game[T]) SetFrame(frame uint64) { g.ctx.Frame = frame }
func (g *Game[T]) Clock() float64 { return g.clock() }
func (g *Game[T]) SetNow(now float64) { g.ctx.Time.Now = now }
func (g *Game[T]) Dt() float64 { return g.ctx.Time.Dt }
func (g *Game[T]) InputSource() InputSource { return g.input }
func (g *Game[T]) SetInputSource(source InputSource) {
	if source == nil {
		source = NullInputSource{}
	}
	g.input = source
}

// AfterFrame registers fn to run after every completed step, before the
// frame counter advances.
func (g *Game[T]) AfterFrame(fn func()) func() {
	return g.after.Subscribe(fn)
}

// InputBuffer is the input buffer read for the last processed frame.
func (g *Game[T]) InputBuffer() []byte {
	return g.buffer
}

// ReceiveInputBuffer makes b the current input state without stepping.
func (g *Game[T]) ReceiveInputBuffer(b []byte) error {
	inputs, err := DecodeInputs(b)
	if err != nil {
		return err
	}
	g.buffer = append(g.buffer[:0], b...)
	g.ctx.Inputs = inputs
	return nil
}

type gameSnapshot[T any] struct {
	Context Context `json:"context"`
	State   *T      `json:"state"`
}

func (g *Game[T]) MarshalState() ([]byte, error) {
	return json.Marshal(gameSnapshot[T]{
		Context: g.ctx,
		State:   g.state,
	})
}

// UnmarshalState replaces the state and context with the decoded ones.
// Nothing changes unless decoding and linking both succeed.
func (g *Game[T]) UnmarshalState(b []byte) error {
	snapshot := gameSnapshot[T]{State: new(T)}
	if err := json.Unmarshal(b, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if snapshot.State == nil {
		return errors.New("snapshot has no state")
	}
	if linker, ok := any(snapshot.State).(Linker); ok {
		if err := linker.Link(); err != nil {
			return fmt.Errorf("failed to link state: %w", err)
		}
	}

	snapshot.Context.Time.Now = g.ctx.Time.Now
	snapshot.Context.Inputs = g.ctx.Inputs
	g.state = snapshot.State
	g.ctx = snapshot.Context
	return nil
}
