package playback

import (
	"errors"
	"io"
	"testing"

	"github.com/cbodonnell/rewind/pkg/codec"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int `json:"count"`
}

func increment() sim.System[counter] {
	return sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			state.Count++
			return nil
		},
	}
}

func whenHeld(fn func(state *counter)) sim.System[counter] {
	return sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			if ctx.Inputs.IsKeyHeld(sim.KeyA) {
				fn(state)
			}
			return nil
		},
	}
}

type snapshotRecorder struct {
	snapshots []Snapshot
}

func (r *snapshotRecorder) SendSnapshot(snapshot Snapshot) {
	r.snapshots = append(r.snapshots, snapshot)
}

// faultyCodec fails or panics on Dump while armed.
type faultyCodec struct {
	codec.Codec
	fail  bool
	panic bool
}

func (c *faultyCodec) Dump(t codec.Target) ([]byte, error) {
	if c.panic {
		panic("dump exploded")
	}
	if c.fail {
		return nil, errors.New("dump failed")
	}
	return c.Codec.Dump(t)
}

func newFaultyCodec(t *testing.T) *faultyCodec {
	t.Helper()
	snapshotCodec, err := codec.NewSnapshotCodec()
	require.NoError(t, err)
	return &faultyCodec{Codec: snapshotCodec}
}

func attach(t *testing.T, g *sim.Game[counter], configure ...func(*Options)) *Controller {
	t.Helper()
	snapshotCodec, err := codec.NewSnapshotCodec()
	require.NoError(t, err)
	opts := Options{
		Driver:    g,
		Codec:     snapshotCodec,
		SessionID: "test",
		Logger:    log.New(io.Discard, "", 0, log.LogLevelTrace),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	c, err := NewController(opts)
	require.NoError(t, err)
	require.NoError(t, c.Attach())
	return c
}

func step(t *testing.T, g *sim.Game[counter], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, g.Step(16, sim.StepOptions{}))
	}
}

func TestNewController_RequiresDriverAndCodec(t *testing.T) {
	_, err := NewController(Options{})
	assert.Error(t, err)
	_, err = NewController(Options{Driver: sim.NewGame(counter{})})
	assert.Error(t, err)
}

func TestController_Attach(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	g.Unpause()
	c := attach(t, g)

	assert.True(t, g.IsPaused())
	assert.Equal(t, Paused, c.State())
	_, ok := c.Store().Start()
	assert.True(t, ok)
	assert.ErrorIs(t, c.Attach(), ErrAttached)
}

func TestController_CountScenario(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)

	step(t, g, 4)
	assert.Equal(t, uint64(4), g.Frame())
	assert.Equal(t, 4, g.State().Count)
	assert.Equal(t, uint64(3), c.Frame())

	require.NoError(t, c.StepBack())
	assert.Equal(t, uint64(3), g.Frame())
	assert.Equal(t, 3, g.State().Count)
	assert.Equal(t, uint64(2), c.Frame())

	require.NoError(t, c.StepForward())
	assert.Equal(t, uint64(4), g.Frame())
	assert.Equal(t, 4, g.State().Count)
	assert.Equal(t, uint64(3), c.Frame())
}

func TestController_StepBackToStart(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)

	step(t, g, 1)
	assert.Equal(t, 1, g.State().Count)
	paints := g.Paints()

	require.NoError(t, c.StepBack())
	assert.Equal(t, 0, g.State().Count)
	assert.Equal(t, uint64(0), g.Frame())
	assert.Equal(t, paints, g.Paints())

	step(t, g, 2)
	assert.Equal(t, 2, g.State().Count)
	require.NoError(t, c.StepBack())
	assert.Equal(t, 1, g.State().Count)
}

func TestController_StepBackThenForwardIsIdentity(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 6)

	before, err := g.MarshalState()
	require.NoError(t, err)

	require.NoError(t, c.StepBack())
	require.NoError(t, c.StepForward())

	after, err := g.MarshalState()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestController_StepForwardReplaysWithNewLogic(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)

	step(t, g, 2)
	require.NoError(t, c.StepBack())
	assert.Equal(t, 1, g.State().Count)

	g.SetSystems(sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			state.Count = 42
			return nil
		},
	})
	require.NoError(t, c.StepForward())
	assert.Equal(t, 42, g.State().Count)
	assert.True(t, c.TimeTraveled())
}

func TestController_StepForwardReplaysRecordedInputs(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, whenHeld(func(state *counter) { state.Count++ }))
	g.SetInputSource(src)
	c := attach(t, g)

	src.ReceiveKeydown(sim.KeyA)
	step(t, g, 2)
	assert.Equal(t, 2, g.State().Count)

	require.NoError(t, c.StepBack())
	assert.Equal(t, 1, g.State().Count)

	src.ReceiveKeyup(sim.KeyA)
	g.SetSystems(sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			if ctx.Inputs.IsKeyHeld(sim.KeyA) {
				state.Count = 42
			} else {
				state.Count = 36
			}
			return nil
		},
	})
	require.NoError(t, c.StepForward())
	assert.Equal(t, 42, g.State().Count)
	assert.Same(t, src, g.InputSource())
}

func TestController_StepForwardPastHistoryStepsLive(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 2)

	require.NoError(t, c.StepForward())
	assert.Equal(t, 3, g.State().Count)
	assert.Equal(t, DefaultDeltaTime, g.Dt())
	assert.Equal(t, 3, c.Store().Len())
	assert.False(t, c.TimeTraveled())
}

func TestController_StepForwardWhilePlayingPauses(t *testing.T) {
	recorder := &snapshotRecorder{}
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) { o.Notifier = recorder })

	require.NoError(t, c.Play())
	require.NoError(t, c.StepForward())
	assert.Equal(t, Paused, c.State())
	assert.Len(t, recorder.snapshots, 1)
}

func TestController_KeydownRetriggersOnce(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			if ctx.Inputs.IsKeyDown(sim.KeyA) {
				state.Count++
			}
			return nil
		},
	})
	g.SetInputSource(src)
	c := attach(t, g)

	step(t, g, 3)
	assert.Equal(t, uint64(3), g.Frame())
	assert.Equal(t, 0, g.State().Count)

	src.ReceiveKeydown(sim.KeyA)
	step(t, g, 1)
	assert.Equal(t, uint64(4), g.Frame())
	assert.Equal(t, 1, g.State().Count)

	require.NoError(t, c.StepBack())
	assert.Equal(t, uint64(3), g.Frame())
	assert.Equal(t, 0, g.State().Count)

	require.NoError(t, c.StepForward())
	assert.Equal(t, uint64(4), g.Frame())
	assert.Equal(t, 1, g.State().Count)

	// the key is still held but the edge was consumed
	require.NoError(t, c.StepForward())
	assert.Equal(t, uint64(5), g.Frame())
	assert.Equal(t, 1, g.State().Count)
}

func TestController_StartLogicRunsAgainAfterReset(t *testing.T) {
	starts := 0
	g := sim.NewGame(counter{}, sim.System[counter]{
		Start: func(state *counter, ctx *sim.Context) error {
			starts++
			ctx.Camera.Zoom = 900
			return nil
		},
	})
	c := attach(t, g)
	assert.Equal(t, 1.0, g.Context().Camera.Zoom)

	step(t, g, 2)
	assert.Equal(t, 900.0, g.Context().Camera.Zoom)
	assert.Equal(t, 1, starts)

	require.NoError(t, c.JumpBack())
	assert.Equal(t, 900.0, g.Context().Camera.Zoom)
	assert.Equal(t, uint64(1), g.Frame())
	assert.Equal(t, 2, starts)

	require.NoError(t, c.StepForward())
	assert.Equal(t, 900.0, g.Context().Camera.Zoom)
	assert.Equal(t, uint64(2), g.Frame())
	assert.Equal(t, 2, starts)
}

func TestController_JumpBackAndForwardReplayInputs(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, whenHeld(func(state *counter) { state.Count++ }))
	g.SetInputSource(src)
	c := attach(t, g)

	for i := 0; i < JumpWindowFrames; i++ {
		src.ReceiveKeydown(sim.KeyA)
		step(t, g, 1)
	}
	assert.Equal(t, 150, g.State().Count)

	require.NoError(t, c.JumpBack())
	assert.Equal(t, uint64(1), g.Frame())
	assert.Equal(t, 1, g.State().Count)

	require.NoError(t, c.StepBack())
	assert.Equal(t, uint64(0), g.Frame())
	assert.Equal(t, 0, g.State().Count)

	g.SetSystems(whenHeld(func(state *counter) { state.Count += 2 }))

	paints := g.Paints()
	require.NoError(t, c.JumpForward())
	assert.Equal(t, 300, g.State().Count)
	assert.Equal(t, uint64(150), g.Frame())
	assert.Equal(t, uint64(149), c.Frame())
	assert.Equal(t, paints+1, g.Paints())
	assert.Same(t, src, g.InputSource())
}

func TestController_JumpBackWithinHistory(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 200)

	require.NoError(t, c.JumpBack())
	assert.Equal(t, 49, c.Store().Cursor())
	assert.Equal(t, uint64(49), c.Frame())
	assert.Equal(t, uint64(50), g.Frame())
	assert.Equal(t, 50, g.State().Count)
	assert.Equal(t, 200, c.Store().Len())
}

func TestController_JumpForwardMatchesStepForwards(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, whenHeld(func(state *counter) { state.Count++ }))
	g.SetInputSource(src)
	c := attach(t, g)

	for i := 0; i < JumpWindowFrames; i++ {
		if i%3 == 0 {
			src.ReceiveKeydown(sim.KeyA)
		} else {
			src.ReceiveKeyup(sim.KeyA)
		}
		step(t, g, 1)
	}
	recorded, err := g.MarshalState()
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	require.NoError(t, c.JumpForward())
	jumped, err := g.MarshalState()
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	for i := 0; i < JumpWindowFrames; i++ {
		require.NoError(t, c.StepForward())
	}
	stepped, err := g.MarshalState()
	require.NoError(t, err)

	assert.JSONEq(t, string(recorded), string(jumped))
	assert.JSONEq(t, string(jumped), string(stepped))
	assert.Equal(t, JumpWindowFrames, c.Store().Len())
}

func TestController_JumpForwardPastHistoryStepsLive(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	now := 0.0
	g.SetClock(func() float64 {
		now += 10
		return now
	})
	c := attach(t, g)
	step(t, g, 3)
	require.NoError(t, c.StepBack())

	require.NoError(t, c.JumpForward())
	assert.Equal(t, 2+JumpWindowFrames, g.State().Count)
	assert.Equal(t, uint64(2+JumpWindowFrames), g.Frame())
	assert.Equal(t, 2+JumpWindowFrames, c.Store().Len())
	assert.Equal(t, DefaultDeltaTime, g.Dt())
}

func TestController_JumpForwardPastHistoryAdvancesSimulatedTime(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 3)
	elapsed := g.Context().Time.Elapsed

	require.NoError(t, c.JumpForward())
	assert.Equal(t, uint64(3+JumpWindowFrames), g.Frame())
	assert.InDelta(t, JumpWindowFrames*DefaultDeltaTime, g.Context().Time.Elapsed-elapsed, 1e-6)
	assert.Equal(t, DefaultDeltaTime, g.Dt())
}

func TestController_JumpForwardPanicDoesNotPinReplay(t *testing.T) {
	faulty := newFaultyCodec(t)
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) { o.Codec = faulty })
	step(t, g, 5)
	require.NoError(t, c.StepBack())
	require.NoError(t, c.StepBack())
	require.NoError(t, c.StepBack())
	assert.Equal(t, 1, c.Store().Cursor())

	faulty.panic = true
	assert.Panics(t, func() {
		_ = c.JumpForward()
	})
	faulty.panic = false

	step(t, g, 1)
	assert.Equal(t, 3, c.Store().Len())
	assert.Equal(t, 2, c.Store().Cursor())
}

func TestController_JumpForwardRestoresInputSourceOnFailure(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, increment())
	g.SetInputSource(src)
	c := attach(t, g)
	step(t, g, 5)
	require.NoError(t, c.Reset())

	g.SetSystems(increment(), sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			if state.Count == 3 {
				return errors.New("boom")
			}
			return nil
		},
	})
	paints := g.Paints()

	err := c.JumpForward()
	require.Error(t, err)
	assert.True(t, sim.IsLogicError(err))
	assert.Same(t, src, g.InputSource())
	assert.Equal(t, paints+1, g.Paints())
	assert.Equal(t, uint64(2), g.Frame())
}

func TestController_StepForwardRestoresInputSourceOnFailure(t *testing.T) {
	src := sim.NewBufferedInputSource()
	g := sim.NewGame(counter{}, increment())
	g.SetInputSource(src)
	c := attach(t, g)
	step(t, g, 2)
	require.NoError(t, c.StepBack())

	g.SetSystems(sim.System[counter]{
		Update: func(state *counter, ctx *sim.Context) error {
			panic("broken")
		},
	})
	err := c.StepForward()
	require.Error(t, err)
	assert.True(t, sim.IsLogicError(err))
	assert.Same(t, src, g.InputSource())
}

func TestController_DecodeErrorLeavesSimulationUntouched(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 3)

	c.Store().Capture(1, 16, []byte("not a snapshot"), nil)
	c.Store().SetCursor(2)

	err := c.StepBack()
	require.Error(t, err)
	assert.True(t, codec.IsDecodeError(err))
	assert.Equal(t, 3, g.State().Count)
	assert.Equal(t, uint64(3), g.Frame())
	assert.Equal(t, 2, c.Store().Cursor())
	assert.False(t, c.TimeTraveled())
}

func TestController_PauseSendsOneSnapshot(t *testing.T) {
	recorder := &snapshotRecorder{}
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) { o.Notifier = recorder })

	assert.ErrorIs(t, c.Pause(), ErrNotPlaying)
	assert.Empty(t, recorder.snapshots)

	require.NoError(t, c.Play())
	assert.ErrorIs(t, c.Play(), ErrAlreadyPlaying)
	step(t, g, 2)
	require.NoError(t, c.Pause())
	require.Len(t, recorder.snapshots, 1)
	assert.Equal(t, "test", recorder.snapshots[0].SessionID)
	assert.Equal(t, uint64(1), recorder.snapshots[0].Frame)
	assert.NotEmpty(t, recorder.snapshots[0].State)

	require.NoError(t, c.TogglePlay())
	require.NoError(t, c.TogglePlay())
	assert.Len(t, recorder.snapshots, 2)
}

func TestController_PauseTakesEffectWhenDumpFails(t *testing.T) {
	recorder := &snapshotRecorder{}
	faulty := newFaultyCodec(t)
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) {
		o.Codec = faulty
		o.Notifier = recorder
	})
	step(t, g, 3)
	require.NoError(t, c.Play())

	faulty.fail = true
	require.NoError(t, c.StepBack())
	assert.Equal(t, Paused, c.State())
	assert.Empty(t, recorder.snapshots)
	assert.Equal(t, 2, g.State().Count)
	assert.Equal(t, 1, c.Store().Cursor())
}

func TestController_PlayResetsTimeReference(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	g.SetClock(func() float64 { return 1000 })
	c := attach(t, g)

	require.NoError(t, c.Play())
	assert.False(t, g.IsPaused())
	assert.Equal(t, 984.0, g.Context().Time.Now)

	require.NoError(t, g.Step(0, sim.StepOptions{}))
	assert.Equal(t, DefaultDeltaTime, g.Dt())
}

func TestController_StepBackWhilePlayingPauses(t *testing.T) {
	recorder := &snapshotRecorder{}
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) { o.Notifier = recorder })
	step(t, g, 3)

	require.NoError(t, c.Play())
	require.NoError(t, c.StepBack())
	assert.Equal(t, Paused, c.State())
	assert.Len(t, recorder.snapshots, 1)
	assert.Equal(t, 2, g.State().Count)
}

func TestController_BulkMode(t *testing.T) {
	recorder := &snapshotRecorder{}
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g, func(o *Options) {
		o.Bulk = true
		o.Notifier = recorder
	})
	_, ok := c.Store().Start()
	assert.False(t, ok)

	step(t, g, 3)
	assert.Zero(t, c.Store().Len())

	require.NoError(t, c.StepBack())
	require.NoError(t, c.JumpBack())
	require.NoError(t, c.JumpForward())
	require.NoError(t, c.Reset())
	c.ClearForward()
	assert.Equal(t, 3, g.State().Count)
	assert.Equal(t, uint64(3), g.Frame())

	require.NoError(t, c.StepForward())
	assert.Equal(t, 4, g.State().Count)
	assert.Equal(t, DefaultDeltaTime, g.Dt())

	require.NoError(t, c.Play())
	require.NoError(t, c.Pause())
	assert.Empty(t, recorder.snapshots)
	assert.False(t, c.TimeTraveled())
	assert.True(t, c.Status().Bulk)
}

// A live step taken after navigating back is captured and then everything
// recorded after it is dropped. Replayed steps keep the recorded future.
func TestController_LiveStepAfterStepBackDropsRecordedFuture(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 5)

	require.NoError(t, c.StepBack())
	require.NoError(t, c.StepBack())
	require.NoError(t, c.StepForward())
	assert.Equal(t, 5, c.Store().Len())
	assert.Equal(t, 3, c.Store().Cursor())

	require.NoError(t, c.StepBack())
	step(t, g, 1)
	assert.Equal(t, 4, c.Store().Len())
	assert.Equal(t, 3, c.Store().Cursor())
	tail, ok := c.Store().Get(c.Store().Len() - 1)
	require.True(t, ok)
	assert.Equal(t, uint64(3), tail.Frame)
}

func TestController_ClearForward(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 5)
	c.Store().SetCursor(1)

	c.ClearForward()
	assert.Equal(t, 2, c.Store().Len())
}

func TestController_Status(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 3)
	require.NoError(t, c.StepBack())

	assert.Equal(t, Status{
		SessionID:    "test",
		Frame:        1,
		Playing:      false,
		TimeTraveled: true,
		Bulk:         false,
		Cursor:       1,
		Records:      3,
	}, c.Status())
}

func TestController_Detach(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)
	step(t, g, 2)

	require.NoError(t, c.Detach())
	assert.ErrorIs(t, c.Detach(), ErrDetached)
	step(t, g, 2)
	assert.Zero(t, c.Store().Len())
	assert.ErrorIs(t, c.Reset(), ErrDetached)

	assert.ErrorIs(t, c.StepForward(), ErrDetached)
	assert.Equal(t, 4, g.State().Count)
	assert.Equal(t, uint64(4), g.Frame())
}
