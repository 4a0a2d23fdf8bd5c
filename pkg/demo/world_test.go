package demo

import (
	"io"
	"testing"

	"github.com/cbodonnell/rewind/pkg/codec"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T) (*sim.Game[World], *sim.BufferedInputSource) {
	t.Helper()
	g := sim.NewGame(NewWorld(), Systems()...)
	src := sim.NewBufferedInputSource()
	g.SetInputSource(src)
	return g, src
}

func stepN(t *testing.T, g *sim.Game[World], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, g.Step(16, sim.StepOptions{}))
	}
}

func TestNewWorld(t *testing.T) {
	w := NewWorld()
	require.Len(t, w.Bodies, 1+len(CrateStartingX))
	require.NotNil(t, w.Space())

	player := w.Player()
	require.NotNil(t, player)
	assert.Equal(t, PlayerStartingX, player.Position.X)
	for _, body := range w.Bodies {
		require.NotNil(t, body.Object())
		assert.Equal(t, body.Position.X, body.Object().Position.X)
		assert.Equal(t, body.Position.Y, body.Object().Position.Y)
	}
}

func TestLink_Rejects(t *testing.T) {
	w := World{Bodies: []*Body{{ID: 1}, {ID: 1}}}
	assert.Error(t, w.Link())

	w = World{Bodies: []*Body{nil}}
	assert.Error(t, w.Link())
}

func TestSystems_BodiesLandOnTheFloor(t *testing.T) {
	g, _ := newGame(t)
	stepN(t, g, 120)

	for _, body := range g.State().Bodies {
		assert.True(t, body.IsOnGround, "body %d", body.ID)
		assert.InDelta(t, WallThickness, body.Position.Y, 1)
		assert.Zero(t, body.Velocity.Y)
	}
}

func TestSystems_PlayerControl(t *testing.T) {
	g, src := newGame(t)
	stepN(t, g, 120)
	startX := g.State().Player().Position.X

	src.ReceiveKeydown(sim.KeyD)
	stepN(t, g, 10)
	src.ReceiveKeyup(sim.KeyD)
	stepN(t, g, 1)
	assert.Greater(t, g.State().Player().Position.X, startX)
	assert.Zero(t, g.State().Player().Velocity.X)

	src.ReceiveKeydown(sim.KeySpace)
	stepN(t, g, 1)
	assert.Equal(t, 1, g.State().Jumps)
	assert.Greater(t, g.State().Player().Velocity.Y, 0.0)
	assert.False(t, g.State().Player().IsOnGround)

	// held space does not jump again
	stepN(t, g, 5)
	assert.Equal(t, 1, g.State().Jumps)
}

func TestSystems_CameraFollowsPlayer(t *testing.T) {
	g, _ := newGame(t)
	stepN(t, g, 1)
	player := g.State().Player()
	assert.Equal(t, player.Position.X+BodySize/2-Width/2, g.Context().Camera.X)
	assert.Equal(t, 1.0, g.Context().Camera.Zoom)
}

func TestWorld_HydrateRelinks(t *testing.T) {
	g, _ := newGame(t)
	stepN(t, g, 30)

	snapshotCodec, err := codec.NewSnapshotCodec()
	require.NoError(t, err)
	b, err := snapshotCodec.Dump(g)
	require.NoError(t, err)
	want := *g.State().Player()
	space := g.State().Space()

	stepN(t, g, 30)
	require.NoError(t, snapshotCodec.Hydrate(g, b))

	player := g.State().Player()
	assert.Equal(t, want.Position, player.Position)
	assert.Equal(t, want.Velocity, player.Velocity)
	require.NotNil(t, player.Object())
	assert.Equal(t, player.Position.X, player.Object().Position.X)
	assert.NotSame(t, space, g.State().Space())

	stepN(t, g, 1)
}

func TestWorld_JumpBackAndForwardReproducesState(t *testing.T) {
	g, src := newGame(t)
	snapshotCodec, err := codec.NewSnapshotCodec()
	require.NoError(t, err)
	c, err := playback.NewController(playback.Options{
		Driver: g,
		Codec:  snapshotCodec,
		Logger: log.New(io.Discard, "", 0, log.LogLevelError),
	})
	require.NoError(t, err)
	require.NoError(t, c.Attach())

	for i := 0; i < 200; i++ {
		switch {
		case i == 60:
			src.ReceiveKeydown(sim.KeyD)
		case i == 90:
			src.ReceiveKeyup(sim.KeyD)
			src.ReceiveKeydown(sim.KeySpace)
		case i == 91:
			src.ReceiveKeyup(sim.KeySpace)
		}
		require.NoError(t, g.Step(16, sim.StepOptions{}))
	}
	recorded, err := g.MarshalState()
	require.NoError(t, err)

	require.NoError(t, c.JumpBack())
	assert.Equal(t, uint64(50), g.Frame())
	require.NoError(t, c.JumpForward())
	assert.Equal(t, uint64(200), g.Frame())

	replayed, err := g.MarshalState()
	require.NoError(t, err)
	assert.JSONEq(t, string(recorded), string(replayed))
	assert.Equal(t, 1, g.State().Jumps)
}

func TestWorld_Scene(t *testing.T) {
	w := NewWorld()
	scene := w.Scene(&sim.Context{Frame: 3})
	assert.Equal(t, uint64(3), scene.Frame)
	assert.Len(t, scene.Rects, 4+len(w.Bodies))

	players := 0
	for _, rect := range scene.Rects {
		if rect.Kind == RectKindPlayer {
			players++
		}
	}
	assert.Equal(t, 1, players)
}
