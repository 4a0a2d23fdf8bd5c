package playback

import (
	"testing"

	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{in: "play", want: CommandPlay},
		{in: " Step-Back ", want: CommandStepBack},
		{in: "jump-forward", want: CommandJumpForward},
		{in: "clear-forward", want: CommandClearForward},
		{in: "rewind", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestController_Execute(t *testing.T) {
	g := sim.NewGame(counter{}, increment())
	c := attach(t, g)

	require.NoError(t, c.Execute(CommandStepForward))
	require.NoError(t, c.Execute(CommandStepForward))
	assert.Equal(t, 2, g.State().Count)

	require.NoError(t, c.Execute(CommandStepBack))
	assert.Equal(t, 1, g.State().Count)

	require.NoError(t, c.Execute(CommandClearForward))
	assert.Equal(t, 1, c.Store().Len())

	require.NoError(t, c.Execute(CommandToggle))
	assert.Equal(t, Playing, c.State())
	require.NoError(t, c.Execute(CommandPause))

	require.NoError(t, c.Execute(CommandReset))
	assert.Equal(t, 0, g.State().Count)

	assert.ErrorIs(t, c.Execute(Command("fast-forward")), ErrUnknownCommand)
}
