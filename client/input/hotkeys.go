package input

import (
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Hotkeys binds operator keys to playback commands.
type Hotkeys struct {
	bindings map[ebiten.Key]playback.Command
	order    []ebiten.Key
}

// DefaultHotkeys binds P to toggle play, comma and period to single steps,
// brackets to jumps, backspace to reset and delete to clear forward.
func DefaultHotkeys() *Hotkeys {
	h := &Hotkeys{bindings: make(map[ebiten.Key]playback.Command)}
	h.Bind(ebiten.KeyP, playback.CommandToggle)
	h.Bind(ebiten.KeyComma, playback.CommandStepBack)
	h.Bind(ebiten.KeyPeriod, playback.CommandStepForward)
	h.Bind(ebiten.KeyBracketLeft, playback.CommandJumpBack)
	h.Bind(ebiten.KeyBracketRight, playback.CommandJumpForward)
	h.Bind(ebiten.KeyBackspace, playback.CommandReset)
	h.Bind(ebiten.KeyDelete, playback.CommandClearForward)
	return h
}

func (h *Hotkeys) Bind(k ebiten.Key, cmd playback.Command) {
	if _, ok := h.bindings[k]; !ok {
		h.order = append(h.order, k)
	}
	h.bindings[k] = cmd
}

func (h *Hotkeys) IsBound(k ebiten.Key) bool {
	_, ok := h.bindings[k]
	return ok
}

// JustPressed returns the commands whose keys went down this tick.
func (h *Hotkeys) JustPressed() []playback.Command {
	var commands []playback.Command
	for _, k := range h.order {
		if inpututil.IsKeyJustPressed(k) {
			commands = append(commands, h.bindings[k])
		}
	}
	return commands
}
