package input

import (
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var keyMap = map[ebiten.Key]sim.Key{
	ebiten.KeyA:          sim.KeyA,
	ebiten.KeyB:          sim.KeyB,
	ebiten.KeyC:          sim.KeyC,
	ebiten.KeyD:          sim.KeyD,
	ebiten.KeyE:          sim.KeyE,
	ebiten.KeyF:          sim.KeyF,
	ebiten.KeyG:          sim.KeyG,
	ebiten.KeyH:          sim.KeyH,
	ebiten.KeyI:          sim.KeyI,
	ebiten.KeyJ:          sim.KeyJ,
	ebiten.KeyK:          sim.KeyK,
	ebiten.KeyL:          sim.KeyL,
	ebiten.KeyM:          sim.KeyM,
	ebiten.KeyN:          sim.KeyN,
	ebiten.KeyO:          sim.KeyO,
	ebiten.KeyP:          sim.KeyP,
	ebiten.KeyQ:          sim.KeyQ,
	ebiten.KeyR:          sim.KeyR,
	ebiten.KeyS:          sim.KeyS,
	ebiten.KeyT:          sim.KeyT,
	ebiten.KeyU:          sim.KeyU,
	ebiten.KeyV:          sim.KeyV,
	ebiten.KeyW:          sim.KeyW,
	ebiten.KeyX:          sim.KeyX,
	ebiten.KeyY:          sim.KeyY,
	ebiten.KeyZ:          sim.KeyZ,
	ebiten.KeySpace:      sim.KeySpace,
	ebiten.KeyEnter:      sim.KeyEnter,
	ebiten.KeyEscape:     sim.KeyEscape,
	ebiten.KeyArrowUp:    sim.KeyArrowUp,
	ebiten.KeyArrowDown:  sim.KeyArrowDown,
	ebiten.KeyArrowLeft:  sim.KeyArrowLeft,
	ebiten.KeyArrowRight: sim.KeyArrowRight,
}

var gamepadMap = map[ebiten.StandardGamepadButton]sim.Key{
	ebiten.StandardGamepadButtonLeftLeft:    sim.KeyArrowLeft,
	ebiten.StandardGamepadButtonLeftRight:   sim.KeyArrowRight,
	ebiten.StandardGamepadButtonLeftTop:     sim.KeyArrowUp,
	ebiten.StandardGamepadButtonLeftBottom:  sim.KeyArrowDown,
	ebiten.StandardGamepadButtonRightBottom: sim.KeySpace,
}

// KeyboardInputSource feeds ebiten key events into the simulation's input
// buffer. Keys bound to hotkeys never reach the simulation.
type KeyboardInputSource struct {
	buffered   *sim.BufferedInputSource
	hotkeys    *Hotkeys
	keys       []ebiten.Key
	gamepadIDs []ebiten.GamepadID
}

func NewKeyboardInputSource(hotkeys *Hotkeys) *KeyboardInputSource {
	return &KeyboardInputSource{
		buffered: sim.NewBufferedInputSource(),
		hotkeys:  hotkeys,
	}
}

// Poll records the key edges of the current ebiten tick. It must be called
// once per Update, before the simulation steps.
func (s *KeyboardInputSource) Poll() {
	s.keys = inpututil.AppendJustPressedKeys(s.keys[:0])
	for _, k := range s.keys {
		if key, ok := s.mapKey(k); ok {
			s.buffered.ReceiveKeydown(key)
		}
	}
	s.keys = inpututil.AppendJustReleasedKeys(s.keys[:0])
	for _, k := range s.keys {
		if key, ok := s.mapKey(k); ok {
			s.buffered.ReceiveKeyup(key)
		}
	}
}

func (s *KeyboardInputSource) mapKey(k ebiten.Key) (sim.Key, bool) {
	if s.hotkeys != nil && s.hotkeys.IsBound(k) {
		return sim.KeyUnknown, false
	}
	key, ok := keyMap[k]
	return key, ok
}

func (s *KeyboardInputSource) ReadInput() []byte {
	return s.buffered.ReadInput()
}

// PollGamepads maps the standard layout's d-pad and bottom face button onto
// arrow keys and space.
func (s *KeyboardInputSource) PollGamepads() {
	s.gamepadIDs = ebiten.AppendGamepadIDs(s.gamepadIDs[:0])
	for _, id := range s.gamepadIDs {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for button, key := range gamepadMap {
			if inpututil.IsStandardGamepadButtonJustPressed(id, button) {
				s.buffered.ReceiveKeydown(key)
			}
			if inpututil.IsStandardGamepadButtonJustReleased(id, button) {
				s.buffered.ReceiveKeyup(key)
			}
		}
	}
}

func (s *KeyboardInputSource) Resize(width, height int) {
	s.buffered.Resize(width, height)
}
