package sim

import (
	"encoding/binary"
	"fmt"
)

// Key identifies a keyboard key in the input buffer.
type Key uint8

const (
	KeyUnknown Key = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeySpace
	KeyEnter
	KeyEscape
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
)

// KeySet is a bit set over all 256 key codes.
type KeySet [4]uint64

func (s *KeySet) Add(k Key) {
	s[k>>6] |= 1 << (k & 63)
}

func (s *KeySet) Remove(k Key) {
	s[k>>6] &^= 1 << (k & 63)
}

func (s KeySet) Has(k Key) bool {
	return s[k>>6]&(1<<(k&63)) != 0
}

func (s KeySet) Empty() bool {
	return s == KeySet{}
}

// Inputs is the decoded input state for one frame.
type Inputs struct {
	// Held are keys pressed during the frame.
	Held KeySet
	// Down are keys that went down since the previous frame.
	Down KeySet
	// Up are keys that were released since the previous frame.
	Up KeySet
}

func (in Inputs) IsKeyHeld(k Key) bool { return in.Held.Has(k) }
func (in Inputs) IsKeyDown(k Key) bool { return in.Down.Has(k) }
func (in Inputs) IsKeyUp(k Key) bool { return in.Up.Has(k) }

const (
	inputBufferVersion byte = 1
	keySetSize              = 4 * 8
	// InputBufferSize is the length of an encoded input buffer.
	InputBufferSize = 1 + 3*keySetSize
)

// EncodeInputs writes the accumulated input state into a fixed size buffer.
func EncodeInputs(in Inputs) []byte {
	b := make([]byte, InputBufferSize)
	b[0] = inputBufferVersion
	off := 1
	for _, set := range []KeySet{in.Held, in.Down, in.Up} {
		for _, word := range set {
			binary.LittleEndian.PutUint64(b[off:], word)
			off += 8
		}
	}
	return b
}

// DecodeInputs reads a buffer written by EncodeInputs. An empty buffer
// decodes to no input at all.
func DecodeInputs(b []byte) (Inputs, error) {
	in := Inputs{}
	if len(b) == 0 {
		return in, nil
	}
	if len(b) != InputBufferSize {
		return in, fmt.Errorf("input buffer has %d bytes, want %d", len(b), InputBufferSize)
	}
	if b[0] != inputBufferVersion {
		return in, fmt.Errorf("unsupported input buffer version %d", b[0])
	}
	off := 1
	for _, set := range []*KeySet{&in.Held, &in.Down, &in.Up} {
		for i := range set {
			set[i] = binary.LittleEndian.Uint64(b[off:])
			off += 8
		}
	}
	return in, nil
}
