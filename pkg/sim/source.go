package sim

import "sync"

// InputSource is the capability the simulation polls once per step for
// its accumulated input buffer.
type InputSource interface {
	// ReadInput returns the accumulated input buffer for the next frame.
	ReadInput() []byte
	PollGamepads()
	Resize(width, height int)
}

// NullInputSource never reports any input.
type NullInputSource struct{}

func (NullInputSource) ReadInput() []byte { return nil }
func (NullInputSource) PollGamepads() {}
func (NullInputSource) Resize(int, int) {}

// BufferedInputSource accumulates key events between steps. Held keys stay
// held across reads, down and up edges are reported once.
// Events may be pushed from any goroutine.
type BufferedInputSource struct {
	lock   sync.Mutex
	inputs Inputs
	width  int
	height int
}

func NewBufferedInputSource() *BufferedInputSource {
	return &BufferedInputSource{}
}

func (s *BufferedInputSource) ReceiveKeydown(k Key) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inputs.Held.Add(k)
	s.inputs.Down.Add(k)
}

func (s *BufferedInputSource) ReceiveKeyup(k Key) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inputs.Held.Remove(k)
	s.inputs.Up.Add(k)
}

func (s *BufferedInputSource) ReadInput() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	b := EncodeInputs(s.inputs)
	s.inputs.Down = KeySet{}
	s.inputs.Up = KeySet{}
	return b
}

func (s *BufferedInputSource) PollGamepads() {}

func (s *BufferedInputSource) Resize(width, height int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.width = width
	s.height = height
}

// Size returns the last size passed to Resize.
func (s *BufferedInputSource) Size() (int, int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.width, s.height
}
