// Package replay provides input sources that feed recorded input buffers
// back into a simulation instead of polling devices.
package replay

import (
	"github.com/cbodonnell/rewind/pkg/history"
	"github.com/cbodonnell/rewind/pkg/sim"
)

// SingleFrameSource replays one fixed input buffer.
type SingleFrameSource struct {
	inputs []byte
}

var _ sim.InputSource = (*SingleFrameSource)(nil)

func NewSingleFrameSource(inputs []byte) *SingleFrameSource {
	return &SingleFrameSource{
		inputs: inputs,
	}
}

func (s *SingleFrameSource) ReadInput() []byte { return s.inputs }
func (s *SingleFrameSource) PollGamepads() {}
func (s *SingleFrameSource) Resize(int, int) {}

// SequentialSource walks the store from a starting index, returning one
// recorded input buffer per read. Once the index runs past the stored
// history Exhausted reports true and the caller is expected to swap the
// live source back in.
type SequentialSource struct {
	store *history.Store
	index int
}

var _ sim.InputSource = (*SequentialSource)(nil)

func NewSequentialSource(store *history.Store, index int) *SequentialSource {
	return &SequentialSource{
		store: store,
		index: index,
	}
}

// Peek returns the record the next read will replay.
func (s *SequentialSource) Peek() (history.FrameRecord, bool) {
	return s.store.Get(s.index)
}

// Exhausted reports whether the stored history has been used up.
func (s *SequentialSource) Exhausted() bool {
	_, ok := s.Peek()
	return !ok
}

// ReadInput returns the next recorded buffer and advances. An exhausted
// source returns nil.
func (s *SequentialSource) ReadInput() []byte {
	record, ok := s.store.Get(s.index)
	if !ok {
		return nil
	}
	s.index++
	return record.Inputs
}

func (s *SequentialSource) PollGamepads() {}
func (s *SequentialSource) Resize(int, int) {}
