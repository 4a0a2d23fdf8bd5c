// Package history keeps the per-frame record log of one simulation session.
package history

// FrameRecord is one captured frame.
type FrameRecord struct {
	// Frame is the simulation's frame counter at capture time.
	Frame uint64
	// State is the codec dump taken after the frame was processed.
	State []byte
	// Inputs is the accumulated input buffer that drove the frame.
	Inputs []byte
	// Dt is the delta time in milliseconds that produced the frame.
	Dt float64
}

// Store is an append/overwrite log of frame records ordered by frame.
// It is owned by a single session and is not safe for concurrent use.
type Store struct {
	records []FrameRecord
	cursor  int
	start   *FrameRecord
}

func NewStore() *Store {
	return &Store{
		cursor: -1,
	}
}

// Capture stores a record for frame. A record that already exists for frame
// is overwritten in place and the cursor moves to it, otherwise the record
// is appended and the cursor moves to the tail.
func (s *Store) Capture(frame uint64, dt float64, state []byte, inputs []byte) {
	record := FrameRecord{
		Frame:  frame,
		State:  state,
		Inputs: inputs,
		Dt:     dt,
	}

	if index := s.IndexOfFrame(frame); index >= 0 {
		s.records[index] = record
		s.cursor = index
		return
	}

	if n := len(s.records); n > 0 && s.records[n-1].Frame > frame {
		// the frame falls in a gap of an ordered log; keep the order
		index := s.insertionIndex(frame)
		s.records = append(s.records, FrameRecord{})
		copy(s.records[index+1:], s.records[index:])
		s.records[index] = record
		s.cursor = index
		return
	}

	s.records = append(s.records, record)
	s.cursor = len(s.records) - 1
}

// TruncateAfterCursor discards every record after the cursor.
func (s *Store) TruncateAfterCursor() {
	if s.cursor < 0 {
		s.records = s.records[:0]
		return
	}
	if s.cursor+1 >= len(s.records) {
		return
	}
	for i := s.cursor + 1; i < len(s.records); i++ {
		s.records[i] = FrameRecord{}
	}
	s.records = s.records[:s.cursor+1]
}

// Get returns the record at index. The boolean is false when nothing is
// recorded there, which callers treat as a cue to step live.
func (s *Store) Get(index int) (FrameRecord, bool) {
	if index < 0 || index >= len(s.records) {
		return FrameRecord{}, false
	}
	return s.records[index], true
}

// IndexOfFrame returns the index of the record for frame or -1.
// The search runs from the tail so the most recent capture wins.
func (s *Store) IndexOfFrame(frame uint64) int {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Frame == frame {
			return i
		}
		if s.records[i].Frame < frame {
			break
		}
	}
	return -1
}

func (s *Store) insertionIndex(frame uint64) int {
	for i, r := range s.records {
		if r.Frame > frame {
			return i
		}
	}
	return len(s.records)
}

// Cursor is the index of the record last materialized into the simulation.
func (s *Store) Cursor() int {
	return s.cursor
}

// SetCursor moves the cursor. Values are clamped to the stored range.
func (s *Store) SetCursor(index int) {
	switch {
	case len(s.records) == 0:
		s.cursor = -1
	case index < 0:
		s.cursor = 0
	case index >= len(s.records):
		s.cursor = len(s.records) - 1
	default:
		s.cursor = index
	}
}

func (s *Store) Len() int {
	return len(s.records)
}

// SetStart stores the reset target. It can only be set once per store.
func (s *Store) SetStart(record FrameRecord) bool {
	if s.start != nil {
		return false
	}
	s.start = &record
	return true
}

// Start returns the reset target captured at attach time.
func (s *Store) Start() (FrameRecord, bool) {
	if s.start == nil {
		return FrameRecord{}, false
	}
	return *s.start, true
}

// Reset drops every record and the start record.
func (s *Store) Reset() {
	s.records = nil
	s.start = nil
	s.cursor = -1
}
