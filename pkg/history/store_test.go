package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(s *Store) []uint64 {
	out := make([]uint64, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		r, _ := s.Get(i)
		out = append(out, r.Frame)
	}
	return out
}

func TestStore_CaptureAppends(t *testing.T) {
	s := NewStore()
	assert.Equal(t, -1, s.Cursor())

	for f := uint64(0); f < 4; f++ {
		s.Capture(f, 16, []byte{byte(f)}, nil)
		assert.Equal(t, int(f), s.Cursor())
	}
	assert.Equal(t, []uint64{0, 1, 2, 3}, frames(s))
}

func TestStore_CaptureOverwritesSameFrame(t *testing.T) {
	s := NewStore()
	for f := uint64(0); f < 5; f++ {
		s.Capture(f, 16, []byte("old"), nil)
	}

	s.Capture(2, 8, []byte("new"), []byte{1})
	assert.Equal(t, 2, s.Cursor())
	assert.Equal(t, 5, s.Len())

	r, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, FrameRecord{Frame: 2, State: []byte("new"), Inputs: []byte{1}, Dt: 8}, r)
}

func TestStore_CaptureKeepsOrderForGaps(t *testing.T) {
	s := NewStore()
	s.Capture(0, 16, nil, nil)
	s.Capture(5, 16, nil, nil)

	s.Capture(3, 16, nil, nil)
	assert.Equal(t, []uint64{0, 3, 5}, frames(s))
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, 1, s.IndexOfFrame(3))
}

func TestStore_TruncateAfterCursor(t *testing.T) {
	tests := []struct {
		name    string
		records int
		cursor  int
		want    []uint64
	}{
		{name: "middle", records: 5, cursor: 2, want: []uint64{0, 1, 2}},
		{name: "tail", records: 3, cursor: 2, want: []uint64{0, 1, 2}},
		{name: "head", records: 3, cursor: 0, want: []uint64{0}},
		{name: "empty", records: 0, cursor: -1, want: []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			for f := 0; f < tt.records; f++ {
				s.Capture(uint64(f), 16, nil, nil)
			}
			s.SetCursor(tt.cursor)
			s.TruncateAfterCursor()
			assert.Equal(t, tt.want, frames(s))
		})
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore()
	s.Capture(0, 16, nil, nil)

	_, ok := s.Get(-1)
	assert.False(t, ok)
	_, ok = s.Get(1)
	assert.False(t, ok)
	_, ok = s.Get(0)
	assert.True(t, ok)
}

func TestStore_IndexOfFrame(t *testing.T) {
	s := NewStore()
	for f := uint64(10); f < 15; f++ {
		s.Capture(f, 16, nil, nil)
	}
	assert.Equal(t, 0, s.IndexOfFrame(10))
	assert.Equal(t, 4, s.IndexOfFrame(14))
	assert.Equal(t, -1, s.IndexOfFrame(9))
	assert.Equal(t, -1, s.IndexOfFrame(15))
}

func TestStore_IndexOfFramePrefersLatest(t *testing.T) {
	s := &Store{
		records: []FrameRecord{{Frame: 1}, {Frame: 2, Dt: 1}, {Frame: 2, Dt: 2}},
	}
	assert.Equal(t, 2, s.IndexOfFrame(2))
}

func TestStore_SetCursorClamps(t *testing.T) {
	s := NewStore()
	s.SetCursor(3)
	assert.Equal(t, -1, s.Cursor())

	s.Capture(0, 16, nil, nil)
	s.Capture(1, 16, nil, nil)
	s.SetCursor(10)
	assert.Equal(t, 1, s.Cursor())
	s.SetCursor(-4)
	assert.Equal(t, 0, s.Cursor())
}

func TestStore_Start(t *testing.T) {
	s := NewStore()
	_, ok := s.Start()
	assert.False(t, ok)

	assert.True(t, s.SetStart(FrameRecord{Frame: 0, State: []byte("start")}))
	assert.False(t, s.SetStart(FrameRecord{Frame: 0, State: []byte("again")}))

	start, ok := s.Start()
	require.True(t, ok)
	assert.Equal(t, []byte("start"), start.State)

	s.Reset()
	_, ok = s.Start()
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Equal(t, -1, s.Cursor())
}
