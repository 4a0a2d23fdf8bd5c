package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputs_EncodeDecode(t *testing.T) {
	in := Inputs{}
	in.Held.Add(KeyA)
	in.Held.Add(KeyArrowLeft)
	in.Down.Add(KeySpace)
	in.Up.Add(Key(200))

	b := EncodeInputs(in)
	assert.Len(t, b, InputBufferSize)

	out, err := DecodeInputs(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.True(t, out.IsKeyHeld(KeyArrowLeft))
	assert.True(t, out.IsKeyDown(KeySpace))
	assert.True(t, out.IsKeyUp(Key(200)))
	assert.False(t, out.IsKeyHeld(KeySpace))
}

func TestDecodeInputs_Invalid(t *testing.T) {
	empty, err := DecodeInputs(nil)
	require.NoError(t, err)
	assert.Equal(t, Inputs{}, empty)

	_, err = DecodeInputs([]byte{1, 2})
	assert.Error(t, err)

	b := EncodeInputs(Inputs{})
	b[0] = 9
	_, err = DecodeInputs(b)
	assert.Error(t, err)
}

func TestBufferedInputSource_Edges(t *testing.T) {
	src := NewBufferedInputSource()
	src.ReceiveKeydown(KeyD)

	first, err := DecodeInputs(src.ReadInput())
	require.NoError(t, err)
	assert.True(t, first.IsKeyHeld(KeyD))
	assert.True(t, first.IsKeyDown(KeyD))

	second, err := DecodeInputs(src.ReadInput())
	require.NoError(t, err)
	assert.True(t, second.IsKeyHeld(KeyD))
	assert.False(t, second.IsKeyDown(KeyD))

	src.ReceiveKeyup(KeyD)
	third, err := DecodeInputs(src.ReadInput())
	require.NoError(t, err)
	assert.False(t, third.IsKeyHeld(KeyD))
	assert.True(t, third.IsKeyUp(KeyD))

	src.Resize(640, 480)
	w, h := src.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestHook_SubscribeOrder(t *testing.T) {
	h := &Hook{}
	var calls []string
	h.Subscribe(func() { calls = append(calls, "a") })
	removeB := h.Subscribe(func() { calls = append(calls, "b") })
	h.Subscribe(func() { calls = append(calls, "c") })

	h.Fire()
	removeB()
	h.Fire()

	assert.Equal(t, []string{"a", "b", "c", "a", "c"}, calls)
	assert.Equal(t, 2, h.Len())
}
