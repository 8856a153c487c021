package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T) (*Source, *Context) {
	t.Helper()
	ctx := &Context{sources: newRegistry[*Source](), slots: newRegistry[*EffectSlot]()}
	s := newSource(ctx, 1)
	return s, ctx
}

func newTestBuffer(t *testing.T, frames int) *Buffer {
	t.Helper()
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes(make([]int16, frames)), 44100))
	return b
}

func TestSourceDefaultsToInitialState(t *testing.T) {
	s, _ := newTestSource(t)
	assert.Equal(t, StateInitial, s.State())
}

func TestSourceQueueBuffersRejectsFormatMismatch(t *testing.T) {
	s, _ := newTestSource(t)
	mono := newTestBuffer(t, 100)
	stereoBuf := newBuffer()
	require.NoError(t, stereoBuf.Data(Format{Channels: ChanStereo, Type: TypeS16}, s16Bytes(make([]int16, 200)), 44100))

	require.NoError(t, s.QueueBuffers([]*Buffer{mono}))
	err := s.QueueBuffers([]*Buffer{stereoBuf})
	assert.Error(t, err)
}

func TestSourceQueueBuffersIncrementsRefcount(t *testing.T) {
	s, _ := newTestSource(t)
	b := newTestBuffer(t, 100)
	require.NoError(t, s.QueueBuffers([]*Buffer{b}))
	assert.True(t, b.InUse())
}

func TestSourceUnqueueRequiresProcessed(t *testing.T) {
	s, _ := newTestSource(t)
	b := newTestBuffer(t, 100)
	require.NoError(t, s.QueueBuffers([]*Buffer{b}))

	_, err := s.UnqueueBuffers(1)
	assert.Error(t, err)

	s.buffersProcessed = 1
	removed, err := s.UnqueueBuffers(1)
	require.NoError(t, err)
	assert.Same(t, b, removed[0])
	assert.False(t, b.InUse())
}

func TestSourceAdvanceCursorDrainsNonLoopingQueue(t *testing.T) {
	s, _ := newTestSource(t)
	b := newTestBuffer(t, 10)
	require.NoError(t, s.QueueBuffers([]*Buffer{b}))

	drained := s.advanceCursor(10)
	assert.True(t, drained)
	assert.Equal(t, 1, s.buffersProcessed)
}

func TestSourceAdvanceCursorWrapsWhenLooping(t *testing.T) {
	s, _ := newTestSource(t)
	b := newTestBuffer(t, 10)
	require.NoError(t, s.QueueBuffers([]*Buffer{b}))
	s.SetLooping(true)

	drained := s.advanceCursor(15)
	assert.False(t, drained)
	assert.Equal(t, 5, s.cursorFrame)
}

func TestSourceRewindResetsCursor(t *testing.T) {
	s, _ := newTestSource(t)
	b := newTestBuffer(t, 10)
	require.NoError(t, s.QueueBuffers([]*Buffer{b}))
	s.cursorFrame = 5
	s.buffersProcessed = 1

	require.NoError(t, s.Rewind())
	assert.Equal(t, 0, s.cursorFrame)
	assert.Equal(t, 0, s.buffersProcessed)
	assert.Equal(t, StateInitial, s.State())
}

func TestSourceSetPitchRejectsNonPositive(t *testing.T) {
	s, _ := newTestSource(t)
	assert.Error(t, s.SetPitch(0))
	assert.Error(t, s.SetPitch(-1))
	assert.NoError(t, s.SetPitch(1.5))
}

func TestSourceGainUpdateRequiresPublish(t *testing.T) {
	s, _ := newTestSource(t)
	s.SetGain(0.25)
	assert.Equal(t, float32(1), s.snapshot().Gain)
	s.publish()
	assert.Equal(t, float32(0.25), s.snapshot().Gain)
}
