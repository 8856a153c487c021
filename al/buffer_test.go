package al

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferDataUploadS16(t *testing.T) {
	b := newBuffer()
	s16 := []int16{100, -100, 200, -200}
	raw := s16Bytes(s16)

	err := b.Data(Format{Channels: ChanMono, Type: TypeS16}, raw, 44100)
	require.NoError(t, err)

	assert.Equal(t, 44100, b.Frequency())
	assert.Equal(t, 4, b.Length())
	assert.Equal(t, 1, b.NumChannels())
}

func TestBufferDataRejectsWhileReferenced(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes([]int16{1, 2}), 44100))

	b.addRef()
	err := b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes([]int16{3, 4}), 44100)
	assert.Error(t, err)

	b.release()
	err = b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes([]int16{3, 4}), 44100)
	assert.NoError(t, err)
}

func TestBufferSetLoopPointsValidation(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes(make([]int16, 100)), 44100))

	assert.Error(t, b.SetLoopPoints(-1, 10))
	assert.Error(t, b.SetLoopPoints(50, 200))
	require.NoError(t, b.SetLoopPoints(10, 90))

	start, end := b.LoopPoints()
	assert.Equal(t, 10, start)
	assert.Equal(t, 90, end)
}

func TestBufferMapRejectsDoubleMap(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes(make([]int16, 16)), 44100))

	_, err := b.Map(0, 8, AccessRead)
	require.NoError(t, err)

	_, err = b.Map(0, 8, AccessRead)
	assert.Error(t, err)

	require.NoError(t, b.Unmap())
	_, err = b.Map(0, 8, AccessRead)
	assert.NoError(t, err)
}

func TestBufferMapRejectsWhileReferenced(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes(make([]int16, 16)), 44100))
	b.addRef()

	_, err := b.Map(0, 8, AccessWrite)
	assert.Error(t, err)
}

func TestBufferFrameAtDecodesS16(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanStereo, Type: TypeS16}, s16Bytes([]int16{100, -200, 300, -400}), 44100))

	assert.InDelta(t, 100.0/32768.0, b.frameAt(0, 0), 1e-6)
	assert.InDelta(t, -200.0/32768.0, b.frameAt(0, 1), 1e-6)
	assert.InDelta(t, 300.0/32768.0, b.frameAt(1, 0), 1e-6)
}

func TestBufferDataUploadF64(t *testing.T) {
	b := newBuffer()
	f64 := []float64{0.5, -0.5, 0.25, -0.25}
	raw := make([]byte, len(f64)*8)
	for i, v := range f64 {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	err := b.Data(Format{Channels: ChanMono, Type: TypeF64}, raw, 44100)
	require.NoError(t, err)

	assert.Equal(t, 4, b.Length())
	assert.InDelta(t, 0.5, b.frameAt(0, 0), 1e-6)
	assert.InDelta(t, -0.25, b.frameAt(3, 0), 1e-6)
}

func TestBufferDataUploadS32(t *testing.T) {
	b := newBuffer()
	s32 := []int32{1 << 30, -(1 << 30)}
	raw := make([]byte, len(s32)*4)
	for i, v := range s32 {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}

	err := b.Data(Format{Channels: ChanMono, Type: TypeS32}, raw, 44100)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Length())
	assert.InDelta(t, 0.5, b.frameAt(0, 0), 1e-4)
	assert.InDelta(t, -0.5, b.frameAt(1, 0), 1e-4)
}

func TestBufferDataUploadU32(t *testing.T) {
	b := newBuffer()
	u32 := []uint32{0x80000000, 0xC0000000}
	raw := make([]byte, len(u32)*4)
	for i, v := range u32 {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}

	err := b.Data(Format{Channels: ChanMono, Type: TypeU32}, raw, 44100)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Length())
	assert.InDelta(t, 0, b.frameAt(0, 0), 1e-4)
	assert.InDelta(t, 0.5, b.frameAt(1, 0), 1e-4)
}

func TestBufferSubDataRequiresMatchingFormat(t *testing.T) {
	b := newBuffer()
	require.NoError(t, b.Data(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes(make([]int16, 16)), 44100))

	err := b.SubData(Format{Channels: ChanStereo, Type: TypeS16}, s16Bytes(make([]int16, 4)), 0, 8)
	assert.Error(t, err)

	err = b.SubData(Format{Channels: ChanMono, Type: TypeS16}, s16Bytes([]int16{1, 2}), 0, 4)
	assert.NoError(t, err)
}
