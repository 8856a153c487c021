package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU8ToS16RoundTrip(t *testing.T) {
	src := []byte{0, 128, 255}
	dst := make([]int16, 3)
	U8ToS16(src, dst)

	back := make([]byte, 3)
	S16ToU8(dst, back)
	assert.Equal(t, src, back)
}

func TestS16ToF32Range(t *testing.T) {
	dst := make([]float32, 3)
	S16ToF32([]int16{0, 32767, -32768}, dst)
	assert.Equal(t, float32(0), dst[0])
	assert.InDelta(t, 1.0, dst[1], 0.001)
	assert.InDelta(t, -1.0, dst[2], 0.001)
}

func TestDecodeMuLawSilenceIsZero(t *testing.T) {
	// 0xFF is mu-law silence (maximum positive code, near-zero amplitude).
	out := make([]int16, 1)
	DecodeMuLaw([]byte{0xFF}, out)
	assert.InDelta(t, 0, out[0], 10)
}

func TestDecodeALawTableIsPopulated(t *testing.T) {
	for i := 0; i < 256; i++ {
		// the table must be initialized for every byte value; a zero
		// entry for a non-zero-producing code would indicate a gap.
		assert.NotZero(t, aLawTable[i], "A-law code %#x", i)
	}
	assert.NotEqual(t, aLawTable[0], aLawTable[128])
}

func TestIMA4DecodeBlockProducesRequestedFrameCount(t *testing.T) {
	align := 65
	blockBytes, blockFrames := BlockShape(TypeIMA4, align)
	block := make([]byte, blockBytes)
	// Minimal valid header: predictor=0, stepIndex=0, reserved=0.
	var st imaDecoderState
	out := make([]int16, blockFrames)
	DecodeIMA4Block(block, align, &st, out)
	assert.Len(t, out, blockFrames)
}

func TestMSADPCMDecodeBlockProducesRequestedFrameCount(t *testing.T) {
	align := 64
	blockBytes, blockFrames := BlockShape(TypeMSADPCM, align)
	block := make([]byte, blockBytes)
	out := make([]int16, blockFrames)
	DecodeMSADPCMBlock(block, align, out)
	assert.Len(t, out, blockFrames)
}
