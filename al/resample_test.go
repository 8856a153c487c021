package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResamplerUnityRatioPointKernelIsIdentity(t *testing.T) {
	r := newResampler(ResamplerPoint, 1)
	r.SetRatio(48000, 48000, 1)

	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	consumed := r.Process(0, in, out)

	assert.Equal(t, 4, consumed)
	assert.Equal(t, in, out)
}

func TestResamplerFramesNeededScalesWithRatio(t *testing.T) {
	r := newResampler(ResamplerLinear, 1)
	r.SetRatio(48000, 24000, 1) // source is twice the device rate
	assert.Equal(t, 20, r.FramesNeeded(10))
}

func TestResamplerLinearHalfRateTakesEveryOtherSample(t *testing.T) {
	r := newResampler(ResamplerLinear, 1)
	r.SetRatio(2, 1, 1) // half-rate output: every other input sample, phase advances by 2 per output
	in := []float32{0, 10, 20, 30}
	out := make([]float32, 2)
	r.Process(0, in, out)
	assert.InDelta(t, 0, out[0], 1e-4)
	assert.InDelta(t, 20, out[1], 1e-4)
}

func TestResamplerHistoryCarriesAcrossBuffers(t *testing.T) {
	r := newResampler(ResamplerLinear, 1)
	r.SetRatio(48000, 48000, 1)

	first := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	consumed := r.Process(0, first, out)
	r.SaveHistory(0, first[:consumed])

	// sampleAt with a negative index should now reach into the saved tail.
	assert.Equal(t, float32(4), r.sampleAt(0, nil, -1))
}

func TestResamplerResetClearsState(t *testing.T) {
	r := newResampler(ResamplerCubic, 2)
	r.SetRatio(44100, 48000, 1)
	r.phase = 12345
	r.SaveHistory(0, []float32{1, 2, 3})
	r.Reset()

	assert.Equal(t, uint64(0), r.phase)
	for _, h := range r.history {
		for _, v := range h {
			assert.Equal(t, float32(0), v)
		}
	}
}

func TestPreferredResamplerKindReturnsAValidKind(t *testing.T) {
	kind := PreferredResamplerKind()
	assert.Contains(t, []ResamplerKind{ResamplerCubic, ResamplerFIR12, ResamplerFIR24}, kind)
}
