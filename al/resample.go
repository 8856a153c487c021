// resample.go - per-voice sample-rate conversion
//
// State is a 32.32 fixed-point phase accumulator plus N-1 history
// samples per channel, carried across a buffer-queue boundary without
// a discontinuity. Process switches on ResamplerKind once per call,
// outside the per-sample loops.

package al

import "github.com/klauspost/cpuid/v2"

type ResamplerKind int

const (
	ResamplerPoint ResamplerKind = iota
	ResamplerLinear
	ResamplerCubic
	ResamplerFIR12
	ResamplerFIR24
)

// kernelWidth sizes each kernel's per-channel history buffer; the FIR
// kernels also use it as their tap count (11 for FIR12, 23 for FIR24),
// centred on the current sample.
func (k ResamplerKind) kernelWidth() int {
	switch k {
	case ResamplerPoint:
		return 0
	case ResamplerLinear:
		return 1
	case ResamplerCubic:
		return 3
	case ResamplerFIR12:
		return 11
	case ResamplerFIR24:
		return 23
	default:
		return 1
	}
}

// forwardReach is how many samples past the frames a call will actually
// consume the kernel reads ahead, the overshoot gatherInput must supply
// from the next queued buffer or loop-start so sampleAt's forward taps
// see real samples instead of silently returning zero.
func (k ResamplerKind) forwardReach() int {
	switch k {
	case ResamplerPoint:
		return 0
	case ResamplerLinear:
		return 1
	case ResamplerCubic:
		return 2
	case ResamplerFIR12:
		return 5
	case ResamplerFIR24:
		return 11
	default:
		return 1
	}
}

// PreferredResamplerKind picks the richest band-limited FIR width the
// running CPU can sustain in realtime, falling back to cubic on modest
// hardware; detected once at context creation, never on the mixing
// hot path.
func PreferredResamplerKind() ResamplerKind {
	if cpuid.CPU.Supports(cpuid.AVX2) {
		return ResamplerFIR24
	}
	if cpuid.CPU.Supports(cpuid.SSE4) {
		return ResamplerFIR12
	}
	return ResamplerCubic
}

const fixedFracBits = 32

// resampler holds per-voice, per-input-channel conversion state.
type resampler struct {
	kind    ResamplerKind
	phase   uint64 // fixed-point fractional phase, 32.32
	step    uint64 // fixed-point phase increment per output sample
	history [][]float32
}

func newResampler(kind ResamplerKind, numChannels int) *resampler {
	width := kind.kernelWidth()
	hist := make([][]float32, numChannels)
	for i := range hist {
		hist[i] = make([]float32, width)
	}
	return &resampler{kind: kind, history: hist}
}

// SetRatio sets the conversion ratio srcRate*pitch/dstRate as a 32.32
// fixed-point increment.
func (r *resampler) SetRatio(srcRate, dstRate, pitch float64) {
	ratio := srcRate * pitch / dstRate
	r.step = uint64(ratio * float64(uint64(1)<<fixedFracBits))
}

// FramesNeeded returns how many more input frames must be available to
// produce count output frames, given the current step.
func (r *resampler) FramesNeeded(count int) int {
	total := r.phase + uint64(count)*r.step
	return int(total >> fixedFracBits)
}

// Process consumes frames from in (one channel's worth, float32) and
// produces len(out) resampled frames, using history for out-of-range
// taps. Returns the number of input frames actually consumed. in
// starts at the current play position: taps before in[0] read the
// history saved by SaveHistory, and taps past the end of in read as
// zero, so callers supply forwardReach extra frames beyond those they
// expect to consume.
func (r *resampler) Process(ch int, in []float32, out []float32) (consumed int) {
	switch r.kind {
	case ResamplerPoint:
		return r.processPoint(in, out)
	case ResamplerLinear:
		return r.processLinear(in, out)
	case ResamplerCubic:
		return r.processCubic(ch, in, out)
	default:
		return r.processFIR(ch, in, out)
	}
}

func (r *resampler) sampleAt(ch int, in []float32, idx int) float32 {
	hist := r.history[ch]
	if idx >= 0 {
		if idx < len(in) {
			return in[idx]
		}
		return 0
	}
	// Negative indices reach back into carried-over history.
	hi := len(hist) + idx
	if hi >= 0 && hi < len(hist) {
		return hist[hi]
	}
	return 0
}

func (r *resampler) processPoint(in, out []float32) int {
	for i := range out {
		idx := int(r.phase >> fixedFracBits)
		if idx >= len(in) {
			idx = len(in) - 1
			if idx < 0 {
				idx = 0
			}
		}
		if len(in) > 0 {
			out[i] = in[idx]
		}
		r.phase += r.step
	}
	return r.finishFrame(in)
}

func (r *resampler) processLinear(in, out []float32) int {
	for i := range out {
		idx := int(r.phase >> fixedFracBits)
		frac := float32(r.phase&((1<<fixedFracBits)-1)) / float32(uint64(1)<<fixedFracBits)
		a := r.sampleAt(0, in, idx)
		b := r.sampleAt(0, in, idx+1)
		out[i] = a + frac*(b-a)
		r.phase += r.step
	}
	return r.finishFrame(in)
}

func (r *resampler) processCubic(ch int, in, out []float32) int {
	for i := range out {
		idx := int(r.phase >> fixedFracBits)
		frac := float32(r.phase&((1<<fixedFracBits)-1)) / float32(uint64(1)<<fixedFracBits)
		p0 := r.sampleAt(ch, in, idx-1)
		p1 := r.sampleAt(ch, in, idx)
		p2 := r.sampleAt(ch, in, idx+1)
		p3 := r.sampleAt(ch, in, idx+2)
		out[i] = cubicInterp(p0, p1, p2, p3, frac)
		r.phase += r.step
	}
	return r.finishFrame(in)
}

func cubicInterp(p0, p1, p2, p3, frac float32) float32 {
	a0 := p3 - p2 - p0 + p1
	a1 := p0 - p1 - a0
	a2 := p2 - p0
	a3 := p1
	return a0*frac*frac*frac + a1*frac*frac + a2*frac + a3
}

// processFIR implements the band-limited kernels (FIR12/FIR24) as a
// windowed-sinc convolution over history+input, evaluating kernelWidth
// taps (11 or 23) from kernelWidth/2 frames behind to kernelWidth/2
// frames ahead of the current sample.
func (r *resampler) processFIR(ch int, in, out []float32) int {
	taps := r.kind.kernelWidth()
	half := taps / 2
	for i := range out {
		idx := int(r.phase >> fixedFracBits)
		frac := float32(r.phase&((1<<fixedFracBits)-1)) / float32(uint64(1)<<fixedFracBits)
		var acc float32
		for t := -half; t <= half; t++ {
			s := r.sampleAt(ch, in, idx+t)
			acc += s * sincWindow(float32(t)-frac, float32(half))
		}
		out[i] = acc
		r.phase += r.step
	}
	return r.finishFrame(in)
}

func sincWindow(x, half float32) float32 {
	if x == 0 {
		return 1
	}
	px := x * float32(pi)
	sinc := fastSin(px) / px
	// Hann window over the kernel support.
	w := 0.5 + 0.5*fastSin(px/(2*half)+float32(pi)/2)
	return sinc * w
}

const pi = 3.14159265358979323846

// finishFrame advances the integer-frame count consumed, saves the new
// tail of in as history for the next call, and resets phase's integer
// part so it stays a pure fraction between calls.
func (r *resampler) finishFrame(in []float32) int {
	consumed := int(r.phase >> fixedFracBits)
	if consumed > len(in) {
		consumed = len(in)
	}
	r.phase -= uint64(consumed) << fixedFracBits
	return consumed
}

// SaveHistory records the trailing width samples of a channel's
// now-consumed input as history for the next Process call, carrying
// state smoothly across buffer-queue boundaries.
func (r *resampler) SaveHistory(ch int, in []float32) {
	hist := r.history[ch]
	width := len(hist)
	if width == 0 || len(in) == 0 {
		return
	}
	if len(in) >= width {
		copy(hist, in[len(in)-width:])
		return
	}
	shift := width - len(in)
	copy(hist, hist[len(in):])
	copy(hist[shift:], in)
}

// Reset clears phase and history, used when a voice restarts from the
// head of its queue.
func (r *resampler) Reset() {
	r.phase = 0
	for _, h := range r.history {
		for i := range h {
			h[i] = 0
		}
	}
}
