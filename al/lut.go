// lut.go - lookup tables for the mixing hot path
//
// Table-plus-linear-interpolation, so the hot path never calls a
// transcendental function. fastSin is used by the FIR resampler's
// windowed-sinc kernel (resample.go); fastTanh currently has no caller.

package al

import "math"

const (
	sinLUTSize  = 8192
	sinLUTMask  = sinLUTSize - 1
	tanhLUTSize = 4096
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)
)

const (
	sinLUTScale  = float32(sinLUTSize) / (2 * math.Pi)
	tanhLUTScale = float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)
	twoPi        = float32(2 * math.Pi)
)

var sinLUT [sinLUTSize]float32
var tanhLUT [tanhLUTSize]float32

func init() {
	for i := 0; i < sinLUTSize; i++ {
		phase := float64(i) * 2 * math.Pi / float64(sinLUTSize)
		sinLUT[i] = float32(math.Sin(phase))
	}
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// fastSin returns sin(phase) via lookup table with linear interpolation.
//
//go:nosplit
func fastSin(phase float32) float32 {
	if phase < 0 {
		phase += twoPi * float32(int(-phase/twoPi)+1)
	} else if phase >= twoPi {
		phase -= twoPi * float32(int(phase/twoPi))
	}

	indexF := phase * sinLUTScale
	index := int(indexF)
	frac := indexF - float32(index)
	index &= sinLUTMask
	nextIndex := (index + 1) & sinLUTMask
	return sinLUT[index] + frac*(sinLUT[nextIndex]-sinLUT[index])
}

// fastTanh returns tanh(x) via lookup table with linear interpolation,
// saturating to -1/1 outside [tanhLUTMin, tanhLUTMax].
//
//go:nosplit
func fastTanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1.0
	}
	if x >= tanhLUTMax {
		return 1.0
	}
	indexF := (x - tanhLUTMin) * tanhLUTScale
	index := int(indexF)
	frac := indexF - float32(index)
	if index < 0 {
		return tanhLUT[0]
	}
	if index >= tanhLUTSize-1 {
		return tanhLUT[tanhLUTSize-1]
	}
	return tanhLUT[index] + frac*(tanhLUT[index+1]-tanhLUT[index])
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
