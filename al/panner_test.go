package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceGainAtReferenceDistanceIsUnity(t *testing.T) {
	models := []DistanceModel{
		DistanceInverse, DistanceInverseClamped,
		DistanceLinear, DistanceLinearClamped,
		DistanceExponent, DistanceExponentClamped,
	}
	for _, m := range models {
		g := DistanceGain(m, 10, 10, 100, 1)
		assert.InDelta(t, 1.0, g, 1e-5, "model %v", m)
	}
}

func TestDistanceGainNoneIsAlwaysUnity(t *testing.T) {
	assert.Equal(t, float32(1), DistanceGain(DistanceNone, 1000, 1, 10, 1))
}

func TestDistanceGainMonotonicallyDecreasing(t *testing.T) {
	near := DistanceGain(DistanceInverseClamped, 10, 1, 100, 1)
	far := DistanceGain(DistanceInverseClamped, 50, 1, 100, 1)
	assert.Greater(t, near, far)
}

func TestConeGainInsideInnerAngleIsUnity(t *testing.T) {
	assert.Equal(t, float32(1), ConeGain(10, 60, 120, 0.2))
}

func TestConeGainOutsideOuterAngleIsOuterGain(t *testing.T) {
	assert.Equal(t, float32(0.2), ConeGain(170, 60, 120, 0.2))
}

func TestPanStereoCenterIsEqualPower(t *testing.T) {
	out := make(gainVector, 2)
	PanStereo(0, nil, 1, out)
	assert.InDelta(t, out[0], out[1], 1e-3)
}

func TestPanStereoHonoursOverrideAngles(t *testing.T) {
	angles := [2]float32{-90, 90}
	out := make(gainVector, 2)
	PanStereo(-90, &angles, 1, out)
	assert.InDelta(t, 1.0, out[0], 1e-3)
	assert.InDelta(t, 0.0, out[1], 1e-3)
}

func TestPanSurroundFillsAllChannels(t *testing.T) {
	out := make(gainVector, Chan51.NumChannels())
	PanSurround(Chan51, 0, 0, 1, out)
	nonZero := 0
	for _, g := range out {
		if g > 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0)
}

func TestAngleBetweenOppositeVectorsIs180(t *testing.T) {
	a := AngleBetween(Vec3{0, 0, 1}, Vec3{0, 0, -1})
	assert.InDelta(t, 180, a, 0.5)
}
