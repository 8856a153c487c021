package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 32, a.Dot(b), 1e-6)
}

func TestVec3NormalizeZeroVector(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestVec3NormalizeUnitLength(t *testing.T) {
	v := Vec3{3, 4, 0}.Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-4)
}

func TestListenerDefaults(t *testing.T) {
	l := newListener()
	snap := l.snapshot()
	assert.Equal(t, float32(1), snap.Gain)
	assert.Equal(t, Vec3{0, 0, -1}, snap.At)
}

func TestListenerUpdateRequiresPublish(t *testing.T) {
	l := newListener()
	l.SetGain(0.5)

	// Before publish, the live snapshot still reflects the old value.
	assert.Equal(t, float32(1), l.snapshot().Gain)

	l.publish()
	assert.Equal(t, float32(0.5), l.snapshot().Gain)
}
