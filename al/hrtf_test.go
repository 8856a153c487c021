package al

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalHRTF constructs a byte-valid MinPHR dataset: one field at
// 1m with 5 single-azimuth elevations (5 measurements), 16-point HRIRs.
func buildMinimalHRTF(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	put16 := func(v uint16) { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); buf = append(buf, b...) }
	put32 := func(v uint32) { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); buf = append(buf, b...) }
	put8 := func(v uint8) { buf = append(buf, v) }

	buf = append(buf, []byte(hrtfMagic)...)
	put8(1) // version
	put16(0) // pad

	put32(44100)  // sample rate
	put8(0)       // channel type
	put8(1)       // numFields

	put16(1000) // distance mm (1.0m)
	put8(5)     // elevations
	for e := 0; e < 5; e++ {
		put8(1) // one azimuth per elevation
	}

	const hrirPoints = 16
	put16(hrirPoints)

	const measurements = 5
	for m := 0; m < measurements; m++ {
		for i := 0; i < hrirPoints; i++ {
			put16(0) // left
		}
		for i := 0; i < hrirPoints; i++ {
			put16(0) // right
		}
	}
	for m := 0; m < measurements; m++ {
		put8(0)
		put8(0)
	}
	return buf
}

func TestLoadHRTFParsesMinimalDataset(t *testing.T) {
	data := buildMinimalHRTF(t)
	ds, err := LoadHRTF(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), ds.SampleRate)
	assert.Equal(t, 16, ds.HRIRLength)
	assert.Len(t, ds.HRIRs, 5)
}

func TestLoadHRTFRejectsBadMagic(t *testing.T) {
	data := buildMinimalHRTF(t)
	data[0] = 'X'
	_, err := LoadHRTF(data)
	assert.Error(t, err)
}

func TestLoadHRTFRejectsTruncatedData(t *testing.T) {
	data := buildMinimalHRTF(t)
	_, err := LoadHRTF(data[:len(data)-10])
	assert.Error(t, err)
}

func TestHRIRConvolverPassthroughWithoutHRIR(t *testing.T) {
	c := newHRIRConvolver(16)
	l, r := c.Process(0.5)
	assert.Equal(t, float32(0.5), l)
	assert.Equal(t, float32(0.5), r)
}

func TestHRIRConvolverAppliesImpulseResponse(t *testing.T) {
	c := newHRIRConvolver(4)
	impulse := []float32{1, 0, 0, 0}
	c.SetHRIR(impulse, impulse)
	l, r := c.Process(1)
	assert.Equal(t, float32(1), l)
	assert.Equal(t, float32(1), r)
	l, r = c.Process(0)
	assert.Equal(t, float32(0), l)
	assert.Equal(t, float32(0), r)
}

func TestNearestMeasurementReturnsValidIndex(t *testing.T) {
	data := buildMinimalHRTF(t)
	ds, err := LoadHRTF(data)
	require.NoError(t, err)
	idx := ds.NearestMeasurement(0, 0)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, len(ds.HRIRs))
}
