// hrtf.go - HRTF dataset loading and per-ear convolution
//
// Convolution is a direct-form FIR run once per mixing-period sample.
// Virtual-speaker HRIRs for a first-order Ambisonic decode are short
// (tens to low hundreds of taps), so a time-domain convolver is cheap
// enough here; see DESIGN.md for why this isn't frequency-domain.

package al

import (
	"encoding/binary"
	"errors"
)

const hrtfMagic = "MinPHR"

// HRTFField describes one measurement distance's elevation/azimuth grid.
type HRTFField struct {
	DistanceMM    uint16
	Elevations    uint8
	AzimuthCounts []uint8
}

// HRTFDataset is a loaded, validated HRIR table.
type HRTFDataset struct {
	SampleRate  uint32
	ChannelType uint8
	Fields      []HRTFField
	HRIRLength  int
	HRIRs       [][2][]float32 // per measurement, left/right ear impulse responses
	Delays      [][2]uint8
}

// LoadHRTF parses the little-endian MinPHR binary format, validating
// every field/measurement count as it goes.
func LoadHRTF(data []byte) (*HRTFDataset, error) {
	if len(data) < len(hrtfMagic)+9 {
		return nil, errf(InvalidValue, "HRTF file too short")
	}
	if string(data[:len(hrtfMagic)]) != hrtfMagic {
		return nil, errf(InvalidValue, "bad HRTF magic")
	}
	r := &byteReader{buf: data, pos: len(hrtfMagic) + 3} // magic + version/pad bytes per header

	sampleRate := r.u32()
	if sampleRate < 32000 || sampleRate > 96000 {
		return nil, errf(InvalidValue, "HRTF sample rate out of range")
	}
	channelType := r.u8()
	numFields := int(r.u8())
	if numFields <= 0 {
		return nil, errf(InvalidValue, "HRTF dataset has no fields")
	}

	fields := make([]HRTFField, numFields)
	totalMeasurements := 0
	for i := 0; i < numFields; i++ {
		distMM := r.u16()
		distM := float32(distMM) / 1000
		if distM < 0.05 || distM > 2.5 {
			return nil, errf(InvalidValue, "HRTF field distance out of range")
		}
		elev := r.u8()
		if elev < 5 || elev > 181 {
			return nil, errf(InvalidValue, "HRTF elevation count out of range")
		}
		azCounts := make([]uint8, elev)
		for e := 0; e < int(elev); e++ {
			az := r.u8()
			if az < 1 {
				return nil, errf(InvalidValue, "HRTF azimuth count out of range")
			}
			azCounts[e] = az
			totalMeasurements += int(az)
		}
		fields[i] = HRTFField{DistanceMM: distMM, Elevations: elev, AzimuthCounts: azCounts}
	}

	hrirPoints := int(r.u16())
	if hrirPoints < 16 || hrirPoints > 8192 || hrirPoints%8 != 0 {
		return nil, errf(InvalidValue, "HRTF HRIR length invalid")
	}

	if r.err != nil {
		return nil, errf(InvalidValue, "truncated HRTF header")
	}

	hrirs := make([][2][]float32, totalMeasurements)
	for m := 0; m < totalMeasurements; m++ {
		left := make([]float32, hrirPoints)
		right := make([]float32, hrirPoints)
		for i := 0; i < hrirPoints; i++ {
			left[i] = float32(r.s16()) / 32768.0
		}
		for i := 0; i < hrirPoints; i++ {
			right[i] = float32(r.s16()) / 32768.0
		}
		hrirs[m] = [2][]float32{left, right}
	}

	delays := make([][2]uint8, totalMeasurements)
	for m := 0; m < totalMeasurements; m++ {
		delays[m] = [2]uint8{r.u8(), r.u8()}
	}

	if r.err != nil {
		return nil, errf(InvalidValue, "truncated HRTF measurement data")
	}

	return &HRTFDataset{
		SampleRate:  sampleRate,
		ChannelType: channelType,
		Fields:      fields,
		HRIRLength:  hrirPoints,
		HRIRs:       hrirs,
		Delays:      delays,
	}, nil
}

type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) need(n int) bool {
	if r.err != nil || r.pos+n > len(r.buf) {
		r.err = errors.New("truncated")
		return false
	}
	return true
}

func (r *byteReader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *byteReader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *byteReader) s16() int16 {
	return int16(r.u16())
}

// hrirConvolver holds the per-ear FIR state for one voice's virtual
// placement, reset whenever the nearest measurement changes more than
// a crossfade threshold would allow to happen instantaneously (left to
// the caller; this type does the convolution itself only).
type hrirConvolver struct {
	left, right   []float32
	historyL, historyR []float32
}

func newHRIRConvolver(length int) *hrirConvolver {
	return &hrirConvolver{
		historyL: make([]float32, length),
		historyR: make([]float32, length),
	}
}

// SetHRIR installs a new pair of impulse responses (e.g. selected by
// nearest-direction lookup against an HRTFDataset).
func (c *hrirConvolver) SetHRIR(left, right []float32) {
	c.left, c.right = left, right
}

// Process convolves one input sample through both ears' FIR, using a
// direct-form history buffer shifted by one each call (partitioned only in the sense
// that callers invoke this once per mixing-period sample; see the file
// header for why this isn't frequency-domain).
func (c *hrirConvolver) Process(x float32) (l, r float32) {
	n := len(c.left)
	if n == 0 {
		return x, x
	}
	copy(c.historyL[1:], c.historyL[:n-1])
	copy(c.historyR[1:], c.historyR[:n-1])
	c.historyL[0] = x
	c.historyR[0] = x
	for i := 0; i < n; i++ {
		l += c.historyL[i] * c.left[i]
		r += c.historyR[i] * c.right[i]
	}
	return
}

// NearestMeasurement finds the measurement index in a dataset closest
// to the requested azimuth/elevation within the nearest available
// field distance, a simple nearest-neighbour lookup sufficient for
// virtual-speaker placement.
func (d *HRTFDataset) NearestMeasurement(azimuthDeg, elevationDeg float32) int {
	best := 0
	bestDist := float32(1 << 30)
	idx := 0
	for _, f := range d.Fields {
		elevStep := float32(180) / float32(f.Elevations-1+1)
		for e := 0; e < int(f.Elevations); e++ {
			elev := -90 + float32(e)*elevStep
			azCount := f.AzimuthCounts[e]
			azStep := float32(360) / float32(azCount)
			for a := 0; a < int(azCount); a++ {
				az := float32(a) * azStep
				dE := elev - elevationDeg
				dA := angleDiff(az, azimuthDeg)
				dist := dE*dE + dA*dA
				if dist < bestDist {
					bestDist = dist
					best = idx
				}
				idx++
			}
		}
	}
	return best
}
