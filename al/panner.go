// panner.go - stereo/surround panning and distance attenuation,
// non-HRTF path

package al

import "math"

// DistanceModel selects one of the three attenuation curves, each
// available clamped or unclamped.
type DistanceModel int

const (
	DistanceInverse DistanceModel = iota
	DistanceInverseClamped
	DistanceLinear
	DistanceLinearClamped
	DistanceExponent
	DistanceExponentClamped
	DistanceNone
)

// DistanceGain computes the attenuation factor for a distance model.
// All models yield gain == 1 at dist == refDist and are monotonically
// non-increasing thereafter.
func DistanceGain(model DistanceModel, dist, refDist, maxDist, rolloff float32) float32 {
	clampDist := func(d float32) float32 {
		if d < refDist {
			return refDist
		}
		if maxDist > 0 && d > maxDist {
			return maxDist
		}
		return d
	}

	switch model {
	case DistanceNone:
		return 1
	case DistanceInverse:
		return inverseGain(dist, refDist, rolloff)
	case DistanceInverseClamped:
		return inverseGain(clampDist(dist), refDist, rolloff)
	case DistanceLinear:
		return linearGain(dist, refDist, maxDist, rolloff)
	case DistanceLinearClamped:
		return linearGain(clampDist(dist), refDist, maxDist, rolloff)
	case DistanceExponent:
		return exponentGain(dist, refDist, rolloff)
	case DistanceExponentClamped:
		return exponentGain(clampDist(dist), refDist, rolloff)
	default:
		return 1
	}
}

func inverseGain(dist, refDist, rolloff float32) float32 {
	if refDist == 0 {
		return 1
	}
	denom := refDist + rolloff*(dist-refDist)
	if denom <= 0 {
		return 1
	}
	return refDist / denom
}

func linearGain(dist, refDist, maxDist, rolloff float32) float32 {
	if maxDist <= refDist {
		return 1
	}
	g := 1 - rolloff*(dist-refDist)/(maxDist-refDist)
	return clampF32(g, 0, 1)
}

func exponentGain(dist, refDist, rolloff float32) float32 {
	if refDist == 0 || dist == 0 {
		return 1
	}
	return float32(math.Pow(float64(dist/refDist), float64(-rolloff)))
}

// ConeGain computes the cone-attenuation multiplier for a directional
// source.
func ConeGain(angleDeg, innerDeg, outerDeg, outerGain float32) float32 {
	half := angleDeg
	if half <= innerDeg/2 {
		return 1
	}
	if half >= outerDeg/2 || outerDeg <= innerDeg {
		return outerGain
	}
	t := (half - innerDeg/2) / (outerDeg/2 - innerDeg/2)
	return 1 + t*(outerGain-1)
}

// AngleBetween returns the angle in degrees between the listener-to-
// source vector and the source's facing direction.
func AngleBetween(toSource, facing Vec3) float32 {
	toSource = toSource.Normalize()
	facing = facing.Normalize()
	if toSource == (Vec3{}) || facing == (Vec3{}) {
		return 0
	}
	dot := clampF32(toSource.Dot(facing), -1, 1)
	return float32(math.Acos(float64(dot))) * 180 / float32(math.Pi)
}

// defaultStereoAngles is the +/-30 degree stereo law used for plain
// stereo output when no per-source override is set.
var defaultStereoAngles = [2]float32{-30, 30}

// gainVector is a per-output-channel gain target, sized to the
// device's channel count.
type gainVector []float32

// PanStereo places a source at the given azimuth (degrees, 0 = front,
// positive = right) into a stereo gain vector using an equal-power law,
// honoring a source's stereo_angles override if non-nil.
func PanStereo(azimuthDeg float32, overrideAngles *[2]float32, gain float32, out gainVector) {
	angles := defaultStereoAngles
	if overrideAngles != nil {
		angles = *overrideAngles
	}
	span := angles[1] - angles[0]
	if span == 0 {
		out[0], out[1] = gain, gain
		return
	}
	t := clampF32((azimuthDeg-angles[0])/span, 0, 1)
	theta := t * (math.Pi / 2)
	out[0] = gain * float32(math.Cos(float64(theta)))
	out[1] = gain * float32(math.Sin(float64(theta)))
}

// PanSurround distributes a source across an arbitrary speaker layout
// using simple vector-base amplitude panning over azimuth, equal gain
// to all channels of a B-Format/ambisonic target being handled instead
// by ambisonic.go.
func PanSurround(config ChannelConfig, azimuthDeg, elevationDeg, gain float32, out gainVector) {
	n := config.NumChannels()
	if n == 0 || len(out) < n {
		return
	}
	speakerAngles := speakerLayout(config)
	for i := 0; i < n; i++ {
		diff := angleDiff(azimuthDeg, speakerAngles[i])
		w := clampF32(1-absF32(diff)/180, 0, 1)
		out[i] = gain * w
	}
}

func angleDiff(a, b float32) float32 {
	d := a - b
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// atan2Deg and asinDeg convert a direction's horizontal/vertical
// components into the azimuth/elevation degrees the panning functions
// expect (0 degrees azimuth = straight ahead, positive = clockwise).
func atan2Deg(x, z float32) float32 {
	return float32(math.Atan2(float64(x), float64(z))) * 180 / float32(math.Pi)
}

func asinDeg(y float32) float32 {
	return float32(math.Asin(float64(clampF32(y, -1, 1)))) * 180 / float32(math.Pi)
}

func speakerLayout(config ChannelConfig) []float32 {
	switch config {
	case ChanMono:
		return []float32{0}
	case ChanStereo:
		return []float32{-30, 30}
	case ChanRear:
		return []float32{-150, 150}
	case ChanQuad:
		return []float32{-30, 30, -150, 150}
	case Chan51:
		return []float32{-30, 30, 0, 0, -110, 110}
	case Chan61:
		return []float32{-30, 30, 0, 0, 180, -110, 110}
	case Chan71:
		return []float32{-30, 30, 0, 0, -150, 150, -110, 110}
	default:
		return make([]float32, config.NumChannels())
	}
}
