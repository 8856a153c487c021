// voice.go - per-source mixer state, the engine's hot-path worker

package al

// gainSmoothStep is the maximum fraction of the gap between a channel's
// current and target gain that is allowed to close within one mixing
// period, avoiding zipper noise on sudden pans or volume changes.
const gainSmoothStep = 0.35

// Voice is the mixer-side counterpart to a Playing Source: resample
// state, filter state, and the previous period's gain vector, all
// owned exclusively by the mixing routine between periods.
type Voice struct {
	source *Source

	srcChannels int
	resampler   *resampler
	direct      []biquad // one per source channel
	sendFilt    [maxSends]biquad

	currentGains []float32 // indexed by device output channel
	targetGains  []float32

	hrtf     *hrirConvolver
	hrtfGain float32

	scratchIn  [][]float32 // per source channel, length >= framesNeeded
	scratchOut [][]float32 // per source channel, length == period frames

	stopping bool
}

func newVoice(source *Source) *Voice {
	return &Voice{source: source}
}

func (v *Voice) ensureCapacity(srcChannels, outChannels, periodFrames int) {
	if v.srcChannels != srcChannels || v.resampler == nil {
		v.srcChannels = srcChannels
		v.resampler = newResampler(v.source.ctx.resamplerKind, srcChannels)
		v.direct = make([]biquad, srcChannels)
		for i := range v.direct {
			v.direct[i].setCutoff(1)
		}
		v.scratchIn = make([][]float32, srcChannels)
		v.scratchOut = make([][]float32, srcChannels)
		for i := range v.scratchOut {
			v.scratchOut[i] = make([]float32, periodFrames)
		}
	}
	if len(v.currentGains) != outChannels {
		v.currentGains = make([]float32, outChannels)
		v.targetGains = make([]float32, outChannels)
	}
	for i := range v.scratchOut {
		if len(v.scratchOut[i]) != periodFrames {
			v.scratchOut[i] = make([]float32, periodFrames)
		}
	}
}

// gatherInput reads count frames of one channel starting at (buf,
// idx, startFrame), crossing into the loop-start or the next queued
// buffer when the current one runs out instead of leaving zeros, so a
// resample kernel never sees a discontinuity at a buffer-queue or loop
// boundary. Only a genuine end of stream (no loop, nothing left
// queued) zero-pads the tail.
func gatherInput(src *Source, idx int, buf *Buffer, startFrame, channel, count int) []float32 {
	out := make([]float32, count)
	curBuf := buf
	curIdx := idx
	pos := startFrame
	boundary, singleLoop, loopStart := src.segmentBounds(curIdx, curBuf)

	for i := 0; i < count; i++ {
		if pos >= boundary {
			if singleLoop {
				pos = loopStart
			} else {
				next, ok := src.nextQueuedBuffer(curIdx)
				if !ok {
					break
				}
				curIdx++
				curBuf = next
				pos = 0
			}
			boundary, singleLoop, loopStart = src.segmentBounds(curIdx, curBuf)
		}
		out[i] = curBuf.frameAt(pos, channel)
		pos++
	}
	return out
}

// mix runs one voice through one mixing period, accumulating its
// contribution into dryMix (sized [outChannels][periodFrames]) and into
// any auxiliary send targets, and reports whether the voice should keep
// running next period.
func (v *Voice) mix(ctx *Context, dryMix [][]float32, periodFrames int) bool {
	switch v.source.State() {
	case StatePaused:
		return true // keep the voice slot reserved, contribute silence
	case StatePlaying:
	default:
		return false
	}

	snap := v.source.snapshot()

	buf, bufIdx, bufFrame, ok := v.source.currentBuffer()
	if !ok {
		return false
	}

	srcChannels := buf.NumChannels()
	outChannels := len(dryMix)
	v.ensureCapacity(srcChannels, outChannels, periodFrames)

	v.resampler.SetRatio(float64(buf.Frequency()), float64(ctx.deviceRate), float64(snap.Pitch))
	needed := v.resampler.FramesNeeded(periodFrames)
	reach := v.resampler.kind.forwardReach()

	for ch := 0; ch < srcChannels; ch++ {
		v.scratchIn[ch] = gatherInput(v.source, bufIdx, buf, bufFrame, ch, needed+reach)
	}

	startPhase := v.resampler.phase
	consumed := 0
	for ch := 0; ch < srcChannels; ch++ {
		v.resampler.phase = startPhase
		consumed = v.resampler.Process(ch, v.scratchIn[ch], v.scratchOut[ch])
	}
	for ch := 0; ch < srcChannels; ch++ {
		v.resampler.SaveHistory(ch, v.scratchIn[ch][:min(consumed, len(v.scratchIn[ch]))])
	}

	drained := v.source.advanceCursor(consumed)

	for ch := 0; ch < srcChannels; ch++ {
		cutoff := snap.DirectFilterCutoff
		v.direct[ch].setCutoff(cutoff)
		out := v.scratchOut[ch]
		for i, s := range out {
			out[i] = v.direct[ch].process(s)
		}
	}

	v.computeTargetGains(ctx, snap, srcChannels, outChannels)
	if ctx.outputMode == OutputHRTF && ctx.hrtf != nil && srcChannels == 1 {
		v.accumulateHRTF(dryMix, periodFrames)
	} else {
		v.accumulate(ctx, dryMix, srcChannels, outChannels, periodFrames)
	}
	v.accumulateSends(snap, srcChannels, periodFrames)

	if drained && !snap_looping(v.source) {
		v.stopping = true
	}
	if v.stopping {
		v.source.Stop()
		return false
	}
	return true
}

func snap_looping(s *Source) bool { return s.Looping() && s.BuffersQueued() == 1 }

// computeTargetGains evaluates distance attenuation, cone attenuation,
// and the pan law once per period; per-sample interpolation toward
// these targets happens in accumulate.
func (v *Voice) computeTargetGains(ctx *Context, snap sourceParams, srcChannels, outChannels int) {
	listener := ctx.listener.snapshot()

	pos := snap.Position
	if !snap.Relative {
		pos = pos.Sub(listener.Position)
	}
	dist := pos.Length() * listener.MetersPerUnit

	distGain := DistanceGain(snap.DistanceModel, dist, snap.RefDistance, snap.MaxDist, snap.Rolloff)
	coneGain := float32(1)
	if srcChannels == 1 && (snap.ConeInner < 360 || snap.ConeOuter < 360) {
		angle := AngleBetween(pos.Scale(-1), snap.Direction)
		coneGain = ConeGain(angle, snap.ConeInner, snap.ConeOuter, snap.ConeOuterGain)
	}

	gain := clampF32(snap.Gain, snap.MinGain, snap.MaxGain) * distGain * coneGain * listener.Gain

	if srcChannels != 1 {
		// Multi-channel buffers route directly to matching output
		// channels at plain gain, bypassing 3D placement (the
		// conventional OpenAL behaviour for non-mono sources).
		for i := range v.targetGains {
			if i < srcChannels {
				v.targetGains[i] = gain
			} else {
				v.targetGains[i] = 0
			}
		}
		return
	}

	azimuth := float32(0)
	elevation := float32(0)
	if dist > 0 {
		dir := pos.Scale(1 / dist)
		azimuth = atan2Deg(dir.X, -dir.Z)
		elevation = asinDeg(dir.Y)
	}

	switch {
	case ctx.outputMode == OutputHRTF && ctx.hrtf != nil:
		// Select the nearest measured HRIR pair for this period's
		// placement; accumulateHRTF convolves the dry samples through it
		// directly into the binaural output below, so targetGains plays
		// no part in this mode.
		v.updateHRTF(ctx, azimuth, elevation, gain)
		for i := range v.targetGains {
			v.targetGains[i] = 0
		}
	case ctx.outputMode != OutputStandard:
		// Pan into the B-Format intermediate; Context.mixInto decodes
		// W,X,Y,Z down to the device's real output channels once per
		// period via the selected fixed decoder matrix.
		azRad := azimuth * pi32 / 180
		elRad := elevation * pi32 / 180
		w, x, y, z := EncodeBFormat(azRad, elRad, gain)
		v.targetGains[0], v.targetGains[1], v.targetGains[2], v.targetGains[3] = w, x, y, z
	case ctx.outputConfig == ChanStereo:
		PanStereo(azimuth, snap.StereoAngles, gain, v.targetGains)
	default:
		PanSurround(ctx.outputConfig, azimuth, elevation, gain, v.targetGains)
	}
}

// updateHRTF looks up the measurement nearest this period's azimuth/
// elevation and installs its impulse-response pair on the voice's
// convolver, allocated on first use.
func (v *Voice) updateHRTF(ctx *Context, azimuthDeg, elevationDeg, gain float32) {
	ds := ctx.hrtf
	if v.hrtf == nil {
		v.hrtf = newHRIRConvolver(ds.HRIRLength)
	}
	idx := ds.NearestMeasurement(azimuthDeg, elevationDeg)
	ir := ds.HRIRs[idx]
	v.hrtf.SetHRIR(ir[0], ir[1])
	v.hrtfGain = gain
}

const pi32 = float32(3.14159265358979323846)

func (v *Voice) accumulate(ctx *Context, dryMix [][]float32, srcChannels, outChannels, periodFrames int) {
	for outCh := 0; outCh < outChannels; outCh++ {
		target := float32(0)
		if outCh < len(v.targetGains) {
			target = v.targetGains[outCh]
		}
		cur := v.currentGains[outCh]
		dst := dryMix[outCh]

		inCh := outCh
		if srcChannels == 1 {
			inCh = 0
		} else if inCh >= srcChannels {
			continue
		}
		src := v.scratchOut[inCh]

		for i := 0; i < periodFrames; i++ {
			cur += (target - cur) * gainSmoothStep / float32(periodFrames)
			if i < len(src) {
				dst[i] += src[i] * cur
			}
		}
		v.currentGains[outCh] = cur
	}
}

// accumulateHRTF convolves this period's mono dry samples through the
// voice's per-ear HRIR pair, writing the result straight into dryMix's
// first two channels. HRTF output is already spatialized by the
// convolution itself, so it bypasses the gain-smoothing accumulate path
// entirely.
func (v *Voice) accumulateHRTF(dryMix [][]float32, periodFrames int) {
	if v.hrtf == nil || len(dryMix) < 2 {
		return
	}
	src := v.scratchOut[0]
	for i := 0; i < periodFrames; i++ {
		var s float32
		if i < len(src) {
			s = src[i] * v.hrtfGain
		}
		l, r := v.hrtf.Process(s)
		dryMix[0][i] += l
		dryMix[1][i] += r
	}
}

func (v *Voice) accumulateSends(snap sourceParams, srcChannels, periodFrames int) {
	for si := 0; si < maxSends; si++ {
		send := snap.Sends[si]
		if send.slot == nil || send.gain == 0 {
			continue
		}
		v.sendFilt[si].setCutoff(send.filterCut)
		for frame := 0; frame < periodFrames; frame++ {
			var mono float32
			for ch := 0; ch < srcChannels; ch++ {
				if frame < len(v.scratchOut[ch]) {
					mono += v.scratchOut[ch][frame]
				}
			}
			if srcChannels > 0 {
				mono /= float32(srcChannels)
			}
			mono = v.sendFilt[si].process(mono)
			send.slot.accumulateSend(mono, frame, send.gain)
		}
	}
}
