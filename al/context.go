// context.go - the Context mixer core

package al

import (
	"sync"
	"sync/atomic"
)

// Context is a rendering context: one Listener, a set of Sources, a
// fixed-size voice array, and the effect-slot graph that processes
// their sends. Multiple Contexts may share a Device's backend
// connection; their outputs are summed.
type Context struct {
	device *Device

	deviceRate   int
	outputConfig ChannelConfig
	outputMode   OutputMode
	resamplerKind ResamplerKind
	hrtf         *HRTFDataset

	listener *Listener

	sources *registry[*Source]
	slots   *registry[*EffectSlot]

	voiceActive []atomic.Bool
	voices      []*Voice
	voiceSource []atomic.Pointer[Source]

	periodFrames int
	ambMix       [][]float32 // reused B-Format scratch, allocated lazily

	errMu sync.Mutex
	errs  errLatch

	destroyed atomic.Bool
}

func newContext(d *Device) *Context {
	max := d.spec.MaxVoices
	kind := d.spec.ResamplerKind
	if kind == 0 {
		kind = PreferredResamplerKind()
	}
	c := &Context{
		device:        d,
		deviceRate:    d.spec.Rate,
		outputConfig:  d.spec.OutputConfig,
		outputMode:    d.spec.OutputMode,
		resamplerKind: kind,
		hrtf:          d.spec.HRTF,
		listener:      newListener(),
		sources:       newRegistry[*Source](),
		slots:         newRegistry[*EffectSlot](),
		voiceActive:   make([]atomic.Bool, max),
		voices:        make([]*Voice, max),
		voiceSource:   make([]atomic.Pointer[Source], max),
		periodFrames:  d.spec.PeriodFrames,
	}
	return c
}

// NewSource allocates a Source handle on this context.
func (c *Context) NewSource() *Source {
	s := newSource(c, 0)
	s.id = c.sources.New(s)
	return s
}

// DestroySource releases a Source, failing if it is still referenced by
// an active voice (Playing or Paused).
func (c *Context) DestroySource(s *Source) error {
	if st := s.State(); st == StatePlaying || st == StatePaused {
		return errf(InvalidOperation, "source is playing or paused")
	}
	c.retireVoiceFor(s)
	c.sources.Remove(s.id)
	return nil
}

// NewBuffer allocates a Buffer handle on the owning device (buffers are
// shared across every context on a device,).
func (c *Context) NewBuffer() *Buffer {
	b := newBuffer()
	b.id = c.device.buffers.New(b)
	return b
}

func (c *Context) DestroyBuffer(b *Buffer) error {
	if b.InUse() {
		return errf(InvalidOperation, "buffer referenced by a source")
	}
	c.device.buffers.Remove(b.id)
	return nil
}

// NewEffectSlot allocates an EffectSlot sized to this context's period.
func (c *Context) NewEffectSlot() *EffectSlot {
	slot := newEffectSlot(c.periodFrames)
	slot.id = c.slots.New(slot)
	return slot
}

func (c *Context) Listener() *Listener { return c.listener }

func (c *Context) LastError() Code {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.errs.get()
}

// activateVoice allocates a free voice slot for a newly Playing source,
// lock-free via CAS over the active-flag array so the API thread never
// blocks the mixer.
func (c *Context) activateVoice(s *Source) {
	for i := range c.voiceSource {
		if c.voiceSource[i].Load() == s {
			return // already voiced (Playing or Paused): keep mixing it
		}
	}
	for i := range c.voiceActive {
		if c.voiceActive[i].CompareAndSwap(false, true) {
			v := c.voices[i]
			if v == nil || v.source != s {
				v = newVoice(s)
				c.voices[i] = v
			} else {
				v.stopping = false
				if v.resampler != nil {
					v.resampler.Reset()
				}
			}
			c.voiceSource[i].Store(s)
			return
		}
	}
	c.device.spec.Metrics.recordVoiceDropped()
	c.errMu.Lock()
	c.errs.set(OutOfMemory)
	c.errMu.Unlock()
}

// retireVoiceFor frees the voice slot (if any) backing s.
func (c *Context) retireVoiceFor(s *Source) {
	for i := range c.voiceSource {
		if c.voiceSource[i].Load() == s {
			c.voiceSource[i].Store(nil)
			c.voiceActive[i].Store(false)
			return
		}
	}
}

// mixInto renders this context's contribution for one period and sums
// it, frame-interleaved, into dst.
func (c *Context) mixInto(dst []float32, frameCount, channels int) {
	if c.destroyed.Load() {
		return
	}

	c.listener.publish()
	sources := c.sources.Values()
	for _, s := range sources {
		s.publish()
	}

	hrtfMode := c.outputMode == OutputHRTF && c.hrtf != nil
	ambisonic := c.outputMode != OutputStandard && !hrtfMode
	dryChannels := channels
	switch {
	case hrtfMode:
		dryChannels = 2 // per-ear convolution output, already decoded to L/R
	case ambisonic:
		dryChannels = numAmbisonicChannels(AmbisonicFirstOrder)
	}
	dry := c.dryBuffer(dryChannels, frameCount)

	active := 0
	for i := range c.voiceActive {
		if !c.voiceActive[i].Load() {
			continue
		}
		v := c.voices[i]
		if v == nil {
			c.voiceActive[i].Store(false)
			continue
		}
		if !v.mix(c, dry, frameCount) {
			c.voiceSource[i].Store(nil)
			c.voiceActive[i].Store(false)
			continue
		}
		active++
	}
	c.device.spec.Metrics.setActiveVoices(active)

	slots := c.slots.Values()
	if order, err := topoOrder(slots); err == nil {
		for _, slot := range order {
			wet := slot.process(frameCount)
			if slot.target != nil {
				for i, v := range wet {
					slot.target.accumulateSend(v, i, 1)
				}
			} else {
				for i, v := range wet {
					if i < frameCount && dryChannels > 0 {
						dry[0][i] += v
					}
				}
			}
			slot.clearInput()
		}
	}

	if ambisonic {
		matrix := decoderFor(c.outputMode)
		for frame := 0; frame < frameCount; frame++ {
			out := decodeAmbisonic(matrix, dry[0][frame], dry[1][frame], dry[2][frame], dry[3][frame])
			for ch := 0; ch < channels && ch < len(out); ch++ {
				idx := frame*channels + ch
				if idx < len(dst) {
					dst[idx] += out[ch]
				}
			}
		}
		return
	}

	for ch := 0; ch < channels && ch < len(dry); ch++ {
		for frame := 0; frame < frameCount; frame++ {
			idx := frame*channels + ch
			if idx < len(dst) {
				dst[idx] += dry[ch][frame]
			}
		}
	}
}

func (c *Context) dryBuffer(channels, frameCount int) [][]float32 {
	if len(c.ambMix) != channels || (len(c.ambMix) > 0 && len(c.ambMix[0]) != frameCount) {
		c.ambMix = make([][]float32, channels)
		for i := range c.ambMix {
			c.ambMix[i] = make([]float32, frameCount)
		}
	}
	for i := range c.ambMix {
		for j := range c.ambMix[i] {
			c.ambMix[i][j] = 0
		}
	}
	return c.ambMix
}

func (c *Context) destroy() {
	c.destroyed.Store(true)
}
