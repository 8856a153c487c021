// source.go - the application-visible Source object

package al

import "sync"

type SourceState int

const (
	StateInitial SourceState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// sendRoute is one (auxiliary-send filter, effect-slot) pair.
type sendRoute struct {
	slot       *EffectSlot
	filterCut  float32
	gain       float32
}

// sourceParams is the immutable snapshot published to the mixer once
// per period; it excludes the buffer queue and cursor,
// which are managed separately under Source.mu because they interact
// with FIFO consumption and unqueue semantics rather than simple
// parameter replacement.
type sourceParams struct {
	Position, Velocity, Direction Vec3
	Gain, MinGain, MaxGain        float32
	RefDistance, Rolloff, MaxDist float32
	ConeInner, ConeOuter          float32
	ConeOuterGain                 float32
	Relative                      bool
	Pitch                         float32
	DistanceModel                 DistanceModel
	DirectFilterCutoff            float32
	StereoAngles                  *[2]float32
	Sends                         [maxSends]sendRoute
}

const maxSends = 4

func defaultSourceParams() sourceParams {
	p := sourceParams{
		Gain: 1, MinGain: 0, MaxGain: 1,
		RefDistance: 1, Rolloff: 1, MaxDist: 0,
		ConeInner: 360, ConeOuter: 360, ConeOuterGain: 0,
		Pitch:              1,
		DistanceModel:      DistanceInverseClamped,
		DirectFilterCutoff: 1,
	}
	return p
}

// Source is the application-visible emitter handle.
type Source struct {
	id handle
	ctx *Context

	paramsMu spinlock
	pending  sourceParams
	dirty    bool
	live     *seqlock[sourceParams]

	mu               sync.Mutex
	state            SourceState
	queue            []*Buffer
	queueChannels    ChannelConfig
	queueType        SampleType
	queueAlign       int
	formatFixed      bool
	cursorIdx        int
	cursorFrame      int
	buffersProcessed int
	looping          bool
	loopOverride     *[2]int // explicit loop points overriding the buffer's own

	voice *Voice // not set: Context tracks a source's voice in voiceSource
}

func newSource(ctx *Context, id handle) *Source {
	initial := defaultSourceParams()
	return &Source{id: id, ctx: ctx, pending: initial, live: newSeqlock(initial)}
}

func (s *Source) update(fn func(*sourceParams)) {
	s.paramsMu.Lock()
	fn(&s.pending)
	s.dirty = true
	s.paramsMu.Unlock()
}

// publish swaps the pending snapshot into the live slot if dirty,
// called once per mixing period.
func (s *Source) publish() {
	s.paramsMu.Lock()
	if s.dirty {
		s.live.Publish(s.pending)
		s.dirty = false
	}
	s.paramsMu.Unlock()
}

func (s *Source) snapshot() sourceParams { return s.live.Load() }

// --- scalar/vector property setters ----------------------

func (s *Source) SetPosition(v Vec3)  { s.update(func(p *sourceParams) { p.Position = v }) }
func (s *Source) SetVelocity(v Vec3)  { s.update(func(p *sourceParams) { p.Velocity = v }) }
func (s *Source) SetDirection(v Vec3) { s.update(func(p *sourceParams) { p.Direction = v }) }
func (s *Source) SetGain(g float32)   { s.update(func(p *sourceParams) { p.Gain = g }) }
func (s *Source) SetPitch(p0 float32) error {
	if p0 <= 0 {
		return errf(InvalidValue, "pitch must be positive")
	}
	s.update(func(p *sourceParams) { p.Pitch = p0 })
	return nil
}
func (s *Source) SetGainRange(min, max float32) error {
	if min < 0 || max < min {
		return errf(InvalidValue, "invalid gain range")
	}
	s.update(func(p *sourceParams) { p.MinGain, p.MaxGain = min, max })
	return nil
}
func (s *Source) SetDistanceParams(refDist, rolloff, maxDist float32) error {
	if refDist < 0 || rolloff < 0 || maxDist < 0 {
		return errf(InvalidValue, "distance parameters must be non-negative")
	}
	s.update(func(p *sourceParams) { p.RefDistance, p.Rolloff, p.MaxDist = refDist, rolloff, maxDist })
	return nil
}
func (s *Source) SetCone(inner, outer, outerGain float32) error {
	if inner < 0 || outer < inner {
		return errf(InvalidValue, "invalid cone angles")
	}
	s.update(func(p *sourceParams) { p.ConeInner, p.ConeOuter, p.ConeOuterGain = inner, outer, outerGain })
	return nil
}
func (s *Source) SetRelative(rel bool) { s.update(func(p *sourceParams) { p.Relative = rel }) }
func (s *Source) SetDistanceModel(m DistanceModel) {
	s.update(func(p *sourceParams) { p.DistanceModel = m })
}
func (s *Source) SetStereoAngles(left, right float32) {
	s.update(func(p *sourceParams) { a := [2]float32{left, right}; p.StereoAngles = &a })
}
func (s *Source) SetAuxSend(index int, slot *EffectSlot, filterCutoff, gain float32) error {
	if index < 0 || index >= maxSends {
		return errf(InvalidValue, "aux send index out of range")
	}
	s.update(func(p *sourceParams) {
		p.Sends[index] = sendRoute{slot: slot, filterCut: filterCutoff, gain: gain}
	})
	return nil
}

func (s *Source) SetLooping(on bool) {
	s.mu.Lock()
	s.looping = on
	s.mu.Unlock()
}

func (s *Source) Looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.looping
}

func (s *Source) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BuffersProcessed reports how many queued buffers the mixer has fully
// consumed and is willing to release.
func (s *Source) BuffersProcessed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffersProcessed
}

func (s *Source) BuffersQueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// QueueBuffers appends buffers, validating format coherency with any
// already-queued buffer.
func (s *Source) QueueBuffers(bufs []*Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bufs {
		if b == nil {
			return errf(InvalidValue, "nil buffer in queue")
		}
		b.mu.RLock()
		channels, typ, align := b.channels, b.origType, b.blockAlgn
		b.mu.RUnlock()

		if !s.formatFixed {
			s.queueChannels, s.queueType, s.queueAlign = channels, typ, align
			s.formatFixed = true
		} else if channels != s.queueChannels || typ != s.queueType || align != s.queueAlign {
			return errf(InvalidOperation, "queued buffer format mismatch")
		}
	}
	for _, b := range bufs {
		b.addRef()
		s.queue = append(s.queue, b)
	}
	return nil
}

// UnqueueBuffers removes and returns the oldest n already-consumed
// buffers.
func (s *Source) UnqueueBuffers(n int) ([]*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.buffersProcessed {
		return nil, errf(InvalidValue, "unqueue count exceeds processed count")
	}
	removed := make([]*Buffer, n)
	copy(removed, s.queue[:n])
	s.queue = s.queue[n:]
	s.cursorIdx -= n
	s.buffersProcessed -= n
	for _, b := range removed {
		b.release()
	}
	return removed, nil
}

// Play implements the state machine's *->Playing transitions.
// Allocation of a mixer Voice is delegated to Context.
func (s *Source) Play() error {
	s.mu.Lock()
	switch s.state {
	case StateStopped, StateInitial:
		s.cursorIdx, s.cursorFrame = 0, 0
		s.buffersProcessed = 0
	case StatePlaying:
		// restart from the current cursor without interruption (tie-break)
	case StatePaused:
	}
	s.state = StatePlaying
	s.mu.Unlock()

	s.ctx.activateVoice(s)
	return nil
}

func (s *Source) Pause() error {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return nil
	}
	s.state = StatePaused
	s.mu.Unlock()
	return nil
}

func (s *Source) Stop() error {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.ctx.retireVoiceFor(s)
	return nil
}

func (s *Source) Rewind() error {
	s.mu.Lock()
	wasPlaying := s.state == StatePlaying
	s.state = StateInitial
	s.cursorIdx, s.cursorFrame = 0, 0
	s.buffersProcessed = 0
	s.mu.Unlock()
	if wasPlaying {
		s.ctx.retireVoiceFor(s)
	}
	return nil
}

// currentBuffer returns the buffer at the cursor, the cursor's queue
// index and frame offset into it, or nil if the queue is exhausted.
func (s *Source) currentBuffer() (buf *Buffer, idx, frame int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorIdx >= len(s.queue) {
		return nil, 0, 0, false
	}
	return s.queue[s.cursorIdx], s.cursorIdx, s.cursorFrame, true
}

// segmentBounds reports the frame at which playback of buf (at queue
// index idx) must continue from elsewhere, along with whether that
// continuation loops back within buf itself (true loopStart) rather
// than advancing to the next queued buffer. Mirrors the boundary rules
// advanceCursor applies when actually crossing them.
func (s *Source) segmentBounds(idx int, buf *Buffer) (boundary int, singleLoop bool, loopStart int) {
	s.mu.Lock()
	looping := s.looping && len(s.queue) == 1 && idx < len(s.queue) && s.queue[idx] == buf
	override := s.loopOverride
	s.mu.Unlock()

	buf.mu.RLock()
	length, lo, hi := buf.length, buf.loopStart, buf.loopEnd
	buf.mu.RUnlock()

	if looping {
		if override != nil {
			lo, hi = override[0], override[1]
		}
		if hi > lo {
			return hi, true, lo
		}
	}
	return length, false, 0
}

// nextQueuedBuffer returns the buffer immediately after idx in the
// queue, if any.
func (s *Source) nextQueuedBuffer(idx int) (*Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx+1 < len(s.queue) {
		return s.queue[idx+1], true
	}
	return nil, false
}

// advanceCursor moves the play cursor forward by frames consumed from
// the current buffer, handling end-of-buffer/loop/queue-drain, and
// returns whether a non-looping drain just occurred (the caller stops
// the voice when this is true).
func (s *Source) advanceCursor(consumed int) (drained bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorIdx >= len(s.queue) {
		return true
	}
	buf := s.queue[s.cursorIdx]
	buf.mu.RLock()
	length := buf.length
	loopStart, loopEnd := buf.loopStart, buf.loopEnd
	buf.mu.RUnlock()

	s.cursorFrame += consumed

	singleLooping := s.looping && len(s.queue) == 1
	if singleLooping {
		lo, hi := loopStart, loopEnd
		if s.loopOverride != nil {
			lo, hi = s.loopOverride[0], s.loopOverride[1]
		}
		span := hi - lo
		if span > 0 && s.cursorFrame >= hi {
			s.cursorFrame = lo + (s.cursorFrame-lo)%span
		}
		return false
	}

	if s.cursorFrame >= length {
		s.buffersProcessed++
		s.cursorIdx++
		s.cursorFrame -= length
		if s.cursorIdx >= len(s.queue) {
			return true
		}
	}
	return false
}
