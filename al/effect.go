// effect.go - auxiliary send routing graph
//
// Effect DSP itself is out of scope here; EffectProcessor is the
// opaque contract a real reverb/echo/chorus/distortion implementation
// would satisfy.

package al

// EffectProcessor is the out-of-scope DSP hook a slot calls once per
// mixing period.
type EffectProcessor interface {
	Process(input []float32, frameCount int) (output []float32)
}

type passthroughEffect struct{}

func (passthroughEffect) Process(input []float32, frameCount int) []float32 { return input }

// EffectSlot is a node in the auxiliary routing DAG.
type EffectSlot struct {
	id        handle
	gain      float32
	effect    EffectProcessor
	input     []float32
	output    []float32
	target    *EffectSlot // one level of effect chaining
	targetChs []int       // not consulted: Context.mixInto sums an untargeted slot into dry channel 0
}

func newEffectSlot(periodFrames int) *EffectSlot {
	return &EffectSlot{
		gain:   1,
		effect: passthroughEffect{},
		input:  make([]float32, periodFrames),
	}
}

func (s *EffectSlot) clearInput() {
	for i := range s.input {
		s.input[i] = 0
	}
}

func (s *EffectSlot) accumulateSend(sample float32, frame int, gain float32) {
	if frame < len(s.input) {
		s.input[frame] += sample * gain
	}
}

func (s *EffectSlot) SetGain(g float32) { s.gain = g }
func (s *EffectSlot) SetEffect(e EffectProcessor) {
	if e == nil {
		e = passthroughEffect{}
	}
	s.effect = e
}

// SetTarget routes this slot's output into another slot instead of the
// dry mix, rejecting cycles.
func (s *EffectSlot) SetTarget(target *EffectSlot) error {
	if target == s {
		return errf(InvalidOperation, "slot cannot target itself")
	}
	if target != nil && wouldCycle(target, s) {
		return errf(InvalidOperation, "routing would create a cycle")
	}
	s.target = target
	return nil
}

func wouldCycle(from, to *EffectSlot) bool {
	seen := map[*EffectSlot]bool{}
	cur := from
	for cur != nil {
		if cur == to {
			return true
		}
		if seen[cur] {
			return false // already-acyclic graph, defensive stop
		}
		seen[cur] = true
		cur = cur.target
	}
	return false
}

// process runs the slot's effect and returns its wet output, scaled by
// slot gain.
func (s *EffectSlot) process(frameCount int) []float32 {
	raw := s.effect.Process(s.input, frameCount)
	if s.output == nil || len(s.output) != len(raw) {
		s.output = make([]float32, len(raw))
	}
	for i, v := range raw {
		s.output[i] = v * s.gain
	}
	return s.output
}

// topoOrder returns slots ordered so a slot feeding another slot runs
// first, asserting the graph is acyclic.
func topoOrder(slots []*EffectSlot) ([]*EffectSlot, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*EffectSlot]int, len(slots))
	var order []*EffectSlot
	var visit func(s *EffectSlot) error
	visit = func(s *EffectSlot) error {
		switch color[s] {
		case black:
			return nil
		case gray:
			return errf(InvalidOperation, "effect slot graph contains a cycle")
		}
		color[s] = gray
		if s.target != nil {
			if err := visit(s.target); err != nil {
				return err
			}
		}
		color[s] = black
		order = append(order, s)
		return nil
	}
	for _, s := range slots {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	// visit appends in DFS finish order (targets finish before the
	// slots that feed them); reverse so producers run before the
	// slots that consume their output.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
