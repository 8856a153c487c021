// listener.go - the single per-context Listener entity

package al

import "math"

// Vec3 is a plain 3D vector — position, velocity, or a direction.
type Vec3 struct{ X, Y, Z float32 }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// listenerState is the immutable snapshot published to the mixer once
// per period through the update protocol.
type listenerState struct {
	Position    Vec3
	Velocity    Vec3
	At, Up      Vec3
	Gain        float32
	MetersPerUnit float32
}

// Listener is the application-visible handle; mutation goes through the
// same dirty-flag + snapshot-swap protocol as Source.
type Listener struct {
	mu      spinlock
	pending listenerState
	dirty   bool
	live    *seqlock[listenerState]
}

func newListener() *Listener {
	initial := listenerState{At: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}, Gain: 1, MetersPerUnit: 1}
	return &Listener{pending: initial, live: newSeqlock(initial)}
}

func (l *Listener) SetPosition(p Vec3) { l.update(func(s *listenerState) { s.Position = p }) }
func (l *Listener) SetVelocity(v Vec3) { l.update(func(s *listenerState) { s.Velocity = v }) }
func (l *Listener) SetOrientation(at, up Vec3) {
	l.update(func(s *listenerState) { s.At, s.Up = at, up })
}
func (l *Listener) SetGain(g float32) { l.update(func(s *listenerState) { s.Gain = g }) }
func (l *Listener) SetMetersPerUnit(m float32) {
	l.update(func(s *listenerState) { s.MetersPerUnit = m })
}

func (l *Listener) update(fn func(*listenerState)) {
	l.mu.Lock()
	fn(&l.pending)
	l.dirty = true
	l.mu.Unlock()
}

// publish swaps the pending snapshot into the live slot if dirty,
// called once per mixing period before voices are processed.
func (l *Listener) publish() {
	l.mu.Lock()
	if l.dirty {
		l.live.Publish(l.pending)
		l.dirty = false
	}
	l.mu.Unlock()
}

func (l *Listener) snapshot() listenerState {
	return l.live.Load()
}
