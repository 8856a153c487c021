//go:build !headless

// backend_oto.go - oto/v3 backed AudioBackend. Open takes the
// rate/channel count the Context negotiated and drains samples from
// the mixer's pull callback on oto's own read goroutine.

package al

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend plays interleaved float32 frames produced by a Device
// through oto/v3, calling the Device's pull callback directly from
// oto's read goroutine.
type OtoBackend struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool

	channels int
	pull     func(dst []float32)
	scratch  []float32
}

func NewOtoBackend() *OtoBackend { return &OtoBackend{} }

func (op *OtoBackend) Open(rate, channels int, pull func(dst []float32)) error {
	op.mu.Lock()
	defer op.mu.Unlock()

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0, // oto default, relies on its own internal double buffering
	})
	if err != nil {
		return err
	}
	<-ready

	op.ctx = ctx
	op.channels = channels
	op.pull = pull
	op.player = ctx.NewPlayer(op)
	op.scratch = make([]float32, 4096)
	return nil
}

// Read implements io.Reader for oto.Player, converting its byte stream
// to/from the float32 frames the rest of the mixer speaks.
func (op *OtoBackend) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	if cap(op.scratch) < numSamples {
		op.scratch = make([]float32, numSamples)
	}
	samples := op.scratch[:numSamples]
	op.pull(samples)

	for i, s := range samples {
		bits := math.Float32bits(s)
		p[i*4] = byte(bits)
		p[i*4+1] = byte(bits >> 8)
		p[i*4+2] = byte(bits >> 16)
		p[i*4+3] = byte(bits >> 24)
	}
	return len(p), nil
}

func (op *OtoBackend) Start() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
	return nil
}

func (op *OtoBackend) Stop() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
	return nil
}

func (op *OtoBackend) Close() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.player != nil {
		err := op.player.Close()
		op.player = nil
		return err
	}
	return nil
}
