// device.go - the Device object
//
// A Device owns the AudioBackend connection, the buffer/effect-slot
// registries shared by every Context opened on it, and the monotonic
// sample clock. Close tears down the backend and every open context
// concurrently via golang.org/x/sync/errgroup.

package al

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DeviceSpec configures a Device at open time.
type DeviceSpec struct {
	Rate          int
	OutputConfig  ChannelConfig
	OutputMode    OutputMode
	MaxVoices     int
	ResamplerKind ResamplerKind // zero value triggers PreferredResamplerKind()
	PeriodFrames  int
	Backend       AudioBackend // nil selects the platform default (oto)
	Metrics       *Metrics
	Logger        *log.Logger
	HRTF          *HRTFDataset // required when OutputMode is OutputHRTF
}

func (s *DeviceSpec) applyDefaults() {
	if s.Rate == 0 {
		s.Rate = 48000
	}
	if s.MaxVoices == 0 {
		s.MaxVoices = 256
	}
	if s.PeriodFrames == 0 {
		s.PeriodFrames = 512
	}
	if s.Backend == nil {
		s.Backend = NewOtoBackend()
	}
	if s.Logger == nil {
		s.Logger = log.NewWithOptions(nil, log.Options{Prefix: "al"})
	}
}

// Device is the open connection to an audio endpoint.
type Device struct {
	spec      DeviceSpec
	sessionID uuid.UUID
	clockFrames atomic.Uint64

	buffers *registry[*Buffer]
	effects *registry[*EffectSlot]

	mu       sync.Mutex
	contexts []*Context
	running  bool
	closed   bool

	errMu sync.Mutex
	errs  errLatch

	logger *log.Logger
}

// OpenDevice opens the backend and prepares an empty Device ready to
// host one or more Contexts.
func OpenDevice(spec DeviceSpec) (*Device, error) {
	spec.applyDefaults()

	if spec.OutputMode == OutputHRTF && spec.HRTF == nil {
		return nil, errf(InvalidValue, "OutputHRTF requires a loaded HRTFDataset")
	}

	d := &Device{
		spec:      spec,
		sessionID: uuid.New(),
		buffers:   newRegistry[*Buffer](),
		effects:   newRegistry[*EffectSlot](),
		logger:    spec.Logger,
	}

	if err := spec.Backend.Open(spec.Rate, spec.OutputConfig.NumChannels(), d.pull); err != nil {
		return nil, errf(OutOfMemory, "opening audio backend: %v", err)
	}

	d.logger.Info("device opened",
		"session", d.sessionID,
		"rate", spec.Rate,
		"channels", spec.OutputConfig.NumChannels(),
		"period_frames", spec.PeriodFrames,
	)
	return d, nil
}

// CreateContext allocates a rendering Context bound to this device.
func (d *Device) CreateContext() *Context {
	ctx := newContext(d)
	d.mu.Lock()
	d.contexts = append(d.contexts, ctx)
	d.mu.Unlock()
	d.logger.Debug("context created", "session", d.sessionID)
	return ctx
}

// Start begins pulling audio through the backend.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	if err := d.spec.Backend.Start(); err != nil {
		return errf(InvalidOperation, "starting backend: %v", err)
	}
	d.running = true
	d.logger.Info("device started", "session", d.sessionID)
	return nil
}

// Pause stops pulling audio without releasing the backend.
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	if err := d.spec.Backend.Stop(); err != nil {
		return errf(InvalidOperation, "pausing backend: %v", err)
	}
	d.running = false
	d.logger.Info("device paused", "session", d.sessionID)
	return nil
}

// Resume is an alias of Start kept for symmetry with Pause.
func (d *Device) Resume() error { return d.Start() }

// Reset tears down and reopens the backend with a (possibly) new rate
// and channel configuration, preserving buffers/effect slots and
// contexts.
func (d *Device) Reset(spec DeviceSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.spec.Backend.Close(); err != nil {
		d.errs.set(InvalidOperation)
	}
	spec.applyDefaults()
	spec.Backend.Open(spec.Rate, spec.OutputConfig.NumChannels(), d.pull)
	d.spec = spec
	d.running = false
	d.logger.Info("device reset", "session", d.sessionID, "rate", spec.Rate)
	return nil
}

// Close stops the backend and every open context concurrently.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	contexts := append([]*Context(nil), d.contexts...)
	d.mu.Unlock()

	var g errgroup.Group
	for _, c := range contexts {
		c := c
		g.Go(func() error {
			c.destroy()
			return nil
		})
	}
	g.Go(func() error { return d.spec.Backend.Stop() })
	if err := g.Wait(); err != nil {
		d.errs.set(InvalidOperation)
	}

	err := d.spec.Backend.Close()
	d.logger.Info("device closed", "session", d.sessionID)
	if err != nil {
		d.errs.set(InvalidOperation)
		return errf(InvalidOperation, "closing backend: %v", err)
	}
	return nil
}

// FlushErrors drains and returns every latched error code across the
// device and its contexts, clearing each latch.
func (d *Device) FlushErrors() []error {
	var out []error
	d.errMu.Lock()
	if code := d.errs.get(); code != NoError {
		out = append(out, &Error{Code: code})
	}
	d.errMu.Unlock()

	d.mu.Lock()
	contexts := append([]*Context(nil), d.contexts...)
	d.mu.Unlock()
	for _, c := range contexts {
		if code := c.LastError(); code != NoError {
			out = append(out, &Error{Code: code})
		}
	}
	return out
}

// ClockFrames returns the number of frames rendered since the device
// was opened, a monotonic counter unaffected by Pause/Resume cycles'
// wall-clock gaps.
func (d *Device) ClockFrames() uint64 { return d.clockFrames.Load() }

// Latency estimates output latency from the configured period size,
// the standard double-buffered pull-model estimate; backends with a
// deeper internal queue (as oto's platform players may have) will
// under-report actual latency.
func (d *Device) Latency() time.Duration {
	frames := d.spec.PeriodFrames * 2
	return time.Duration(frames) * time.Second / time.Duration(d.spec.Rate)
}

// pull is the AudioBackend callback: it sums every context's mix for
// one period into dst (silence if there is no context).
func (d *Device) pull(dst []float32) {
	d.mu.Lock()
	contexts := append([]*Context(nil), d.contexts...)
	d.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}

	channels := d.spec.OutputConfig.NumChannels()
	if channels == 0 {
		return
	}
	frameCount := len(dst) / channels

	start := time.Now()
	for _, c := range contexts {
		c.mixInto(dst, frameCount, channels)
	}
	d.spec.Metrics.observePeriod(time.Since(start).Seconds())
	d.clockFrames.Add(uint64(frameCount))
}
