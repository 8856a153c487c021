//go:build headless

// backend_headless.go - null AudioBackend for CI/test environments
// without an audio device.

package al

type HeadlessBackend struct {
	pull    func(dst []float32)
	started bool
}

func NewOtoBackend() *HeadlessBackend { return &HeadlessBackend{} }

func (h *HeadlessBackend) Open(rate, channels int, pull func(dst []float32)) error {
	h.pull = pull
	return nil
}

func (h *HeadlessBackend) Start() error { h.started = true; return nil }
func (h *HeadlessBackend) Stop() error  { h.started = false; return nil }
func (h *HeadlessBackend) Close() error { h.started = false; return nil }
