// metrics.go - Prometheus instrumentation for the mixer: a small fixed
// set of gauges/counters registered against a caller-supplied registry
// rather than the global default one.

package al

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Context's Prometheus collectors. A nil *Metrics is
// valid and every method on it is a no-op, so instrumentation is opt-in.
type Metrics struct {
	activeVoices   prometheus.Gauge
	underruns      prometheus.Counter
	periodSeconds  prometheus.Histogram
	voicesDropped  prometheus.Counter
}

// NewMetrics registers the Context's collectors against reg and returns
// a *Metrics to pass as DeviceSpec.Metrics. Pass nil to disable metrics.
func NewMetrics(reg prometheus.Registerer, constLabels prometheus.Labels) *Metrics {
	m := &Metrics{
		activeVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "al_active_voices",
			Help:        "Number of voices currently mixing.",
			ConstLabels: constLabels,
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "al_underruns_total",
			Help:        "Number of mixing periods where the backend pulled faster than the mixer produced.",
			ConstLabels: constLabels,
		}),
		periodSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "al_mix_period_seconds",
			Help:        "Wall-clock time spent inside one Device mixing period.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		voicesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "al_voices_dropped_total",
			Help:        "Number of Play() calls that found no free voice slot.",
			ConstLabels: constLabels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.activeVoices, m.underruns, m.periodSeconds, m.voicesDropped)
	}
	return m
}

func (m *Metrics) setActiveVoices(n int) {
	if m != nil {
		m.activeVoices.Set(float64(n))
	}
}

// recordUnderrun has no caller: the mixer does not detect underruns, so
// al_underruns_total stays at zero.
func (m *Metrics) recordUnderrun() {
	if m != nil {
		m.underruns.Inc()
	}
}

func (m *Metrics) observePeriod(seconds float64) {
	if m != nil {
		m.periodSeconds.Observe(seconds)
	}
}

func (m *Metrics) recordVoiceDropped() {
	if m != nil {
		m.voicesDropped.Inc()
	}
}
