// Package prom exports poolcache events as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/poolcache"
)

// Hooks implements poolcache.Hooks with Prometheus collectors.
type Hooks struct {
	evicted      *prometheus.CounterVec
	dirtied      *prometheus.CounterVec
	blockRuns    prometheus.Counter
	blockStuck   prometheus.Counter
	modeChanges  *prometheus.CounterVec
	boundErrors  *prometheus.CounterVec
	capacity     prometheus.Gauge
	pressureMode prometheus.Gauge
}

var _ poolcache.Hooks = (*Hooks)(nil)

// New creates the collectors under namespace and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(namespace string, reg prometheus.Registerer) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	makeCV := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}
	makeC := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}
	makeG := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	h := &Hooks{
		evicted:      makeCV("lines_evicted_total", "Cache lines destroyed, by reason", "reason"),
		dirtied:      makeCV("lines_dirtied_total", "Cache lines marked dirty, by reason", "reason"),
		blockRuns:    makeC("block_evictions_total", "Full-mode block evictions run"),
		blockStuck:   makeC("block_evictions_stuck_total", "Block evictions that freed no line"),
		modeChanges:  makeCV("mode_changes_total", "Mode transitions, by target mode", "mode"),
		boundErrors:  makeCV("bound_errors_total", "Failed capacity bound reads, by bound", "bound"),
		capacity:     makeG("capacity", "Current capacity bound"),
		pressureMode: makeG("pressure_mode", "1 when the cache runs in pressure mode"),
	}

	for _, c := range []prometheus.Collector{
		h.evicted, h.dirtied, h.blockRuns, h.blockStuck,
		h.modeChanges, h.boundErrors, h.capacity, h.pressureMode,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) LineEvicted(_ int, reason string) { h.evicted.WithLabelValues(reason).Inc() }
func (h *Hooks) LineDirtied(_ int, reason string) { h.dirtied.WithLabelValues(reason).Inc() }

func (h *Hooks) BlockEvicted(_, evicted, _ int) {
	h.blockRuns.Inc()
	if evicted == 0 {
		h.blockStuck.Inc()
	}
}

func (h *Hooks) ModeChanged(mode poolcache.Mode, capacity int) {
	h.modeChanges.WithLabelValues(mode.String()).Inc()
	h.capacity.Set(float64(capacity))
	if mode == poolcache.ModePressure {
		h.pressureMode.Set(1)
	} else {
		h.pressureMode.Set(0)
	}
}

func (h *Hooks) BoundError(name string, _ error) { h.boundErrors.WithLabelValues(name).Inc() }
