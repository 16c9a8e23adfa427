// Package metrics holds the exporter's metric state and exposes it to the
// Prometheus client for scraping.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type series struct {
	labels []string
	value  float64
}

type family struct {
	def     definition
	gauge   *prometheus.GaugeVec
	counter *prometheus.CounterVec
	series  map[string]*series
}

func (f *family) collector() prometheus.Collector {
	if f.counter != nil {
		return f.counter
	}
	return f.gauge
}

func seriesKey(lvs []string) string {
	return strings.Join(lvs, "\xff")
}

// Registry owns every metric the exporter publishes. Writers are serialised
// by a single mutex; scrapes read the client_golang vectors directly.
//
// Every operation accepts label combinations it has not seen before and
// creates them at zero. Calls that cannot apply (unknown family, wrong label
// count, negative counter delta) are dropped silently.
type Registry struct {
	mu       sync.Mutex
	prom     *prometheus.Registry
	families map[Name]*family
	guilds   map[string]string // tracked guild ID -> name

	reactionChecks        *prometheus.CounterVec
	recalibrations        *prometheus.CounterVec
	recalibrationDuration prometheus.Histogram
}

// New creates a registry with every exporter family registered, plus the Go
// runtime and process collectors.
func New() *Registry {
	r := &Registry{
		prom:     prometheus.NewRegistry(),
		families: make(map[Name]*family, len(definitions)),
		guilds:   make(map[string]string),
	}

	for _, def := range definitions {
		f := &family{def: def, series: make(map[string]*series)}
		switch def.kind {
		case counterKind:
			f.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: string(def.name),
				Help: def.help,
			}, def.labels)
		default:
			f.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: string(def.name),
				Help: def.help,
			}, def.labels)
		}
		r.prom.MustRegister(f.collector())
		r.families[def.name] = f
	}

	r.reactionChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmetrics_reaction_checks_total",
		Help: "Reaction debounce checks by outcome",
	}, []string{"outcome"})
	r.recalibrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmetrics_recalibrations_total",
		Help: "Recalibration passes by result",
	}, []string{"result"})
	r.recalibrationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "guildmetrics_recalibration_duration_seconds",
		Help:    "Time taken by a recalibration pass",
		Buckets: prometheus.DefBuckets,
	})

	r.prom.MustRegister(
		r.reactionChecks,
		r.recalibrations,
		r.recalibrationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// discord_guilds is exported as 0 before the first guild arrives.
	r.set(Guilds, 0, nil)
	return r
}

// Gatherer returns the Prometheus gatherer backing the registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// Set overwrites a gauge series.
func (r *Registry) Set(name Name, value float64, lvs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(name, value, lvs)
}

// Add adds delta to a series. Gauges never drop below zero.
func (r *Registry) Add(name Name, delta float64, lvs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name, delta, lvs)
}

// Inc adds one to a series.
func (r *Registry) Inc(name Name, lvs ...string) {
	r.Add(name, 1, lvs...)
}

// Sub subtracts delta from a gauge series, stopping at zero.
func (r *Registry) Sub(name Name, delta float64, lvs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f := r.families[name]; f == nil || f.def.kind != gaugeKind {
		return
	}
	r.add(name, -delta, lvs)
}

// Dec subtracts one from a gauge series, stopping at zero.
func (r *Registry) Dec(name Name, lvs ...string) {
	r.Sub(name, 1, lvs...)
}

// Remove deletes every series whose leading label values equal lvs. Passing
// fewer values than the family has labels removes all matching series, which
// is how a guild's name info series is dropped without knowing the name.
func (r *Registry) Remove(name Name, lvs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(name, lvs)
}

// Clear removes every series of a family.
func (r *Registry) Clear(name Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear(name)
}

// Value returns the current value of a series and whether it exists.
func (r *Registry) Value(name Name, lvs ...string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value(name, lvs)
}

// Series returns the number of series currently held by a family.
func (r *Registry) Series(name Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.families[name]
	if f == nil {
		return 0
	}
	return len(f.series)
}

// ReactionCheck records the outcome of one reaction debounce check.
func (r *Registry) ReactionCheck(outcome string) {
	r.reactionChecks.WithLabelValues(outcome).Inc()
}

// Recalibrated records a finished recalibration pass.
func (r *Registry) Recalibrated(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.recalibrations.WithLabelValues(result).Inc()
	r.recalibrationDuration.Observe(took.Seconds())
}

func (r *Registry) lookup(name Name, lvs []string) (*family, *series, bool) {
	f := r.families[name]
	if f == nil || len(lvs) != len(f.def.labels) {
		return nil, nil, false
	}
	key := seriesKey(lvs)
	s, ok := f.series[key]
	if !ok {
		s = &series{labels: append([]string(nil), lvs...)}
		f.series[key] = s
	}
	return f, s, true
}

func (r *Registry) set(name Name, value float64, lvs []string) {
	if f := r.families[name]; f == nil || f.def.kind != gaugeKind {
		return
	}
	f, s, ok := r.lookup(name, lvs)
	if !ok {
		return
	}
	s.value = value
	f.gauge.WithLabelValues(s.labels...).Set(value)
}

func (r *Registry) add(name Name, delta float64, lvs []string) {
	f := r.families[name]
	if f == nil {
		return
	}
	if f.def.kind == counterKind {
		if delta < 0 {
			return
		}
		_, s, ok := r.lookup(name, lvs)
		if !ok {
			return
		}
		s.value += delta
		f.counter.WithLabelValues(s.labels...).Add(delta)
		return
	}

	_, s, ok := r.lookup(name, lvs)
	if !ok {
		return
	}
	s.value += delta
	if s.value < 0 {
		s.value = 0
	}
	f.gauge.WithLabelValues(s.labels...).Set(s.value)
}

func (r *Registry) remove(name Name, lvs []string) {
	f := r.families[name]
	if f == nil || len(lvs) > len(f.def.labels) {
		return
	}
	for key, s := range f.series {
		if !hasPrefix(s.labels, lvs) {
			continue
		}
		delete(f.series, key)
		if f.counter != nil {
			f.counter.DeleteLabelValues(s.labels...)
		} else {
			f.gauge.DeleteLabelValues(s.labels...)
		}
	}
}

func (r *Registry) clear(name Name) {
	f := r.families[name]
	if f == nil {
		return
	}
	f.series = make(map[string]*series)
	if f.counter != nil {
		f.counter.Reset()
	} else {
		f.gauge.Reset()
	}
}

func (r *Registry) value(name Name, lvs []string) (float64, bool) {
	f := r.families[name]
	if f == nil {
		return 0, false
	}
	s, ok := f.series[seriesKey(lvs)]
	if !ok {
		return 0, false
	}
	return s.value, true
}

func hasPrefix(labels, prefix []string) bool {
	if len(prefix) > len(labels) {
		return false
	}
	for i, v := range prefix {
		if labels[i] != v {
			return false
		}
	}
	return true
}
