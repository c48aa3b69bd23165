package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScreeningCollector bundles Prometheus metrics for the screening
// pipeline and exposes a ready-to-mount /metrics handler.
type ScreeningCollector struct {
	gatherer prometheus.Gatherer

	TrackedObjects prometheus.Gauge

	PairsScreened       prometheus.Counter
	Conjunctions        *prometheus.CounterVec
	PropagationFailures *prometheus.CounterVec
	ManeuverSolves      *prometheus.CounterVec

	RunDuration prometheus.Histogram
}

// NewScreeningCollector registers screening Prometheus metrics against
// the provided registerer, defaulting to the global Prometheus
// registry when nil.
func NewScreeningCollector(reg prometheus.Registerer) (*ScreeningCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "screening_tracked_objects",
		Help: "Current number of objects in the catalog.",
	}), "screening_tracked_objects")
	if err != nil {
		return nil, err
	}

	pairs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screening_pairs_total",
		Help: "Total number of object pairs screened.",
	}), "screening_pairs_total")
	if err != nil {
		return nil, err
	}

	conjunctions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screening_conjunctions_total",
		Help: "Total number of flagged conjunctions, labeled by risk category.",
	}, []string{"category"})
	conjunctions, err = registerCounterVec(reg, conjunctions, "screening_conjunctions_total")
	if err != nil {
		return nil, err
	}

	propFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screening_propagation_failures_total",
		Help: "Objects dropped from a run, labeled by failure kind.",
	}, []string{"kind"})
	propFailures, err = registerCounterVec(reg, propFailures, "screening_propagation_failures_total")
	if err != nil {
		return nil, err
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maneuver_solves_total",
		Help: "Maneuver planner solves, labeled by convergence outcome.",
	}, []string{"outcome"})
	solves, err = registerCounterVec(reg, solves, "maneuver_solves_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "screening_run_duration_seconds",
		Help:    "Full-fleet screening run latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	duration, err = registerHistogram(reg, duration, "screening_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &ScreeningCollector{
		gatherer:            gatherer,
		TrackedObjects:      tracked,
		PairsScreened:       pairs,
		Conjunctions:        conjunctions,
		PropagationFailures: propFailures,
		ManeuverSolves:      solves,
		RunDuration:         duration,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ScreeningCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRun records one full-fleet run.
func (c *ScreeningCollector) ObserveRun(objects, pairs int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.TrackedObjects != nil {
		c.TrackedObjects.Set(float64(objects))
	}
	if c.PairsScreened != nil {
		c.PairsScreened.Add(float64(pairs))
	}
	if c.RunDuration != nil {
		c.RunDuration.Observe(elapsed.Seconds())
	}
}

// CountConjunction records a flagged conjunction by category.
func (c *ScreeningCollector) CountConjunction(category string) {
	if c == nil || c.Conjunctions == nil {
		return
	}
	c.Conjunctions.WithLabelValues(category).Inc()
}

// CountPropagationFailure records an object dropped from a run.
func (c *ScreeningCollector) CountPropagationFailure(kind string) {
	if c == nil || c.PropagationFailures == nil {
		return
	}
	c.PropagationFailures.WithLabelValues(kind).Inc()
}

// CountManeuverSolve records a planner solve outcome.
func (c *ScreeningCollector) CountManeuverSolve(converged bool) {
	if c == nil || c.ManeuverSolves == nil {
		return
	}
	outcome := "converged"
	if !converged {
		outcome = "non_convergent"
	}
	c.ManeuverSolves.WithLabelValues(outcome).Inc()
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
