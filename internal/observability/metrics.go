package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the deconfliction API and
// provides a middleware to wire them into the HTTP server.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests     *prometheus.CounterVec
	HTTPDurations    *prometheus.HistogramVec
	Decisions        *prometheus.CounterVec
	Conflicts        *prometheus.CounterVec
	ActiveAllocs     prometheus.Gauge
	AllocationsTotal *prometheus.CounterVec
}

// NewCollector registers deconfliction Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and HTTP status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "api_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deconfliction_decisions_total",
		Help: "Deconfliction decisions issued, labeled by decision status.",
	}, []string{"status"})
	decisions, err = registerCounterVec(reg, decisions, "deconfliction_decisions_total")
	if err != nil {
		return nil, err
	}

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deconfliction_conflicts_total",
		Help: "Conflicts detected during deconfliction checks, labeled by conflict type.",
	}, []string{"type"})
	conflicts, err = registerCounterVec(reg, conflicts, "deconfliction_conflicts_total")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spectrum_active_allocations",
		Help: "Current number of committed spectrum allocations.",
	}), "spectrum_active_allocations")
	if err != nil {
		return nil, err
	}

	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spectrum_allocations_total",
		Help: "Allocation commit attempts, labeled by result.",
	}, []string{"result"})
	allocations, err = registerCounterVec(reg, allocations, "spectrum_allocations_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
		Decisions:        decisions,
		Conflicts:        conflicts,
		ActiveAllocs:     active,
		AllocationsTotal: allocations,
	}, nil
}

// Middleware records request counts and durations for every handled route.
func (c *Collector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			if c == nil {
				return
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			if c.HTTPRequests != nil {
				c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", rec.code)).Inc()
			}
			if c.HTTPDurations != nil {
				c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			}
		})
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordDecision counts a deconfliction decision and its conflict findings.
func (c *Collector) RecordDecision(status string, conflictTypes []string) {
	if c == nil {
		return
	}
	if c.Decisions != nil {
		c.Decisions.WithLabelValues(status).Inc()
	}
	if c.Conflicts != nil {
		for _, t := range conflictTypes {
			c.Conflicts.WithLabelValues(t).Inc()
		}
	}
}

// RecordAllocation counts an allocation commit attempt by result.
func (c *Collector) RecordAllocation(result string) {
	if c == nil || c.AllocationsTotal == nil {
		return
	}
	c.AllocationsTotal.WithLabelValues(result).Inc()
}

// SetActiveAllocations updates the committed-allocation gauge. The expiry
// sweeper and the commit path both drive this from the allocation store.
func (c *Collector) SetActiveAllocations(n int) {
	if c == nil || c.ActiveAllocs == nil {
		return
	}
	c.ActiveAllocs.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	code    int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.code = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
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

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
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
