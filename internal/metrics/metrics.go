package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Load results reported by the document store.
const (
	LoadOK      = "ok"
	LoadPartial = "partial"
	LoadMissing = "missing"
	LoadReset   = "reset"
	LoadError   = "error"
)

// Metrics holds the Prometheus collectors for storage and the focus timer.
//
// A nil *Metrics is valid and records nothing, so components can take one
// as an optional dependency.
//
// Metrics:
//   - lockin_document_loads_total{result}
//   - lockin_document_saves_total
//   - lockin_document_save_failures_total
//   - lockin_document_conflicts_total
//   - lockin_sessions_recorded_total{source}
//   - lockin_focus_seconds_total
//   - lockin_phase_transitions_total{from,to}
//   - lockin_timer_effect_failures_total{effect}
type Metrics struct {
	registry *prometheus.Registry

	loads          *prometheus.CounterVec
	saves          prometheus.Counter
	saveFailures   prometheus.Counter
	conflicts      prometheus.Counter
	sessions       *prometheus.CounterVec
	focusSeconds   prometheus.Counter
	transitions    *prometheus.CounterVec
	effectFailures *prometheus.CounterVec
}

// New registers a fresh set of collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_document_loads_total",
			Help: "Document loads by result",
		}, []string{"result"}),
		saves: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockin_document_saves_total",
			Help: "Successful document writes",
		}),
		saveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockin_document_save_failures_total",
			Help: "Document writes that failed at the backend",
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockin_document_conflicts_total",
			Help: "Writes rejected because the stored revision moved",
		}),
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_sessions_recorded_total",
			Help: "Study sessions recorded by source",
		}, []string{"source"}),
		focusSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "lockin_focus_seconds_total",
			Help: "Seconds of recorded focus time",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_phase_transitions_total",
			Help: "Timer phase transitions",
		}, []string{"from", "to"}),
		effectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockin_timer_effect_failures_total",
			Help: "Timer persistence effects that failed",
		}, []string{"effect"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveLoad(result string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSave(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.saveFailures.Inc()
		return
	}
	m.saves.Inc()
}

func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// ObserveSession counts a recorded session and its duration.
func (m *Metrics) ObserveSession(source string, durationSec int64) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(source).Inc()
	if durationSec > 0 {
		m.focusSeconds.Add(float64(durationSec))
	}
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.effectFailures.WithLabelValues(effect).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
