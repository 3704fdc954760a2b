package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthd/internal/event"
)

const namespace = "healthd"

// Exporter mirrors sampler events into Prometheus metrics.
type Exporter struct {
	registry *prometheus.Registry

	utilization *prometheus.GaugeVec
	cycles      *prometheus.CounterVec
	malformed   prometheus.Counter
}

// NewExporter registers its collectors and subscribes to bus. activeSessions
// may be nil when no session server runs.
func NewExporter(bus *event.Bus, activeSessions func() int) *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),

		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_utilization_percent",
			Help:      "CPU utilization over the last sampling interval.",
		}, []string{"core"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampling_cycles_total",
			Help:      "Sampling cycles by result.",
		}, []string{"result"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_rows_total",
			Help:      "Counter rows skipped for having too few fields.",
		}),
	}

	e.registry.MustRegister(
		e.utilization,
		e.cycles,
		e.malformed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if activeSessions != nil {
		e.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tcp_sessions_active",
			Help:      "Open client sessions on the TCP server.",
		}, func() float64 {
			return float64(activeSessions())
		}))
	}

	bus.Subscribe(EventSnapshotPublished, e.onSnapshot)
	bus.Subscribe(EventCycleSkipped, func(any) {
		e.cycles.WithLabelValues("skipped").Inc()
	})
	bus.Subscribe(EventRowRejected, func(any) {
		e.malformed.Inc()
	})

	return e
}

func (e *Exporter) onSnapshot(ev any) {
	published, ok := ev.(SnapshotPublished)
	if !ok {
		return
	}

	e.cycles.WithLabelValues("ok").Inc()

	e.utilization.Reset()
	for _, s := range published.Snapshot.Samples {
		e.utilization.WithLabelValues(s.Core.String()).Set(s.Percent)
	}
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}
