package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-order-service/internal/model"
)

const namespace = "voice_orders"

// Metrics agrupa los contadores del servicio. Todos los métodos aceptan un
// receptor nil para que los componentes funcionen sin métricas.
type Metrics struct {
	OrdersPlaced      prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	ToolCalls         *prometheus.CounterVec
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registra las métricas en reg. En tests conviene un registry por caso.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Total number of orders placed.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes by resulting status and kind (progression|override).",
		}, []string{"status", "kind"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Voice tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		gatherer: reg,
	}

	reg.MustRegister(m.OrdersPlaced, m.StatusTransitions, m.ToolCalls, m.Requests, m.LatencyMS)
	return m
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

// StatusChanged cuenta la transición. Los estados fuera de la progresión
// (texto libre de un override) se agrupan como "other".
func (m *Metrics) StatusChanged(status string, override bool) {
	if m == nil {
		return
	}
	kind := "progression"
	if override {
		kind = "override"
	}
	m.StatusTransitions.WithLabelValues(statusLabel(status), kind).Inc()
}

func statusLabel(status string) string {
	for _, s := range model.StatusProgression {
		if s == status {
			return s
		}
	}
	return "other"
}

func (m *Metrics) ToolCalled(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveRequest registra una request HTTP ya respondida.
func (m *Metrics) ObserveRequest(handler string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(elapsed.Microseconds()) / 1000)
}

// Handler expone /metrics para el registry de estas métricas.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
