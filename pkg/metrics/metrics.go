package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BusMetrics struct {
	Messages *prometheus.CounterVec
	HandleMS *prometheus.HistogramVec
}

func NewBusMetrics(service string) *BusMetrics {
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: service,
		Subsystem: "bus",
		Name:      "messages_total",
		Help:      "Total number of bus messages handled.",
	}, []string{"subject", "outcome"})
	handle := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: service,
		Subsystem: "bus",
		Name:      "handle_duration_ms",
		Help:      "Bus message handling latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"subject"})

	prometheus.MustRegister(messages, handle)
	return &BusMetrics{Messages: messages, HandleMS: handle}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
