package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	publishes       *prom.CounterVec
	reconnects      prom.Counter
	connected       prom.Gauge
	publishDuration prom.Histogram
	lastPublish     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the publish-loop metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.publishes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "worktracker",
		Name:      "publishes_total",
		Help:      "Status publish attempts by result",
	}, []string{"result"})
	pr.reconnects = prom.NewCounter(prom.CounterOpts{
		Namespace: "worktracker",
		Name:      "broker_reconnects_total",
		Help:      "Broker reconnect attempts after connection loss",
	})
	pr.connected = prom.NewGauge(prom.GaugeOpts{
		Namespace: "worktracker",
		Name:      "broker_connected",
		Help:      "1 while a broker session is established",
	})
	pr.publishDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "worktracker",
		Name:      "publish_duration_seconds",
		Help:      "Duration of individual publish operations",
		Buckets:   prom.DefBuckets,
	})
	pr.lastPublish = prom.NewGauge(prom.GaugeOpts{
		Namespace: "worktracker",
		Name:      "last_publish_timestamp_seconds",
		Help:      "Unix time of the last successful publish",
	})
	reg.MustRegister(pr.publishes, pr.reconnects, pr.connected, pr.publishDuration, pr.lastPublish)
	return pr
}

func (pr *PrometheusRecorder) IncPublish(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	pr.publishes.WithLabelValues(result).Inc()
}

func (pr *PrometheusRecorder) IncReconnect() { pr.reconnects.Inc() }

func (pr *PrometheusRecorder) SetConnected(connected bool) {
	if connected {
		pr.connected.Set(1)
	} else {
		pr.connected.Set(0)
	}
}

func (pr *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	pr.publishDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) SetLastPublish(t time.Time) {
	pr.lastPublish.Set(float64(t.Unix()))
}

// Handler returns an HTTP handler exposing the registry, for the
// daemon's optional metrics listener.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}
