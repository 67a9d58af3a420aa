package httpclient

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "bgpdash"

type metrics struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		reqCnt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Requests sent to the dashboard backend, by status code and method",
			},
			[]string{"code", "method"},
		),
		reqDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Latency of requests sent to the dashboard backend",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	m.reqCnt = register(reg, m.reqCnt)
	m.reqDur = register(reg, m.reqDur)
	return m
}

// register returns the already registered collector if another client
// registered the same metric first
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}

func (m *metrics) observe(method, code string, d time.Duration) {
	m.reqCnt.WithLabelValues(code, method).Inc()
	m.reqDur.WithLabelValues(method).Observe(d.Seconds())
}
