// Package metrics содержит метрики Prometheus сервиса и отдельный сервер /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "puzzleswap"

// Metrics - набор метрик на собственном реестре
type Metrics struct {
	Registry *prometheus.Registry

	HTTPLatency      *prometheus.HistogramVec
	ListingsCreated  prometheus.Counter
	PhotoUploads     *prometheus.CounterVec // result: ok | failed
	TradesProposed   prometheus.Counter
	TradeTransitions *prometheus.CounterVec // to
	RatingsSubmitted prometheus.Counter
	SignIns          *prometheus.CounterVec // method
}

// New регистрирует метрики в новом реестре
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ListingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		PhotoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo uploads by result.",
		}, []string{"result"}),
		TradesProposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_proposed_total",
			Help:      "Total number of trade proposals.",
		}),
		TradeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_transitions_total",
			Help:      "Trade status changes by target status.",
		}, []string{"to"}),
		RatingsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_submitted_total",
			Help:      "Total number of ratings submitted.",
		}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Successful sign-ins by method.",
		}, []string{"method"}),
	}

	m.Registry.MustRegister(
		m.HTTPLatency,
		m.ListingsCreated,
		m.PhotoUploads,
		m.TradesProposed,
		m.TradeTransitions,
		m.RatingsSubmitted,
		m.SignIns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware замеряет время обработки запросов fiber
func (m *Metrics) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPLatency.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler отдаёт метрики реестра
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewServer создаёт HTTP-сервер метрик; запуск и остановка - на вызывающей стороне
func (m *Metrics) NewServer(port string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	log.Info("Сервер метрик", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
