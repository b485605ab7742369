package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics Prometheus指标
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	mutations   *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// NewMetrics 在给定注册表上创建指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familytree",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "familytree",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familytree",
			Name:      "mutations_total",
			Help:      "Successful writes by entity and action.",
		}, []string{"entity", "action"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familytree",
			Name:      "uploads_total",
			Help:      "Photo uploads by result.",
		}, []string{"result"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "familytree",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveRequest 记录一次HTTP请求
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveMutation 记录一次写操作
func (m *Metrics) ObserveMutation(entity, action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, action).Inc()
}

// ObserveUpload 记录上传结果
func (m *Metrics) ObserveUpload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.uploads.WithLabelValues(result).Inc()
}

// ObserveRateLimited 记录一次限流
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
