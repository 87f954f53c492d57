package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "civicreport"

// Metrics owns its own registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	issuesCreated prometheus.Counter
	issuesClosed  prometheus.Counter
	comments      prometheus.Counter
	likes         *prometheus.CounterVec
	emails        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),
		issuesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issues",
			Name:      "created_total",
			Help:      "Total number of issues reported.",
		}),
		issuesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issues",
			Name:      "resolved_total",
			Help:      "Total number of issues marked as resolved.",
		}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issues",
			Name:      "comments_total",
			Help:      "Total number of comments posted.",
		}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issues",
			Name:      "likes_total",
			Help:      "Likes added and removed.",
		}, []string{"action"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Notification emails by template and outcome.",
		}, []string{"template", "status"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.issuesCreated,
		m.issuesClosed,
		m.comments,
		m.likes,
		m.emails,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RequestStarted() {
	m.httpInFlight.Inc()
}

func (m *Metrics) RequestFinished(method, path string, status int, duration time.Duration) {
	m.httpInFlight.Dec()
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IssueCreated() {
	if m == nil {
		return
	}
	m.issuesCreated.Inc()
}

func (m *Metrics) IssueResolved() {
	if m == nil {
		return
	}
	m.issuesClosed.Inc()
}

func (m *Metrics) CommentCreated() {
	if m == nil {
		return
	}
	m.comments.Inc()
}

func (m *Metrics) LikeChanged(liked bool) {
	if m == nil {
		return
	}
	action := "unlike"
	if liked {
		action = "like"
	}
	m.likes.WithLabelValues(action).Inc()
}

func (m *Metrics) EmailSent(template string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.emails.WithLabelValues(template, status).Inc()
}
