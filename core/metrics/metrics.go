package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector holds the session lifecycle counters. A nil *Collector is valid
// and records nothing, so components can take one unconditionally.
type Collector struct {
	CSRFFetches        *prometheus.CounterVec
	CSRFRetries        prometheus.Counter
	Unauthorized       *prometheus.CounterVec
	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	Logins             *prometheus.CounterVec
	SessionExpirations *prometheus.CounterVec
	ActivityWrites     *prometheus.CounterVec
}

// New creates the collector and registers it with reg.
// A nil registerer leaves the metrics unregistered.
func New(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		CSRFFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "csrf",
				Name:      "fetches_total",
				Help:      "Total number of CSRF token fetches by result",
			},
			[]string{"result"},
		),
		CSRFRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "csrf",
				Name:      "retries_total",
				Help:      "Total number of requests replayed after a CSRF rejection",
			},
		),
		Unauthorized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "unauthorized_total",
				Help:      "Total number of 401 responses by audience",
			},
			[]string{"audience"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests by method and status class",
			},
			[]string{"method", "class"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Total number of login attempts by audience and result",
			},
			[]string{"audience", "result"},
		),
		SessionExpirations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "expirations_total",
				Help:      "Total number of sessions ended by inactivity",
			},
			[]string{"audience"},
		),
		ActivityWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "activity_writes_total",
				Help:      "Total number of persisted activity timestamps",
			},
			[]string{"audience"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			c.CSRFFetches,
			c.CSRFRetries,
			c.Unauthorized,
			c.Requests,
			c.RequestDuration,
			c.Logins,
			c.SessionExpirations,
			c.ActivityWrites,
		)
	}

	return c
}

func (c *Collector) CSRFFetch(ok bool) {
	if c == nil {
		return
	}
	c.CSRFFetches.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) CSRFRetry() {
	if c == nil {
		return
	}
	c.CSRFRetries.Inc()
}

func (c *Collector) Unauthorize(audience string) {
	if c == nil {
		return
	}
	c.Unauthorized.WithLabelValues(audience).Inc()
}

// Request records a completed round trip. status 0 means a transport error.
func (c *Collector) Request(method string, status int, took time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(took.Seconds())
}

func (c *Collector) Login(audience string, ok bool) {
	if c == nil {
		return
	}
	c.Logins.WithLabelValues(audience, result(ok)).Inc()
}

func (c *Collector) SessionExpired(audience string) {
	if c == nil {
		return
	}
	c.SessionExpirations.WithLabelValues(audience).Inc()
}

func (c *Collector) ActivityWrite(audience string) {
	if c == nil {
		return
	}
	c.ActivityWrites.WithLabelValues(audience).Inc()
}

// StatusClass maps an HTTP status to "2xx", "4xx" and so on, or "error" for 0.
func StatusClass(status int) string {
	switch {
	case status >= 100 && status < 200:
		return "1xx"
	case status < 300 && status >= 200:
		return "2xx"
	case status < 400 && status >= 300:
		return "3xx"
	case status < 500 && status >= 400:
		return "4xx"
	case status < 600 && status >= 500:
		return "5xx"
	default:
		return "error"
	}
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
