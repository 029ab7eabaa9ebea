package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_sessions_started_total",
			Help: "Total number of questionnaire sessions started",
		},
	)

	SubmissionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Questionnaire submissions by outcome",
		},
		[]string{"outcome"},
	)

	TranscodeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_transcodes_total",
			Help: "Video transcode jobs by terminal state",
		},
		[]string{"state"},
	)

	TranscodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_transcode_duration_seconds",
			Help:    "Wall time of video transcode jobs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SubmissionsCompleted)
	prometheus.MustRegister(TranscodeOutcomes)
	prometheus.MustRegister(TranscodeDuration)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
