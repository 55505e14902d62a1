package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReadingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_readings_submitted_total",
			Help: "Readings stored, by activity level",
		},
		[]string{"activity_level"},
	)

	// source is "model" or "placeholder"
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_recommendations_total",
			Help: "Recommendations produced, by source",
		},
		[]string{"source"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "health_recommendation_duration_seconds",
			Help:    "Time spent in model inference",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	ChartRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_chart_renders_total",
			Help: "Activity chart requests by outcome",
		},
		[]string{"outcome"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_live_connections",
			Help: "Open dashboard websocket connections",
		},
	)
)

// ObserveRecommendation records one inference.
func ObserveRecommendation(source string, d time.Duration) {
	Recommendations.WithLabelValues(source).Inc()
	RecommendationDuration.Observe(d.Seconds())
}

// GinMiddleware counts requests per matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
