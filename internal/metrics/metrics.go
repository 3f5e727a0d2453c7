package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edutrack", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	SubmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "submissions_total", Help: "Accepted submissions",
	})
	AnswersGraded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "answers_graded_total", Help: "Answers graded by hand",
	})
	SubmissionsFinalized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "submissions_finalized_total", Help: "Finalize calls that succeeded",
	})
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "events_published_total", Help: "Domain events published",
	}, []string{"type"})
	EventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edutrack", Name: "events_consumed_total", Help: "Domain events handled by the router",
	}, []string{"type"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edutrack", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPDuration,
		SubmissionsTotal, AnswersGraded, SubmissionsFinalized,
		EventsPublished, EventsConsumed,
		DBPing,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

// Middleware records request counts and latency labelled by the matched route
func Middleware() gin.HandlerFunc {
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
