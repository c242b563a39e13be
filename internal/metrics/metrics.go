package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	uploadedBytes   prometheus.Counter
	downloadedBytes prometheus.Counter
	quotaRejections prometheus.Counter
)

// InitMetrics registers the collectors. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mycloud_http_requests_total",
			Help: "HTTP requests processed, by method, route and status.",
		}, []string{"method", "route", "status"})

		requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mycloud_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		uploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mycloud_uploaded_bytes_total",
			Help: "Bytes accepted by upload and confirmed by the storage provider.",
		})

		downloadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mycloud_downloaded_bytes_total",
			Help: "Bytes streamed out through download.",
		})

		quotaRejections = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mycloud_quota_rejections_total",
			Help: "Uploads rejected by the quota check.",
		})

		prometheus.MustRegister(requestsTotal, requestDuration, uploadedBytes, downloadedBytes, quotaRejections)
	})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// ObserveUpload records provider-confirmed upload bytes.
func ObserveUpload(bytes int64) {
	if uploadedBytes != nil && bytes > 0 {
		uploadedBytes.Add(float64(bytes))
	}
}

// ObserveDownload records streamed download bytes.
func ObserveDownload(bytes int64) {
	if downloadedBytes != nil && bytes > 0 {
		downloadedBytes.Add(float64(bytes))
	}
}

// ObserveQuotaRejection counts an upload refused by the ledger.
func ObserveQuotaRejection() {
	if quotaRejections != nil {
		quotaRejections.Inc()
	}
}
