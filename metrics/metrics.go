package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// ProvisionCount 租户开通计数
	ProvisionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provision_total",
			Help: "Total number of signup provisioning attempts",
		},
		[]string{"result"}, // result: success, conflict, failed
	)

	// MailCount 欢迎邮件计数
	MailCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welcome_mail_total",
			Help: "Total number of welcome mails handled",
		},
		[]string{"result"}, // result: sent, failed, queued
	)

	// ProxyCallLatency 外部接口调用延迟（秒）
	ProxyCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "objectiveed_call_duration_seconds",
			Help:    "Game-services proxy call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"method", "status"},
	)
)

// RecordProvision counts one provisioning outcome.
func RecordProvision(result string) {
	ProvisionCount.WithLabelValues(result).Inc()
}

// RecordMail counts one welcome mail outcome.
func RecordMail(result string) {
	MailCount.WithLabelValues(result).Inc()
}

// RecordProxyCall observes one proxied call.
func RecordProxyCall(method string, status int, d time.Duration) {
	ProxyCallLatency.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Middleware observes request latency by route template. Register it outside
// the request logger so the error handler has already written the status.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			HTTPRequestDuration.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
