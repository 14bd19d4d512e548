// Package aegobserve 暴露 Prometheus 指标
package aegobserve

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义
var (
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopaegis_http_request_duration_seconds",
		Help:    "HTTP 请求处理耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "code"})

	// RepositoryErrors 记录存储层失败次数
	RepositoryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopaegis_repository_errors_total",
		Help: "仓储层 SQL 执行失败次数",
	}, []string{"table", "operation"})

	// RateLimited 记录被限流拒绝的请求，scope 为 global/ip/subject/login
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopaegis_rate_limited_total",
		Help: "被限流拒绝的请求数",
	}, []string{"scope"})

	// AccessDenied 记录鉴权失败次数
	AccessDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopaegis_access_denied_total",
		Help: "鉴权或权限校验失败次数",
	}, []string{"reason"})
)

// Register 必须在 main 调用一次
func Register() {
	prometheus.MustRegister(httpRequestDuration, RepositoryErrors, RateLimited, AccessDenied)
}

// Handler 返回 HTTP 处理器
func Handler() http.Handler { return promhttp.Handler() }

// PrometheusMiddleware 按路由模板记录请求耗时，未匹配的路由统一记为 unmatched
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
