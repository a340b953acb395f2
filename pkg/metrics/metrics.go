// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集HTTP与附件域指标.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.DirectUploadsIssued.WithLabelValues("s3").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/attachvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// DirectUploadsIssued 已签发的直传授权计数，按存储后端分类.
	DirectUploadsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_direct_uploads_issued_total",
			Help: "Total number of direct upload grants issued",
		},
		[]string{"service"},
	)

	// AttachmentsBound 成功绑定的附件计数，按策略分类.
	AttachmentsBound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_attachments_bound_total",
			Help: "Total number of blobs bound to records",
		},
		[]string{"strategy"},
	)

	// AnalyzeRuns 分析流水线执行计数，按结果分类（ok/failed）.
	AnalyzeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_analyze_runs_total",
			Help: "Total number of analyze pipeline runs",
		},
		[]string{"result"},
	)

	// BlobsSwept 清扫任务删除的孤儿Blob计数.
	BlobsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attachvault_blobs_swept_total",
			Help: "Total number of orphaned blobs removed by the sweep job",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	registry.MustRegister(
		RequestCounter,
		RequestDuration,
		DirectUploadsIssued,
		AttachmentsBound,
		AnalyzeRuns,
		BlobsSwept,
	)

	return nil
}

// StartMetricsServer 在给定 gin 引擎上挂载 /metrics（和可选的 pprof）端点.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
