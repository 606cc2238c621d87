// Package metrics 提供 Prometheus helper，包含网关常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/marketgateway/pkg/logger"
)

// Metrics 网关指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 活跃 WebSocket 会话数
	WSSessionsActive prometheus.Gauge
	// 活跃订阅数
	WSSubscriptionsActive prometheus.Gauge
	// 广播事件计数
	BroadcastsTotal prometheus.Counter
	// 因订阅者缓冲区满而丢弃的投递计数
	DeliveriesDropped prometheus.Counter

	// 摄入的价格事件计数
	PricesIngested prometheus.Counter
	// 摄入的告警事件计数
	AlertsIngested prometheus.Counter
	// 被拒绝的内部请求计数（密钥错误）
	InternalRejected prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		WSSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "ws_sessions_active",
			Help:      "Number of connected WebSocket sessions",
		}),
		WSSubscriptionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "ws_subscriptions_active",
			Help:      "Number of live topic subscriptions",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "broadcasts_total",
			Help:      "Total events published to the broadcast hub",
		}),
		DeliveriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "deliveries_dropped_total",
			Help:      "Deliveries dropped because a subscriber buffer was full",
		}),
		PricesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "prices_ingested_total",
			Help:      "Total price events persisted",
		}),
		AlertsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "alerts_ingested_total",
			Help:      "Total alert events persisted",
		}),
		InternalRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: serviceName,
			Name:      "internal_rejected_total",
			Help:      "Internal requests rejected for a missing or wrong shared secret",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.WSSessionsActive,
		m.WSSubscriptionsActive,
		m.BroadcastsTotal,
		m.DeliveriesDropped,
		m.PricesIngested,
		m.AlertsIngested,
		m.InternalRejected,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
