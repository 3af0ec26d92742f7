// Package metrics 提供基于Prometheus的指标收集
//
// 指标类型选择：
// - 计数用Counter：请求数、订单数、拒绝数
// - 瞬时值用Gauge：正在处理的请求数
// - 分布用Histogram：耗时
//
// 使用方式：启动时调用一次InitMetrics注册指标,
// /metrics端点由promhttp.Handler()暴露,Prometheus周期抓取
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（路由模板）、status（200/500）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 订单接单业务指标

	// OrdersCreatedTotal 订单创建成功总数（Counter）
	OrdersCreatedTotal prometheus.Counter

	// OrdersRejectedTotal 订单被拒绝总数（Counter）
	// 标签：reason（not_found/not_acceptable/insufficient_stock/other）
	OrdersRejectedTotal *prometheus.CounterVec

	// StockReservedTotal 预占成功的图书数量总数（Counter）
	StockReservedTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（Counter）
	// 标签：routing_key、result（success/failure/rejected）
	MessagesPublishedTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次，用于注册所有指标到全局Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshop_http_requests_total",
		Help: "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookshop_http_request_duration_seconds",
		Help:    "HTTP请求耗时(秒)",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookshop_http_requests_in_progress",
		Help: "正在处理的HTTP请求数",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookshop_orders_created_total",
		Help: "订单创建成功总数",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshop_orders_rejected_total",
		Help: "订单被拒绝总数",
	}, []string{"reason"})

	StockReservedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookshop_stock_reserved_total",
		Help: "预占成功的图书数量总数",
	})

	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookshop_messages_published_total",
		Help: "消息发布总数",
	}, []string{"routing_key", "result"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bookshop_circuit_breaker_state",
		Help: "熔断器状态(0=CLOSED,1=OPEN,2=HALF_OPEN)",
	}, []string{"name"})
}
