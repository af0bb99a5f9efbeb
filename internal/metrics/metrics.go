package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics 订单生命周期指标
type OrderMetrics struct {
	created       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	createSeconds prometheus.Histogram
}

// NewOrderMetrics 在给定 registerer 上注册订单指标，reg 为 nil 时返回空实现
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Orders created, by payment and shipping method.",
	}, []string{"payment_method", "shipping_method"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_create_rejected_total",
		Help: "Order creation attempts rejected, by reason.",
	}, []string{"reason"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_transitions_total",
		Help: "Order status transitions, by action and outcome.",
	}, []string{"action", "outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_notifications_total",
		Help: "Outbound order notifications, by action and outcome.",
	}, []string{"action", "outcome"})
	createSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shop_order_create_duration_seconds",
		Help:    "Duration of the order creation transaction.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(created, rejected, transitions, notifications, createSeconds)
	return &OrderMetrics{
		created:       created,
		rejected:      rejected,
		transitions:   transitions,
		notifications: notifications,
		createSeconds: createSeconds,
	}
}

// IncCreated 记录下单成功
func (m *OrderMetrics) IncCreated(paymentMethod, shippingMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(shippingMethod)).Inc()
}

// IncRejected 记录下单被拒
func (m *OrderMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncTransition 记录状态流转结果（ok / rejected / conflict / error）
func (m *OrderMetrics) IncTransition(action, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// IncNotification 记录通知投递结果
func (m *OrderMetrics) IncNotification(action, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// ObserveCreateSeconds 记录下单耗时
func (m *OrderMetrics) ObserveCreateSeconds(seconds float64) {
	if m == nil || m.createSeconds == nil {
		return
	}
	m.createSeconds.Observe(seconds)
}

// Handler 返回指定 gatherer 的 /metrics 处理器
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
