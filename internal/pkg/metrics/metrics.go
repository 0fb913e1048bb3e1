// Package metrics 集中定义各服务暴露在 /metrics 上的 Prometheus 指标。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

var (
	// MessagesConsumed 按 outcome 统计：processed, duplicate, dead_lettered, dlt_failed
	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_consumed_total",
		Help:      "Messages consumed per topic and outcome.",
	}, []string{"topic", "outcome"})

	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent handling one message, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})

	// OutboxDispatched 按 outcome 统计：sent, retry, failed
	OutboxDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_dispatched_total",
		Help:      "Outbox rows dispatched to the broker.",
	}, []string{"topic", "outcome"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions.",
	}, []string{"from", "to"})

	// RefundFailures 订单服务观察到的退款失败，需要人工处理。
	RefundFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_refund_failures_total",
		Help:      "payment.refund.failed events observed by the order service.",
	})

	InventoryReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_reservations_total",
		Help:      "Reservation attempts by outcome.",
	}, []string{"outcome"})

	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_processed_total",
		Help:      "Payments and refunds by result.",
	}, []string{"operation", "result"})

	ShipmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipment_transitions_total",
		Help:      "Shipment status transitions.",
	}, []string{"status"})

	DeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dead_letters_observed_total",
		Help:      "Dead letters observed by the monitor.",
	}, []string{"original_topic"})
)

// Handler 返回 Prometheus 抓取端点。
func Handler() http.Handler {
	return promhttp.Handler()
}
