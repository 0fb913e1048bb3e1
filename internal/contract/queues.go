// Package contract 定义服务之间的队列名与消息体。
// 所有消息以 orderId 作为 Kafka key，并携带 eventId 用于幂等。
package contract

// 队列（Kafka topic）名称
const (
	QueueInventoryReserve           = "inventory.reserve"
	QueueInventoryReservationFailed = "inventory.reservation.failed"
	QueueProductStockIncrease       = "product.stock.increase"
	QueuePaymentProcess             = "payment.process"
	QueuePaymentCompleted           = "payment.completed"
	QueuePaymentFailed              = "payment.failed"
	QueuePaymentRefund              = "payment.refund"
	QueuePaymentRefunded            = "payment.refunded"
	QueuePaymentRefundFailed        = "payment.refund.failed"
	QueueOrderConfirmed             = "order.confirmed"
	QueueOrderCancelled             = "order.cancelled"
	QueueOrderStatusUpdated         = "order.status_updated"
	QueueShippingStatusUpdated      = "shipping.status.updated"
	QueueNotificationOrderCancelled = "notification.order.cancelled"
)

// DLTSuffix 是死信队列的后缀，<queue>.dlt
const DLTSuffix = ".dlt"

// AllQueues 返回全部业务队列，dlt-monitor 据此订阅死信队列。
func AllQueues() []string {
	return []string{
		QueueInventoryReserve,
		QueueInventoryReservationFailed,
		QueueProductStockIncrease,
		QueuePaymentProcess,
		QueuePaymentCompleted,
		QueuePaymentFailed,
		QueuePaymentRefund,
		QueuePaymentRefunded,
		QueuePaymentRefundFailed,
		QueueOrderConfirmed,
		QueueOrderCancelled,
		QueueOrderStatusUpdated,
		QueueShippingStatusUpdated,
		QueueNotificationOrderCancelled,
	}
}

// DeadLetterQueue 返回 queue 对应的死信队列名。
func DeadLetterQueue(queue string) string {
	return queue + DLTSuffix
}
