package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event 是可以发布到消息总线的消息。
type Event interface {
	Queue() string
	Key() string
	Metadata() Meta
}

// Meta 是每条消息都携带的公共字段。
type Meta struct {
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewMeta 生成新的 eventId。
func NewMeta() Meta {
	return Meta{EventID: uuid.NewString(), OccurredAt: time.Now().UTC()}
}

func (m Meta) Metadata() Meta { return m }

// LineItem 是库存相关消息中的商品行。
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Address 是收货地址。
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// InventoryReserve 请求为订单预留库存。
type InventoryReserve struct {
	Meta
	OrderID string     `json:"orderId"`
	Items   []LineItem `json:"items"`
}

func (InventoryReserve) Queue() string { return QueueInventoryReserve }
func (e InventoryReserve) Key() string { return e.OrderID }

// InventoryReservationFailed 表示库存不足，预留被拒绝。
type InventoryReservationFailed struct {
	Meta
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

func (InventoryReservationFailed) Queue() string { return QueueInventoryReservationFailed }
func (e InventoryReservationFailed) Key() string { return e.OrderID }

// ProductStockIncrease 释放订单预留的库存。
type ProductStockIncrease struct {
	Meta
	OrderID string     `json:"orderId"`
	Items   []LineItem `json:"items"`
}

func (ProductStockIncrease) Queue() string { return QueueProductStockIncrease }
func (e ProductStockIncrease) Key() string { return e.OrderID }

// PaymentProcess 请求对订单扣款。
type PaymentProcess struct {
	Meta
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (PaymentProcess) Queue() string { return QueuePaymentProcess }
func (e PaymentProcess) Key() string { return e.OrderID }

type PaymentCompleted struct {
	Meta
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentDate   time.Time       `json:"paymentDate"`
}

func (PaymentCompleted) Queue() string { return QueuePaymentCompleted }
func (e PaymentCompleted) Key() string { return e.OrderID }

type PaymentFailed struct {
	Meta
	OrderID       string          `json:"orderId"`
	Reason        string          `json:"reason"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (PaymentFailed) Queue() string { return QueuePaymentFailed }
func (e PaymentFailed) Key() string { return e.OrderID }

// PaymentRefund 请求退款，Amount 为空时退还剩余全部金额。
type PaymentRefund struct {
	Meta
	OrderID string           `json:"orderId"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

func (PaymentRefund) Queue() string { return QueuePaymentRefund }
func (e PaymentRefund) Key() string { return e.OrderID }

type PaymentRefunded struct {
	Meta
	OrderID             string          `json:"orderId"`
	RefundAmount        decimal.Decimal `json:"refundAmount"`
	TotalRefunded       decimal.Decimal `json:"totalRefunded"`
	RefundTransactionID string          `json:"refundTransactionId"`
}

func (PaymentRefunded) Queue() string { return QueuePaymentRefunded }
func (e PaymentRefunded) Key() string { return e.OrderID }

type PaymentRefundFailed struct {
	Meta
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

func (PaymentRefundFailed) Queue() string { return QueuePaymentRefundFailed }
func (e PaymentRefundFailed) Key() string { return e.OrderID }

// OrderConfirmed 在支付成功后发布，驱动发货。
type OrderConfirmed struct {
	Meta
	OrderID         string     `json:"orderId"`
	UserID          string     `json:"userId"`
	ShippingAddress Address    `json:"shippingAddress"`
	Items           []LineItem `json:"items"`
}

func (OrderConfirmed) Queue() string { return QueueOrderConfirmed }
func (e OrderConfirmed) Key() string { return e.OrderID }

type OrderCancelled struct {
	Meta
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

func (OrderCancelled) Queue() string { return QueueOrderCancelled }
func (e OrderCancelled) Key() string { return e.OrderID }

type OrderStatusUpdated struct {
	Meta
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	UserID  string `json:"userId"`
}

func (OrderStatusUpdated) Queue() string { return QueueOrderStatusUpdated }
func (e OrderStatusUpdated) Key() string { return e.OrderID }

// ShippingStatusUpdated 由物流服务在发货状态变化时发布。
type ShippingStatusUpdated struct {
	Meta
	OrderID        string `json:"orderId"`
	NewStatus      string `json:"newStatus"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
}

func (ShippingStatusUpdated) Queue() string { return QueueShippingStatusUpdated }
func (e ShippingStatusUpdated) Key() string { return e.OrderID }

type NotificationOrderCancelled struct {
	Meta
	OrderID     string `json:"orderId"`
	UserEmail   string `json:"userEmail"`
	OrderNumber string `json:"orderNumber"`
	Reason      string `json:"reason"`
}

func (NotificationOrderCancelled) Queue() string { return QueueNotificationOrderCancelled }
func (e NotificationOrderCancelled) Key() string { return e.OrderID }
