// internal/service/shipping/domain/shipment.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrDuplicateShipment = errors.New("shipment already exists for order")
	ErrNotCancellable    = errors.New("shipment is not cancellable")
	ErrInvalidTransition = errors.New("invalid shipment transition")
	ErrConcurrentUpdate  = errors.New("shipment was modified concurrently")
)

// rank 正向路径上的位置，终态返回 -1。
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusShipped:
		return 2
	case StatusDelivered:
		return 3
	}
	return -1
}

func (s Status) Valid() bool {
	return s.rank() >= 0 || s == StatusCancelled || s == StatusFailed
}

// Cancellable 只有还没交给承运商运输的发货单可以取消。
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

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

type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type HistoryEntry struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// Shipment 每个订单至多一个。
type Shipment struct {
	ID              string
	OrderID         string
	UserID          string
	Carrier         string
	TrackingNumber  string
	ShippingAddress Address
	Items           []Line
	Status          Status
	History         []HistoryEntry
	// Tombstone 只用于拦截迟到的创建消息，对外不可见。
	Tombstone bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newShipment(orderID string, status Status, note string) *Shipment {
	now := time.Now().UTC()
	return &Shipment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Status:    status,
		History:   []HistoryEntry{{Status: status, At: now, Note: note}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewPlaceholder 待处理的发货单，收货地址在订单确认时补齐。
func NewPlaceholder(orderID string) *Shipment {
	return newShipment(orderID, StatusPending, "awaiting fulfilment")
}

// NewCancelledTombstone 取消先于任何创建消息到达时留下的记录。
func NewCancelledTombstone(orderID, reason string) *Shipment {
	s := newShipment(orderID, StatusCancelled, reason)
	s.Tombstone = true
	return s
}

func (s *Shipment) record(to Status, note string) {
	now := time.Now().UTC()
	s.Status = to
	s.History = append(s.History, HistoryEntry{Status: to, At: now, Note: note})
	s.UpdatedAt = now
}

// StartProcessing pending -> processing，并记录订单确认时的地址和商品。
func (s *Shipment) StartProcessing(userID string, addr Address, items []Line) error {
	if s.Status != StatusPending {
		return fmt.Errorf("%w: %s -> processing", ErrInvalidTransition, s.Status)
	}
	s.UserID = userID
	s.ShippingAddress = addr
	s.Items = items
	s.record(StatusProcessing, "order confirmed")
	return nil
}

// Booked 已经向承运商下单。
func (s *Shipment) Booked() bool {
	return s.TrackingNumber != ""
}

func (s *Shipment) AttachTracking(carrier, trackingNumber string) {
	s.Carrier = carrier
	s.TrackingNumber = trackingNumber
	s.UpdatedAt = time.Now().UTC()
}

func (s *Shipment) Fail(note string) error {
	if !s.Status.Cancellable() {
		return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, s.Status)
	}
	s.record(StatusFailed, note)
	return nil
}

func (s *Shipment) Cancel(reason string) error {
	if !s.Status.Cancellable() {
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, s.Status)
	}
	s.record(StatusCancelled, reason)
	return nil
}

// Advance 承运商回报的状态只能向前推进。
func (s *Shipment) Advance(to Status, note string) error {
	switch to {
	case StatusCancelled:
		return s.Cancel(note)
	case StatusFailed:
		return s.Fail(note)
	}
	if to.rank() < 0 || s.Status.rank() < 0 || to.rank() <= s.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	// 未向承运商下单的占位记录不能被外部状态推进
	if s.Status == StatusPending && !s.Booked() {
		return fmt.Errorf("%w: shipment for order %s is not booked", ErrInvalidTransition, s.OrderID)
	}
	s.record(to, note)
	return nil
}
