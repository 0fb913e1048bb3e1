// internal/service/payment/domain/payment.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

// Terminal 表示扣款流程已经结束，不会再次扣款。
func (s Status) Terminal() bool {
	return s != StatusPending
}

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrDuplicatePayment    = errors.New("payment already exists for order")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrNotRefundable       = errors.New("payment is not refundable")
	ErrRefundExceedsAmount = errors.New("refund exceeds remaining amount")
	ErrInvalidTransition   = errors.New("invalid payment transition")
	ErrConcurrentUpdate    = errors.New("payment was modified concurrently")
)

// Payment 每个订单至多一笔。
type Payment struct {
	ID             string
	OrderID        string
	UserID         string
	Amount         decimal.Decimal
	Method         string
	Status         Status
	TransactionID  string
	RefundedAmount decimal.Decimal
	FailureReason  string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewPayment(orderID, userID string, amount decimal.Decimal, method string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		UserID:         userID,
		Amount:         amount.Round(2),
		Method:         method,
		Status:         StatusPending,
		RefundedAmount: decimal.Zero,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p *Payment) Complete(transactionID string) error {
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, p.Status)
	}
	p.Status = StatusCompleted
	p.TransactionID = transactionID
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Payment) Fail(reason string) error {
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, p.Status)
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Refundable 剩余可退金额。
func (p *Payment) Refundable() decimal.Decimal {
	if p.Status != StatusCompleted {
		return decimal.Zero
	}
	return p.Amount.Sub(p.RefundedAmount)
}

// RefundAmountFor 计算本次退款额：未指定时退还剩余全部，超出部分被截断。
func (p *Payment) RefundAmountFor(requested *decimal.Decimal) decimal.Decimal {
	remaining := p.Refundable()
	if requested == nil || requested.GreaterThan(remaining) {
		return remaining
	}
	if requested.IsNegative() {
		return decimal.Zero
	}
	return requested.Round(2)
}

// ApplyRefund 累计退款额，全额退款后状态变为 refunded。
func (p *Payment) ApplyRefund(amount decimal.Decimal) error {
	if p.Status != StatusCompleted {
		return fmt.Errorf("%w: status is %s", ErrNotRefundable, p.Status)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if amount.GreaterThan(p.Refundable()) {
		return fmt.Errorf("%w: %s > %s", ErrRefundExceedsAmount, amount, p.Refundable())
	}
	p.RefundedAmount = p.RefundedAmount.Add(amount)
	if p.RefundedAmount.GreaterThanOrEqual(p.Amount) {
		p.Status = StatusRefunded
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}
