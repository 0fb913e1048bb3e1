package infrastructure

import (
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/shopspring/decimal"
)

// PaymentModel 对应 payments 表，order_id 唯一。
type PaymentModel struct {
	ID             string          `gorm:"primaryKey;size:36"`
	OrderID        string          `gorm:"size:36;uniqueIndex"`
	UserID         string          `gorm:"size:64;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2)"`
	Method         string          `gorm:"size:32"`
	Status         string          `gorm:"size:16;index"`
	TransactionID  string          `gorm:"size:64"`
	RefundedAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	FailureReason  string          `gorm:"size:512"`
	Version        int             `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

func toModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:             p.ID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		Method:         p.Method,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		RefundedAmount: p.RefundedAmount,
		FailureReason:  p.FailureReason,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toDomain(m *PaymentModel) *domain.Payment {
	return &domain.Payment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		Amount:         m.Amount,
		Method:         m.Method,
		Status:         domain.Status(m.Status),
		TransactionID:  m.TransactionID,
		RefundedAmount: m.RefundedAmount,
		FailureReason:  m.FailureReason,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
