package domain

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
)

// PaymentRepository msgs 与支付变更在同一事务中写入 outbox。
type PaymentRepository interface {
	// Create 同一订单重复创建返回 ErrDuplicatePayment。
	Create(ctx context.Context, p *Payment) error
	// Save 按 Version 乐观锁更新。
	Save(ctx context.Context, p *Payment, msgs ...mq.Message) error
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
}
