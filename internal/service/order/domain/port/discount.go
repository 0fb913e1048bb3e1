package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// DiscountInput 是折扣规则可见的订单事实。
type DiscountInput struct {
	UserID        string
	Subtotal      decimal.Decimal
	ItemCount     int
	PaymentMethod string
}

// DiscountPolicy 计算订单折扣，结果由调用方限制在 [0, subtotal]。
type DiscountPolicy interface {
	Discount(ctx context.Context, in DiscountInput) (decimal.Decimal, error)
}
