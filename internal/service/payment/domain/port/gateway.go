package port

import (
	"context"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	IdempotencyKey string
	OrderID        string
	UserID         string
	Amount         decimal.Decimal
	Method         string
}

// ChargeResult Approved 为 false 表示被网关拒绝，这是业务结果而不是错误。
type ChargeResult struct {
	TransactionID string
	Approved      bool
	DeclineReason string
}

type RefundRequest struct {
	IdempotencyKey string
	OrderID        string
	TransactionID  string
	Amount         decimal.Decimal
}

type RefundResult struct {
	RefundTransactionID string
}

// PaymentGateway 外部支付网关。相同 IdempotencyKey 的请求只会执行一次。
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}
