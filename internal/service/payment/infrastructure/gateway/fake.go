package gateway

import (
	"context"
	"strings"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain/port"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var idNamespace = uuid.MustParse("6f0b1d3e-54a3-4c61-9a54-0b3c1f7a9e21")

// FakeGateway 是确定性的网关：拒绝配置的支付方式以及超过上限的金额，
// 交易号由幂等键派生，重复请求得到相同的交易号。
type FakeGateway struct {
	declineMethods map[string]struct{}
	maxAmount      decimal.Decimal
}

// NewFakeGateway maxAmount 为零表示不限额。
func NewFakeGateway(declineMethods []string, maxAmount decimal.Decimal) *FakeGateway {
	m := make(map[string]struct{}, len(declineMethods))
	for _, method := range declineMethods {
		m[strings.ToLower(method)] = struct{}{}
	}
	return &FakeGateway{declineMethods: m, maxAmount: maxAmount}
}

func derivedID(prefix, key string) string {
	return prefix + strings.ReplaceAll(uuid.NewSHA1(idNamespace, []byte(key)).String(), "-", "")[:20]
}

func (g *FakeGateway) Charge(ctx context.Context, req port.ChargeRequest) (port.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return port.ChargeResult{}, err
	}
	if _, ok := g.declineMethods[strings.ToLower(req.Method)]; ok {
		return port.ChargeResult{Approved: false, DeclineReason: "payment method " + req.Method + " declined"}, nil
	}
	if g.maxAmount.IsPositive() && req.Amount.GreaterThan(g.maxAmount) {
		return port.ChargeResult{Approved: false, DeclineReason: "amount exceeds limit " + g.maxAmount.StringFixed(2)}, nil
	}
	return port.ChargeResult{TransactionID: derivedID("txn_", req.IdempotencyKey), Approved: true}, nil
}

func (g *FakeGateway) Refund(ctx context.Context, req port.RefundRequest) (port.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return port.RefundResult{}, err
	}
	return port.RefundResult{RefundTransactionID: derivedID("rfd_", req.IdempotencyKey)}, nil
}
