package gateway

import (
	"context"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain/port"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// HTTPGateway 通过 JSON over HTTP 调用外部支付网关。
type HTTPGateway struct {
	client  *httpclient.Client
	service string
	timeout time.Duration
}

func NewHTTPGateway(client *httpclient.Client, service string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{client: client, service: service, timeout: timeout}
}

type chargeBody struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
}

type chargeReply struct {
	TransactionID string `json:"transactionId"`
	Approved      bool   `json:"approved"`
	DeclineReason string `json:"declineReason"`
}

type refundBody struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	OrderID        string          `json:"orderId"`
	TransactionID  string          `json:"transactionId"`
	Amount         decimal.Decimal `json:"amount"`
}

type refundReply struct {
	RefundTransactionID string `json:"refundTransactionId"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req port.ChargeRequest) (port.ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reply chargeReply
	err := g.client.PostJSON(ctx, g.service, "/charges", chargeBody{
		IdempotencyKey: req.IdempotencyKey,
		OrderID:        req.OrderID,
		UserID:         req.UserID,
		Amount:         req.Amount,
		Method:         req.Method,
	}, &reply)
	if err != nil {
		return port.ChargeResult{}, errors.Wrap(err, "gateway charge")
	}
	return port.ChargeResult{TransactionID: reply.TransactionID, Approved: reply.Approved, DeclineReason: reply.DeclineReason}, nil
}

func (g *HTTPGateway) Refund(ctx context.Context, req port.RefundRequest) (port.RefundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reply refundReply
	err := g.client.PostJSON(ctx, g.service, "/refunds", refundBody{
		IdempotencyKey: req.IdempotencyKey,
		OrderID:        req.OrderID,
		TransactionID:  req.TransactionID,
		Amount:         req.Amount,
	}, &reply)
	if err != nil {
		return port.RefundResult{}, errors.Wrap(err, "gateway refund")
	}
	if reply.RefundTransactionID == "" {
		return port.RefundResult{}, errors.New("gateway refund: empty refund transaction id")
	}
	return port.RefundResult{RefundTransactionID: reply.RefundTransactionID}, nil
}
