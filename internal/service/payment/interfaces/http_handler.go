package interfaces

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/shopspring/decimal"
)

type PaymentReader interface {
	GetPayment(ctx context.Context, orderID string) (*domain.Payment, error)
}

// PaymentHandler 只提供查询接口，扣款由消息驱动。
type PaymentHandler struct {
	service PaymentReader
}

func NewPaymentHandler(service PaymentReader) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /payments/{orderId}", h.getPayment)
}

type paymentDTO struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"orderId"`
	UserID         string          `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"paymentMethod"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transactionId,omitempty"`
	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	FailureReason  string          `json:"failureReason,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (h *PaymentHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPayment(r.Context(), r.PathValue("orderId"))
	if errors.Is(err, domain.ErrPaymentNotFound) {
		bootstrap.WriteError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("get payment failed")
		bootstrap.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	bootstrap.WriteJSON(w, http.StatusOK, paymentDTO{
		ID:             p.ID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		Method:         p.Method,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		RefundedAmount: p.RefundedAmount,
		FailureReason:  p.FailureReason,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}
