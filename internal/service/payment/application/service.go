// internal/service/payment/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain/port"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PaymentService 处理扣款与退款。结果事件通过 outbox 与状态一起提交，
// 只有在连持久化都失败时才直接发布。
type PaymentService struct {
	repo      domain.PaymentRepository
	gateway   port.PaymentGateway
	publisher mq.Publisher
	tracer    trace.Tracer
}

func NewPaymentService(repo domain.PaymentRepository, gateway port.PaymentGateway, publisher mq.Publisher, tracer trace.Tracer) *PaymentService {
	return &PaymentService{repo: repo, gateway: gateway, publisher: publisher, tracer: tracer}
}

func (s *PaymentService) GetPayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

// HandleProcess 处理 payment.process。
func (s *PaymentService) HandleProcess(ctx context.Context, ev *contract.PaymentProcess) error {
	ctx, span := s.tracer.Start(ctx, "payment.Process")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", ev.OrderID))
	log := logger.Ctx(ctx).With().Str("order_id", ev.OrderID).Logger()

	p, err := s.repo.FindByOrderID(ctx, ev.OrderID)
	switch {
	case err == nil && p.Status.Terminal():
		log.Info().Str("status", string(p.Status)).Msg("payment already finished, skipping")
		return nil
	case errors.Is(err, domain.ErrPaymentNotFound):
		p, err = s.create(ctx, ev)
		if err != nil {
			span.RecordError(err)
			log.Error().Err(err).Msg("cannot persist payment, publishing failure directly")
			return s.publishDirect(ctx, paymentFailed(ev.OrderID, ev.TotalAmount, ev.PaymentMethod, "internal error: payment could not be recorded"))
		}
		if p.Status.Terminal() {
			return nil
		}
	case err != nil:
		// 查询失败同样无法落库，订单不能停在 pending
		span.RecordError(err)
		log.Error().Err(err).Msg("cannot look up payment, publishing failure directly")
		return s.publishDirect(ctx, paymentFailed(ev.OrderID, ev.TotalAmount, ev.PaymentMethod, "internal error: payment lookup failed"))
	}

	if !p.Amount.IsPositive() {
		return s.finish(ctx, p, "", fmt.Sprintf("%s: %s", domain.ErrInvalidAmount, p.Amount))
	}

	res, err := s.gateway.Charge(ctx, port.ChargeRequest{
		IdempotencyKey: p.OrderID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		Amount:         p.Amount,
		Method:         p.Method,
	})
	switch {
	case err != nil:
		span.RecordError(err)
		log.Error().Err(err).Msg("gateway charge error")
		return s.finish(ctx, p, "", "gateway error: "+err.Error())
	case !res.Approved:
		return s.finish(ctx, p, "", res.DeclineReason)
	default:
		return s.finish(ctx, p, res.TransactionID, "")
	}
}

func (s *PaymentService) create(ctx context.Context, ev *contract.PaymentProcess) (*domain.Payment, error) {
	p := domain.NewPayment(ev.OrderID, ev.UserID, ev.TotalAmount, ev.PaymentMethod)
	err := s.repo.Create(ctx, p)
	if errors.Is(err, domain.ErrDuplicatePayment) {
		return s.repo.FindByOrderID(ctx, ev.OrderID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// finish 把 pending 支付转为终态并提交结果事件。transactionID 为空表示失败。
func (s *PaymentService) finish(ctx context.Context, p *domain.Payment, transactionID, failure string) error {
	var ev contract.Event
	if transactionID != "" {
		if err := p.Complete(transactionID); err != nil {
			return err
		}
		ev = contract.PaymentCompleted{
			Meta:          contract.NewMeta(),
			OrderID:       p.OrderID,
			TransactionID: transactionID,
			Amount:        p.Amount,
			PaymentMethod: p.Method,
			PaymentDate:   p.UpdatedAt,
		}
	} else {
		if err := p.Fail(failure); err != nil {
			return err
		}
		ev = paymentFailed(p.OrderID, p.Amount, p.Method, failure)
	}

	msgs, err := mq.EncodeAll(ctx, ev)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, p, msgs...); err != nil {
		if p.Status == domain.StatusCompleted {
			// 重试时网关按幂等键返回同一笔交易
			return err
		}
		logger.Ctx(ctx).Error().Err(err).Str("order_id", p.OrderID).Msg("cannot persist failed payment, publishing failure directly")
		return s.publishDirect(ctx, ev)
	}

	result := "completed"
	if p.Status == domain.StatusFailed {
		result = "failed"
	}
	metrics.PaymentsProcessed.WithLabelValues("charge", result).Inc()
	logger.Ctx(ctx).Info().Str("order_id", p.OrderID).Str("status", string(p.Status)).
		Str("amount", p.Amount.StringFixed(2)).Str("reason", p.FailureReason).Msg("payment finished")
	return nil
}

func paymentFailed(orderID string, amount decimal.Decimal, method, reason string) contract.Event {
	return contract.PaymentFailed{Meta: contract.NewMeta(), OrderID: orderID, Reason: reason, Amount: amount, PaymentMethod: method}
}

// HandleRefund 处理 payment.refund，累计退款额不会超过支付金额。
func (s *PaymentService) HandleRefund(ctx context.Context, ev *contract.PaymentRefund) error {
	ctx, span := s.tracer.Start(ctx, "payment.Refund")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", ev.OrderID))
	log := logger.Ctx(ctx).With().Str("order_id", ev.OrderID).Logger()

	p, err := s.repo.FindByOrderID(ctx, ev.OrderID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		log.Warn().Msg("refund requested for unknown payment")
		return s.refundFailed(ctx, ev.OrderID, "payment not found")
	}
	if err != nil {
		return err
	}

	switch p.Status {
	case domain.StatusCompleted:
	case domain.StatusRefunded:
		log.Warn().Msg("payment already fully refunded, nothing to do")
		return nil
	default:
		return s.refundFailed(ctx, ev.OrderID, "payment is "+string(p.Status))
	}

	amount := p.RefundAmountFor(ev.Amount)
	if !amount.IsPositive() {
		log.Warn().Str("refunded", p.RefundedAmount.StringFixed(2)).Msg("nothing refundable")
		return nil
	}

	res, err := s.gateway.Refund(ctx, port.RefundRequest{
		IdempotencyKey: ev.EventID,
		OrderID:        p.OrderID,
		TransactionID:  p.TransactionID,
		Amount:         amount,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway refund failed")
		log.Error().Err(err).Msg("gateway refund failed")
		metrics.PaymentsProcessed.WithLabelValues("refund", "failed").Inc()
		return s.refundFailed(ctx, ev.OrderID, "gateway error: "+err.Error())
	}

	if err := p.ApplyRefund(amount); err != nil {
		return err
	}
	msgs, err := mq.EncodeAll(ctx, contract.PaymentRefunded{
		Meta:                contract.NewMeta(),
		OrderID:             p.OrderID,
		RefundAmount:        amount,
		TotalRefunded:       p.RefundedAmount,
		RefundTransactionID: res.RefundTransactionID,
	})
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, p, msgs...); err != nil {
		return err
	}
	metrics.PaymentsProcessed.WithLabelValues("refund", "completed").Inc()
	log.Info().Str("amount", amount.StringFixed(2)).Str("total_refunded", p.RefundedAmount.StringFixed(2)).Msg("refund issued")
	return nil
}

func (s *PaymentService) refundFailed(ctx context.Context, orderID, reason string) error {
	return s.publishDirect(ctx, contract.PaymentRefundFailed{Meta: contract.NewMeta(), OrderID: orderID, Reason: reason})
}

// publishDirect 绕过 outbox 直接发布，失败时返回错误交给消费者重试。
func (s *PaymentService) publishDirect(ctx context.Context, ev contract.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mq.PublishEvents(ctx, s.publisher, ev)
}
