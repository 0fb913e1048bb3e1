package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/application/saga"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
)

// 以下处理函数由消息消费者调用，按 orderId 幂等，重复消息不会产生新的事件。

// HandlePaymentCompleted 支付成功时确认订单；订单已取消则记录支付并发起退款。
func (s *OrderApplicationService) HandlePaymentCompleted(ctx context.Context, ev *contract.PaymentCompleted) error {
	_, err := s.mutate(ctx, ev.OrderID, func(o *domain.Order) ([]contract.Event, bool, error) {
		switch {
		case o.Status == domain.StatusPending:
			if err := o.Confirm(ev.TransactionID); err != nil {
				return nil, false, err
			}
			return []contract.Event{
				contract.OrderConfirmed{
					Meta:            contract.NewMeta(),
					OrderID:         o.ID,
					UserID:          o.UserID,
					ShippingAddress: ToContractAddress(o.ShippingAddress),
					Items:           saga.ToContractItems(o),
				},
				statusUpdated(o),
			}, true, nil

		case o.Status == domain.StatusCancelled && o.PaymentStatus != domain.PaymentCompleted &&
			o.PaymentStatus != domain.PaymentRefunded && o.PaymentStatus != domain.PaymentPartiallyRefunded:
			logger.Ctx(ctx).Warn().Str("order_id", o.ID).Str("transaction_id", ev.TransactionID).
				Msg("payment completed for a cancelled order, requesting refund")
			o.MarkPaymentCompleted()
			return []contract.Event{contract.PaymentRefund{Meta: contract.NewMeta(), OrderID: o.ID}}, true, nil
		}
		return nil, false, nil
	})
	return asConsumerError(err)
}

// HandlePaymentFailed 支付失败取消订单，不需要退款。
func (s *OrderApplicationService) HandlePaymentFailed(ctx context.Context, ev *contract.PaymentFailed) error {
	_, err := s.mutate(ctx, ev.OrderID, func(o *domain.Order) ([]contract.Event, bool, error) {
		if o.PaymentStatus != domain.PaymentPending {
			return nil, false, nil
		}
		o.MarkPaymentFailed()
		if !o.Status.Cancellable() {
			return nil, true, nil
		}
		if err := o.Cancel("payment failed: "+ev.Reason, domain.ActorPayment); err != nil {
			return nil, false, err
		}
		return cancellationEvents(o), true, nil
	})
	return asConsumerError(err)
}

// HandlePaymentRefunded 记录累计退款额。
func (s *OrderApplicationService) HandlePaymentRefunded(ctx context.Context, ev *contract.PaymentRefunded) error {
	_, err := s.mutate(ctx, ev.OrderID, func(o *domain.Order) ([]contract.Event, bool, error) {
		before := o.Status
		changed, err := o.ApplyRefund(ev.TotalRefunded)
		if err != nil || !changed {
			return nil, changed, err
		}
		if o.Status != before {
			return []contract.Event{statusUpdated(o)}, true, nil
		}
		return nil, true, nil
	})
	return asConsumerError(err)
}

// HandlePaymentRefundFailed 只记录，需要人工介入。
func (s *OrderApplicationService) HandlePaymentRefundFailed(ctx context.Context, ev *contract.PaymentRefundFailed) error {
	metrics.RefundFailures.Inc()
	logger.Ctx(ctx).Error().Str("order_id", ev.OrderID).Str("reason", ev.Reason).Msg("CRITICAL: refund failed, manual follow-up required")
	return nil
}

// HandleReservationFailed 库存不足时取消订单。
func (s *OrderApplicationService) HandleReservationFailed(ctx context.Context, ev *contract.InventoryReservationFailed) error {
	_, err := s.mutate(ctx, ev.OrderID, func(o *domain.Order) ([]contract.Event, bool, error) {
		if !o.Status.Cancellable() {
			return nil, false, nil
		}
		if err := o.Cancel("inventory reservation failed: "+ev.Reason, domain.ActorInventory); err != nil {
			return nil, false, err
		}
		return cancellationEvents(o), true, nil
	})
	return asConsumerError(err)
}

// HandleShippingStatusUpdated 跟随物流状态推进订单，过期或倒退的状态被忽略。
func (s *OrderApplicationService) HandleShippingStatusUpdated(ctx context.Context, ev *contract.ShippingStatusUpdated) error {
	var fn mutateFunc
	switch ev.NewStatus {
	case string(domain.StatusProcessing), string(domain.StatusShipped), string(domain.StatusDelivered):
		target := domain.Status(ev.NewStatus)
		note := "shipment " + ev.NewStatus
		if ev.TrackingNumber != "" {
			note += " (" + ev.Carrier + " " + ev.TrackingNumber + ")"
		}
		fn = func(o *domain.Order) ([]contract.Event, bool, error) {
			// 订单只能由 payment.completed 离开 pending
			if o.Status == domain.StatusPending && o.PaymentStatus != domain.PaymentCompleted {
				return nil, false, fmt.Errorf("%w: order %s is still pending", domain.ErrPaymentPending, o.ID)
			}
			advanced, err := o.AdvanceTo(target, domain.ActorShipping, note)
			if err != nil || !advanced {
				return nil, false, err
			}
			return []contract.Event{statusUpdated(o)}, true, nil
		}
	case "failed":
		fn = func(o *domain.Order) ([]contract.Event, bool, error) {
			if !o.Status.Cancellable() {
				return nil, false, nil
			}
			if err := o.Cancel("shipment failed", domain.ActorShipping); err != nil {
				return nil, false, err
			}
			return cancellationEvents(o), true, nil
		}
	default:
		// pending 和 cancelled 不影响订单
		logger.Ctx(ctx).Debug().Str("order_id", ev.OrderID).Str("status", ev.NewStatus).Msg("shipping status ignored")
		return nil
	}
	_, err := s.mutate(ctx, ev.OrderID, fn)
	return asConsumerError(err)
}

// asConsumerError 订单不存在时重试没有意义，直接进入死信。
func asConsumerError(err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) {
		return mq.Permanent(err)
	}
	return err
}
