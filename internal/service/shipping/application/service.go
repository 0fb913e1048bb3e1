// internal/service/shipping/application/service.go
package application

import (
	"context"
	"errors"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxConflictRetries = 5

// ShippingService 维护每个订单的发货单。状态事件全部经 outbox 发布。
type ShippingService struct {
	repo    domain.ShipmentRepository
	carrier port.Carrier
	tracer  trace.Tracer
}

func NewShippingService(repo domain.ShipmentRepository, carrier port.Carrier, tracer trace.Tracer) *ShippingService {
	return &ShippingService{repo: repo, carrier: carrier, tracer: tracer}
}

func (s *ShippingService) GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	sh, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sh.Tombstone {
		return nil, domain.ErrShipmentNotFound
	}
	return sh, nil
}

func statusEvent(sh *domain.Shipment) contract.Event {
	return contract.ShippingStatusUpdated{
		Meta:           contract.NewMeta(),
		OrderID:        sh.OrderID,
		NewStatus:      string(sh.Status),
		TrackingNumber: sh.TrackingNumber,
		Carrier:        sh.Carrier,
	}
}

func (s *ShippingService) save(ctx context.Context, sh *domain.Shipment, events ...contract.Event) error {
	msgs, err := mq.EncodeAll(ctx, events...)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, sh, msgs...)
}

func transitioned(ctx context.Context, sh *domain.Shipment) {
	metrics.ShipmentTransitions.WithLabelValues(string(sh.Status)).Inc()
	logger.Ctx(ctx).Info().Str("order_id", sh.OrderID).Str("status", string(sh.Status)).
		Str("tracking_number", sh.TrackingNumber).Msg("shipment status changed")
}

// HandlePaymentCompleted 创建 pending 占位发货单，已存在时跳过。
func (s *ShippingService) HandlePaymentCompleted(ctx context.Context, ev *contract.PaymentCompleted) error {
	_, err := s.repo.FindByOrderID(ctx, ev.OrderID)
	if err == nil {
		logger.Ctx(ctx).Debug().Str("order_id", ev.OrderID).Msg("shipment already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		return err
	}
	sh := domain.NewPlaceholder(ev.OrderID)
	err = s.repo.Create(ctx, sh)
	if errors.Is(err, domain.ErrDuplicateShipment) {
		return nil
	}
	if err != nil {
		return err
	}
	transitioned(ctx, sh)
	return nil
}

// HandleOrderConfirmed 把发货单推进到 processing 并向承运商下单。
// 已下单或已越过 pending 的发货单直接跳过。
func (s *ShippingService) HandleOrderConfirmed(ctx context.Context, ev *contract.OrderConfirmed) error {
	ctx, span := s.tracer.Start(ctx, "shipping.Initiate")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", ev.OrderID))

	sh, err := s.prepare(ctx, ev)
	if err != nil || sh == nil {
		return err
	}

	booking, err := s.carrier.Book(ctx, port.BookingRequest{OrderID: sh.OrderID, Address: sh.ShippingAddress, Items: sh.Items})
	switch {
	case errors.Is(err, port.ErrCarrierRejected):
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", sh.OrderID).Msg("carrier rejected shipment")
		if err := sh.Fail(err.Error()); err != nil {
			return err
		}
	case err != nil:
		// processing 且无运单号的发货单会在重投时继续下单
		span.RecordError(err)
		return err
	default:
		sh.AttachTracking(booking.Carrier, booking.TrackingNumber)
	}

	err = s.save(ctx, sh, statusEvent(sh))
	if errors.Is(err, domain.ErrConcurrentUpdate) && sh.Booked() {
		return s.reconcileBooking(ctx, sh.OrderID, booking.TrackingNumber)
	}
	if err != nil {
		return err
	}
	transitioned(ctx, sh)
	return nil
}

// prepare 返回需要下单的发货单，nil 表示无事可做。
func (s *ShippingService) prepare(ctx context.Context, ev *contract.OrderConfirmed) (*domain.Shipment, error) {
	addr := toAddress(ev.ShippingAddress)
	lines := toLines(ev.Items)

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		sh, err := s.repo.FindByOrderID(ctx, ev.OrderID)
		switch {
		case errors.Is(err, domain.ErrShipmentNotFound):
			sh = domain.NewPlaceholder(ev.OrderID)
			if err := sh.StartProcessing(ev.UserID, addr, lines); err != nil {
				return nil, err
			}
			err = s.repo.Create(ctx, sh)
			if errors.Is(err, domain.ErrDuplicateShipment) {
				lastErr = err
				continue
			}
			if err != nil {
				return nil, err
			}
			return sh, nil
		case err != nil:
			return nil, err
		case sh.Status == domain.StatusPending:
			if err := sh.StartProcessing(ev.UserID, addr, lines); err != nil {
				return nil, err
			}
			err = s.repo.Save(ctx, sh)
			if errors.Is(err, domain.ErrConcurrentUpdate) {
				lastErr = err
				continue
			}
			if err != nil {
				return nil, err
			}
			return sh, nil
		case sh.Status == domain.StatusProcessing && !sh.Booked():
			logger.Ctx(ctx).Info().Str("order_id", sh.OrderID).Msg("resuming carrier booking")
			return sh, nil
		default:
			logger.Ctx(ctx).Debug().Str("order_id", sh.OrderID).Str("status", string(sh.Status)).Msg("shipment already initiated, skipping")
			return nil, nil
		}
	}
	return nil, lastErr
}

// reconcileBooking 下单成功但保存时发货单已被并发修改。
// 若发货单已被取消，撤销刚下的运单；否则交给重投继续。
func (s *ShippingService) reconcileBooking(ctx context.Context, orderID, trackingNumber string) error {
	sh, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if sh.Status.Cancellable() {
		return domain.ErrConcurrentUpdate
	}
	if sh.TrackingNumber != trackingNumber {
		if err := s.carrier.Cancel(ctx, trackingNumber); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Str("tracking_number", trackingNumber).
				Msg("cannot cancel orphaned carrier booking")
		}
	}
	return nil
}

// HandleOrderCancelled 只取消还未发出的发货单。发货单不存在时写入 cancelled 墓碑，
// 阻止之后迟到的创建消息。
func (s *ShippingService) HandleOrderCancelled(ctx context.Context, ev *contract.OrderCancelled) error {
	ctx, span := s.tracer.Start(ctx, "shipping.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", ev.OrderID))
	log := logger.Ctx(ctx).With().Str("order_id", ev.OrderID).Logger()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		sh, err := s.repo.FindByOrderID(ctx, ev.OrderID)
		if errors.Is(err, domain.ErrShipmentNotFound) {
			sh = domain.NewCancelledTombstone(ev.OrderID, ev.Reason)
			err = s.repo.Create(ctx, sh)
			if errors.Is(err, domain.ErrDuplicateShipment) {
				lastErr = err
				continue
			}
			if err == nil {
				transitioned(ctx, sh)
			}
			return err
		}
		if err != nil {
			return err
		}

		switch sh.Status {
		case domain.StatusShipped, domain.StatusDelivered:
			log.Warn().Str("status", string(sh.Status)).Msg("order cancelled after shipment left, manual recall needed")
			return nil
		case domain.StatusCancelled, domain.StatusFailed:
			return nil
		}

		if sh.Booked() {
			if err := s.carrier.Cancel(ctx, sh.TrackingNumber); err != nil {
				span.RecordError(err)
				return err
			}
		}
		if err := sh.Cancel(ev.Reason); err != nil {
			return err
		}
		err = s.save(ctx, sh, statusEvent(sh))
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}
		transitioned(ctx, sh)
		return nil
	}
	return lastErr
}

// UpdateStatus 处理承运商回调，状态只能向前推进。
func (s *ShippingService) UpdateStatus(ctx context.Context, orderID string, status domain.Status, note string) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "shipping.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("shipment.status", string(status)))

	if !status.Valid() {
		return nil, domain.ErrInvalidTransition
	}
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		sh, err := s.GetShipment(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if err := sh.Advance(status, note); err != nil {
			return nil, err
		}
		err = s.save(ctx, sh, statusEvent(sh))
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		transitioned(ctx, sh)
		return sh, nil
	}
	return nil, lastErr
}

func toAddress(a contract.Address) domain.Address {
	return domain.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toLines(items []contract.LineItem) []domain.Line {
	lines := make([]domain.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
