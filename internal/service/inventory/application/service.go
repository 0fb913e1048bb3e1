// internal/service/inventory/application/service.go
package application

import (
	"context"
	"errors"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InventoryService 编排库存账本。账本在 Redis 中，没有事务型存储，
// 失败事件直接发布，发布失败时返回错误让消费者重试。
type InventoryService struct {
	ledger    domain.Ledger
	publisher mq.Publisher
	tracer    trace.Tracer
}

func NewInventoryService(ledger domain.Ledger, publisher mq.Publisher, tracer trace.Tracer) *InventoryService {
	return &InventoryService{ledger: ledger, publisher: publisher, tracer: tracer}
}

func toLines(items []contract.LineItem) []domain.Line {
	out := make([]domain.Line, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// HandleReserve 处理 inventory.reserve。
func (s *InventoryService) HandleReserve(ctx context.Context, ev *contract.InventoryReserve) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Reserve")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", ev.OrderID))
	log := logger.Ctx(ctx).With().Str("order_id", ev.OrderID).Logger()

	lines, err := domain.NormalizeLines(toLines(ev.Items))
	if err != nil {
		metrics.InventoryReservations.WithLabelValues("invalid").Inc()
		log.Warn().Err(err).Msg("invalid reservation request")
		return s.publishFailed(ctx, ev.OrderID, err.Error())
	}

	res, err := s.ledger.Reserve(ctx, ev.OrderID, lines)
	if err != nil {
		span.RecordError(err)
		return err
	}

	switch res.Status {
	case domain.ReserveOK:
		metrics.InventoryReservations.WithLabelValues("reserved").Inc()
		log.Info().Int("lines", len(lines)).Msg("stock reserved")
		return nil
	case domain.ReserveDuplicate:
		metrics.InventoryReservations.WithLabelValues("duplicate").Inc()
		log.Info().Str("state", string(res.PriorState)).Msg("reservation already handled, skipping")
		return nil
	case domain.ReserveAlreadyRejected:
		// 上次发布失败事件可能没有成功，再发一次
		return s.publishFailed(ctx, ev.OrderID, "insufficient stock")
	default:
		metrics.InventoryReservations.WithLabelValues("rejected").Inc()
		log.Warn().Str("product_id", res.ProductID).Int("available", res.Available).Msg("insufficient stock, reservation rejected")
		return s.publishFailed(ctx, ev.OrderID, res.Reason())
	}
}

func (s *InventoryService) publishFailed(ctx context.Context, orderID, reason string) error {
	return mq.PublishEvents(ctx, s.publisher, contract.InventoryReservationFailed{
		Meta:    contract.NewMeta(),
		OrderID: orderID,
		Reason:  reason,
	})
}

// HandleRelease 处理 product.stock.increase，对同一订单只会归还一次。
func (s *InventoryService) HandleRelease(ctx context.Context, ev *contract.ProductStockIncrease) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Release")
	defer span.End()

	released, err := s.ledger.Release(ctx, ev.OrderID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if released {
		metrics.InventoryReservations.WithLabelValues("released").Inc()
		logger.Ctx(ctx).Info().Str("order_id", ev.OrderID).Msg("reservation released")
	} else {
		logger.Ctx(ctx).Debug().Str("order_id", ev.OrderID).Msg("nothing to release")
	}
	return nil
}

// HandleShippingStatus 发货后预留转为实际出库。
func (s *InventoryService) HandleShippingStatus(ctx context.Context, ev *contract.ShippingStatusUpdated) error {
	if ev.NewStatus != "shipped" {
		return nil
	}
	committed, err := s.ledger.Commit(ctx, ev.OrderID)
	if err != nil {
		return err
	}
	if committed {
		metrics.InventoryReservations.WithLabelValues("committed").Inc()
		logger.Ctx(ctx).Info().Str("order_id", ev.OrderID).Msg("reservation committed")
	}
	return nil
}

func (s *InventoryService) CheckBulk(ctx context.Context, lines []domain.Line) ([]domain.Availability, error) {
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, domain.ErrInvalidLine
		}
	}
	return s.ledger.CheckBulk(ctx, lines)
}

func (s *InventoryService) SetStock(ctx context.Context, productID string, available int) (domain.StockLevel, error) {
	if productID == "" || available < 0 {
		return domain.StockLevel{}, errors.Join(domain.ErrInvalidLine, errors.New("available must be >= 0"))
	}
	return s.ledger.SetStock(ctx, productID, available)
}

func (s *InventoryService) GetReservation(ctx context.Context, orderID string) (*domain.Reservation, error) {
	return s.ledger.GetReservation(ctx, orderID)
}
