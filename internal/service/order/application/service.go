// internal/service/order/application/service.go
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
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/application/saga"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 乐观锁冲突时最多重新加载并重试的次数
const maxConflictRetries = 5

// Dependencies 是应用服务的出站依赖。
type Dependencies struct {
	Repo         domain.OrderRepository
	Tracer       trace.Tracer
	Catalog      port.CatalogService
	Inventory    port.InventoryService
	Discounts    port.DiscountPolicy
	Rules        domain.PricingRules
	CheckTimeout time.Duration
}

// OrderApplicationService 只关注业务流程编排，所有出站消息都经由 outbox。
type OrderApplicationService struct {
	repo         domain.OrderRepository
	tracer       trace.Tracer
	catalog      port.CatalogService
	inventory    port.InventoryService
	discounts    port.DiscountPolicy
	rules        domain.PricingRules
	checkTimeout time.Duration
	createChain  saga.Handler
}

func NewOrderApplicationService(deps Dependencies) *OrderApplicationService {
	return &OrderApplicationService{
		repo:         deps.Repo,
		tracer:       deps.Tracer,
		catalog:      deps.Catalog,
		inventory:    deps.Inventory,
		discounts:    deps.Discounts,
		rules:        deps.Rules,
		checkTimeout: deps.CheckTimeout,
		createChain:  saga.BuildCreateChain(),
	}
}

// CreateOrder 同步校验商品和库存后创建 pending 订单。
// 失败时不落库、不发消息。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	orderCtx := &saga.OrderContext{
		Ctx:    ctx,
		Tracer: s.tracer,
		Input: saga.Input{
			UserID:          req.UserID,
			UserEmail:       req.UserEmail,
			Lines:           req.lines(),
			ShippingAddress: ToDomainAddress(req.ShippingAddress),
			PaymentMethod:   req.PaymentMethod,
		},
		Catalog:      s.catalog,
		Inventory:    s.inventory,
		Discounts:    s.discounts,
		Rules:        s.rules,
		CheckTimeout: s.checkTimeout,
		Repo:         s.repo,
	}
	if err := s.createChain.Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("create order rejected")
		return nil, err
	}
	return orderCtx.Order, nil
}

func (s *OrderApplicationService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// CancelOrder 取消订单并发出补偿消息。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, id, reason, actor string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("actor", actor))

	if reason == "" {
		reason = "cancelled by " + actor
	}
	order, err := s.mutate(ctx, id, func(o *domain.Order) ([]contract.Event, bool, error) {
		if err := o.Cancel(reason, actor); err != nil {
			return nil, false, err
		}
		return cancellationEvents(o), true, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// UpdateStatus 管理端单步推进，取消走 CancelOrder。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, id string, status domain.Status, actor, note string) (*domain.Order, error) {
	if status == domain.StatusCancelled {
		return s.CancelOrder(ctx, id, note, actor)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, status)
	}
	return s.mutate(ctx, id, func(o *domain.Order) ([]contract.Event, bool, error) {
		if err := o.UpdateStatus(status, actor, note); err != nil {
			return nil, false, err
		}
		return []contract.Event{statusUpdated(o)}, true, nil
	})
}

// mutateFunc 修改订单并返回需要在同一事务中发出的事件。
// changed 为 false 时不写库。
type mutateFunc func(o *domain.Order) (events []contract.Event, changed bool, err error)

// mutate 加载、修改、保存订单；版本冲突时重新加载再试。
func (s *OrderApplicationService) mutate(ctx context.Context, id string, fn mutateFunc) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		order, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		from := order.Status

		events, changed, err := fn(order)
		if err != nil {
			return nil, err
		}
		if !changed {
			return order, nil
		}

		msgs, err := mq.EncodeAll(ctx, events...)
		if err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, order, msgs...)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			lastErr = err
			logger.Ctx(ctx).Debug().Str("order_id", id).Int("attempt", attempt+1).Msg("version conflict, reloading order")
			continue
		}
		if err != nil {
			return nil, err
		}
		if from != order.Status {
			metrics.OrderTransitions.WithLabelValues(string(from), string(order.Status)).Inc()
			logger.Ctx(ctx).Info().Str("order_id", id).Str("from", string(from)).Str("to", string(order.Status)).Msg("order status changed")
		}
		return order, nil
	}
	return nil, lastErr
}

// cancellationEvents 取消后的补偿消息，库存释放无条件发出，退款只在已支付时发出。
func cancellationEvents(o *domain.Order) []contract.Event {
	events := []contract.Event{
		contract.ProductStockIncrease{Meta: contract.NewMeta(), OrderID: o.ID, Items: saga.ToContractItems(o)},
	}
	if o.PaymentStatus == domain.PaymentCompleted {
		events = append(events, contract.PaymentRefund{Meta: contract.NewMeta(), OrderID: o.ID})
	}
	return append(events,
		contract.NotificationOrderCancelled{
			Meta:        contract.NewMeta(),
			OrderID:     o.ID,
			UserEmail:   o.UserEmail,
			OrderNumber: o.OrderNumber,
			Reason:      o.CancelReason,
		},
		contract.OrderCancelled{Meta: contract.NewMeta(), OrderID: o.ID, Reason: o.CancelReason},
		statusUpdated(o),
	)
}

func statusUpdated(o *domain.Order) contract.Event {
	return contract.OrderStatusUpdated{Meta: contract.NewMeta(), OrderID: o.ID, Status: string(o.Status), UserID: o.UserID}
}
