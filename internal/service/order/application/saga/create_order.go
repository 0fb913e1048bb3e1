package saga

import (
	"fmt"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CreateOrderHandler 负责持久化订单，同一事务内写入预留库存和扣款消息。
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	in := orderCtx.Input
	order, err := domain.NewOrder(in.UserID, in.UserEmail, orderCtx.items, orderCtx.totals, in.ShippingAddress, in.PaymentMethod)
	if err != nil {
		return err
	}

	msgs, err := mq.EncodeAll(ctx,
		contract.InventoryReserve{Meta: contract.NewMeta(), OrderID: order.ID, Items: ToContractItems(order)},
		contract.PaymentProcess{
			Meta:          contract.NewMeta(),
			OrderID:       order.ID,
			UserID:        order.UserID,
			TotalAmount:   order.Totals.Total,
			PaymentMethod: order.PaymentMethod,
		},
	)
	if err != nil {
		return err
	}

	if err := orderCtx.Repo.Create(ctx, order, msgs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save order")
		return fmt.Errorf("save order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	logger.Ctx(ctx).Info().Str("order_id", order.ID).Str("order_number", order.OrderNumber).
		Str("total", order.Totals.Total.StringFixed(2)).Msg("order placed")

	orderCtx.Order = order
	return h.executeNext(orderCtx)
}

// ToContractItems 把订单行转换为库存消息中的商品行。
func ToContractItems(o *domain.Order) []contract.LineItem {
	out := make([]contract.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, contract.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
