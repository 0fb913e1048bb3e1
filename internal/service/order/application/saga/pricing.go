package saga

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// PricingHandler 用目录价格快照生成订单行，再计算税费、运费和折扣。
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	items := make([]domain.Item, 0, len(orderCtx.Input.Lines))
	count := 0
	for _, l := range orderCtx.Input.Lines {
		p := orderCtx.products[l.ProductID]
		items = append(items, domain.NewItem(p.ID, p.Name, l.Quantity, p.Price))
		count += l.Quantity
	}

	discount := decimal.Zero
	if orderCtx.Discounts != nil {
		d, err := orderCtx.Discounts.Discount(ctx, port.DiscountInput{
			UserID:        orderCtx.Input.UserID,
			Subtotal:      orderCtx.Rules.Subtotal(items),
			ItemCount:     count,
			PaymentMethod: orderCtx.Input.PaymentMethod,
		})
		if err != nil {
			// 折扣规则出错不影响下单
			span.RecordError(err)
			logger.Ctx(ctx).Warn().Err(err).Msg("discount evaluation failed, no discount applied")
		} else {
			discount = d
		}
	}

	orderCtx.items = items
	orderCtx.totals = orderCtx.Rules.Compute(items, discount)
	span.SetAttributes(
		attribute.String("order.subtotal", orderCtx.totals.Subtotal.StringFixed(2)),
		attribute.String("order.total", orderCtx.totals.Total.StringFixed(2)),
	)

	return h.executeNext(orderCtx)
}
