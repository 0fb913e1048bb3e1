package saga

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ValidationHandler 校验购物车，并合并重复的商品行。
type ValidationHandler struct {
	NextHandler
}

func (h *ValidationHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Validation")
	defer span.End()

	if err := domain.ValidateLines(orderCtx.Input.Lines); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid cart")
		return err
	}
	orderCtx.Input.Lines = mergeLines(orderCtx.Input.Lines)
	span.SetAttributes(attribute.Int("order.lines", len(orderCtx.Input.Lines)))

	return h.executeNext(orderCtx)
}

func mergeLines(lines []domain.LineRequest) []domain.LineRequest {
	index := make(map[string]int, len(lines))
	out := make([]domain.LineRequest, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
