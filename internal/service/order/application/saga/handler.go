package saga

import (
	"context"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain/port"
	"go.opentelemetry.io/otel/trace"
)

// Input 是下单请求在责任链中的形态。
type Input struct {
	UserID          string
	UserEmail       string
	Lines           []domain.LineRequest
	ShippingAddress domain.Address
	PaymentMethod   string
}

// OrderContext 在责任链中传递上下文数据。
// 外部依赖都是出站端口，链上的中间结果也挂在这里。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Input  Input

	Catalog      port.CatalogService
	Inventory    port.InventoryService
	Discounts    port.DiscountPolicy
	Rules        domain.PricingRules
	CheckTimeout time.Duration
	Repo         domain.OrderRepository

	products map[string]port.Product
	items    []domain.Item
	totals   domain.Totals

	// Order 在链成功结束后被设置
	Order *domain.Order
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

// BuildCreateChain 校验 -> 可用性检查 -> 定价 -> 落库。
// 任何一步失败都不会有订单或消息产生。
func BuildCreateChain() Handler {
	head := &ValidationHandler{}
	head.SetNext(&AvailabilityHandler{}).
		SetNext(&PricingHandler{}).
		SetNext(&CreateOrderHandler{})
	return head
}
