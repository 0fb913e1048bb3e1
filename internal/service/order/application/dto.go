// internal/service/order/application/dto.go
package application

import (
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest 是创建订单用例的输入数据
type CreateOrderRequest struct {
	UserID          string           `json:"userId"`
	UserEmail       string           `json:"userEmail"`
	Items           []LineItemDTO    `json:"items"`
	ShippingAddress contract.Address `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
}

type LineItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateStatusRequest 管理端推进订单状态。
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type HistoryDTO struct {
	Status string    `json:"status"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// OrderResponse 是订单的读模型
type OrderResponse struct {
	ID              string           `json:"id"`
	OrderNumber     string           `json:"orderNumber"`
	UserID          string           `json:"userId"`
	UserEmail       string           `json:"userEmail"`
	Items           []OrderItemDTO   `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Tax             decimal.Decimal  `json:"tax"`
	ShippingCost    decimal.Decimal  `json:"shippingCost"`
	Discount        decimal.Decimal  `json:"discount"`
	Total           decimal.Decimal  `json:"total"`
	ShippingAddress contract.Address `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	Status          string           `json:"status"`
	PaymentStatus   string           `json:"paymentStatus"`
	RefundedAmount  decimal.Decimal  `json:"refundedAmount"`
	StatusHistory   []HistoryDTO     `json:"statusHistory"`
	CancelReason    string           `json:"cancelReason,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (r *CreateOrderRequest) lines() []domain.LineRequest {
	out := make([]domain.LineRequest, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, domain.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// ToDomainAddress 与 ToContractAddress 在消息格式和领域模型之间转换地址。
func ToDomainAddress(a contract.Address) domain.Address {
	return domain.Address{
		FullName: a.FullName, Phone: a.Phone, Line1: a.Line1, Line2: a.Line2,
		City: a.City, State: a.State, PostalCode: a.PostalCode, Country: a.Country,
	}
}

func ToContractAddress(a domain.Address) contract.Address {
	return contract.Address{
		FullName: a.FullName, Phone: a.Phone, Line1: a.Line1, Line2: a.Line2,
		City: a.City, State: a.State, PostalCode: a.PostalCode, Country: a.Country,
	}
}

// ToOrderResponse 把领域对象转换为读模型。
func ToOrderResponse(o *domain.Order) *OrderResponse {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice, LineTotal: it.LineTotal,
		})
	}
	history := make([]HistoryDTO, 0, len(o.History))
	for _, h := range o.History {
		history = append(history, HistoryDTO{Status: string(h.Status), Actor: h.Actor, At: h.At, Note: h.Note})
	}
	return &OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		Items:           items,
		Subtotal:        o.Totals.Subtotal,
		Tax:             o.Totals.Tax,
		ShippingCost:    o.Totals.ShippingCost,
		Discount:        o.Totals.Discount,
		Total:           o.Totals.Total,
		ShippingAddress: ToContractAddress(o.ShippingAddress),
		PaymentMethod:   o.PaymentMethod,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		RefundedAmount:  o.RefundedAmount,
		StatusHistory:   history,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
