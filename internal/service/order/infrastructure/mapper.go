package infrastructure

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(m *OrderModel) *domain.Order {
	items := make([]domain.Item, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domain.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	history := make([]domain.HistoryEntry, 0, len(m.History))
	for _, h := range m.History {
		history = append(history, domain.HistoryEntry{Status: domain.Status(h.Status), Actor: h.Actor, At: h.At, Note: h.Note})
	}
	a := m.ShippingAddress
	return &domain.Order{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		UserID:      m.UserID,
		UserEmail:   m.UserEmail,
		Items:       items,
		Totals: domain.Totals{
			Subtotal:     m.Subtotal,
			Tax:          m.Tax,
			ShippingCost: m.ShippingCost,
			Discount:     m.Discount,
			Total:        m.Total,
		},
		ShippingAddress: domain.Address{
			FullName: a.FullName, Phone: a.Phone, Line1: a.Line1, Line2: a.Line2,
			City: a.City, State: a.State, PostalCode: a.PostalCode, Country: a.Country,
		},
		PaymentMethod:  m.PaymentMethod,
		Status:         domain.Status(m.Status),
		PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
		RefundedAmount: m.RefundedAmount,
		History:        history,
		CancelReason:   m.CancelReason,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomainOrder 将领域模型转换为数据库模型
func FromDomainOrder(o *domain.Order) *OrderModel {
	items := make([]ItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemRecord{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	history := make([]HistoryRecord, 0, len(o.History))
	for _, h := range o.History {
		history = append(history, HistoryRecord{Status: string(h.Status), Actor: h.Actor, At: h.At, Note: h.Note})
	}
	a := o.ShippingAddress
	return &OrderModel{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		UserID:       o.UserID,
		UserEmail:    o.UserEmail,
		Items:        items,
		Subtotal:     o.Totals.Subtotal,
		Tax:          o.Totals.Tax,
		ShippingCost: o.Totals.ShippingCost,
		Discount:     o.Totals.Discount,
		Total:        o.Totals.Total,
		ShippingAddress: AddressRecord{
			FullName: a.FullName, Phone: a.Phone, Line1: a.Line1, Line2: a.Line2,
			City: a.City, State: a.State, PostalCode: a.PostalCode, Country: a.Country,
		},
		PaymentMethod:  o.PaymentMethod,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		RefundedAmount: o.RefundedAmount,
		History:        history,
		CancelReason:   o.CancelReason,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
