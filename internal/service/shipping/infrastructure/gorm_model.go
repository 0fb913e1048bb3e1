package infrastructure

import (
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain"
)

// ShipmentModel 对应 shipments 表，order_id 唯一保证每个订单至多一个发货单。
type ShipmentModel struct {
	ID              string                `gorm:"primaryKey;size:36"`
	OrderID         string                `gorm:"size:36;uniqueIndex"`
	UserID          string                `gorm:"size:64;index"`
	Carrier         string                `gorm:"size:32"`
	TrackingNumber  string                `gorm:"size:64;index"`
	ShippingAddress domain.Address        `gorm:"serializer:json;type:text"`
	Items           []domain.Line         `gorm:"serializer:json;type:text"`
	Status          string                `gorm:"size:16;index"`
	History         []domain.HistoryEntry `gorm:"serializer:json;type:text"`
	Tombstone       bool                  `gorm:"not null;default:false"`
	Version         int                   `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ShipmentModel) TableName() string {
	return "shipments"
}

func toModel(s *domain.Shipment) *ShipmentModel {
	return &ShipmentModel{
		ID:              s.ID,
		OrderID:         s.OrderID,
		UserID:          s.UserID,
		Carrier:         s.Carrier,
		TrackingNumber:  s.TrackingNumber,
		ShippingAddress: s.ShippingAddress,
		Items:           s.Items,
		Status:          string(s.Status),
		History:         s.History,
		Tombstone:       s.Tombstone,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toDomain(m *ShipmentModel) *domain.Shipment {
	return &domain.Shipment{
		ID:              m.ID,
		OrderID:         m.OrderID,
		UserID:          m.UserID,
		Carrier:         m.Carrier,
		TrackingNumber:  m.TrackingNumber,
		ShippingAddress: m.ShippingAddress,
		Items:           m.Items,
		Status:          domain.Status(m.Status),
		History:         m.History,
		Tombstone:       m.Tombstone,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
