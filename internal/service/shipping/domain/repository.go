package domain

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
)

// ShipmentRepository msgs 与发货单变更在同一事务中写入 outbox。
type ShipmentRepository interface {
	// Create 同一订单重复创建返回 ErrDuplicateShipment。
	Create(ctx context.Context, s *Shipment, msgs ...mq.Message) error
	Save(ctx context.Context, s *Shipment, msgs ...mq.Message) error
	FindByOrderID(ctx context.Context, orderID string) (*Shipment, error)
}
