package interfaces

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/application"
)

// Consumers 返回库存服务订阅的队列。
func Consumers(f *bootstrap.ConsumerFactory, svc *application.InventoryService) []bootstrap.Worker {
	return []bootstrap.Worker{
		f.Consumer(contract.QueueInventoryReserve, mq.Handle(svc.HandleReserve)),
		f.Consumer(contract.QueueProductStockIncrease, mq.Handle(svc.HandleRelease)),
		f.Consumer(contract.QueueShippingStatusUpdated, mq.Handle(svc.HandleShippingStatus)),
	}
}
