package interfaces

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/application"
)

// Consumers 返回订单服务订阅的所有队列，每个队列一个独立的消费者。
func Consumers(f *bootstrap.ConsumerFactory, svc *application.OrderApplicationService) []bootstrap.Worker {
	return []bootstrap.Worker{
		f.Consumer(contract.QueuePaymentCompleted, mq.Handle(svc.HandlePaymentCompleted)),
		f.Consumer(contract.QueuePaymentFailed, mq.Handle(svc.HandlePaymentFailed)),
		f.Consumer(contract.QueuePaymentRefunded, mq.Handle(svc.HandlePaymentRefunded)),
		f.Consumer(contract.QueuePaymentRefundFailed, mq.Handle(svc.HandlePaymentRefundFailed)),
		f.Consumer(contract.QueueInventoryReservationFailed, mq.Handle(svc.HandleReservationFailed)),
		f.Consumer(contract.QueueShippingStatusUpdated, mq.Handle(svc.HandleShippingStatusUpdated)),
	}
}
