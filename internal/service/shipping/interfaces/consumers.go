package interfaces

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/application"
)

func Consumers(f *bootstrap.ConsumerFactory, svc *application.ShippingService) []bootstrap.Worker {
	return []bootstrap.Worker{
		f.Consumer(contract.QueuePaymentCompleted, mq.Handle(svc.HandlePaymentCompleted)),
		f.Consumer(contract.QueueOrderConfirmed, mq.Handle(svc.HandleOrderConfirmed)),
		f.Consumer(contract.QueueOrderCancelled, mq.Handle(svc.HandleOrderCancelled)),
	}
}
