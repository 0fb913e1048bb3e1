package interfaces

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/application"
)

func Consumers(f *bootstrap.ConsumerFactory, svc *application.PaymentService) []bootstrap.Worker {
	return []bootstrap.Worker{
		f.Consumer(contract.QueuePaymentProcess, mq.Handle(svc.HandleProcess)),
		f.Consumer(contract.QueuePaymentRefund, mq.Handle(svc.HandleRefund)),
	}
}
