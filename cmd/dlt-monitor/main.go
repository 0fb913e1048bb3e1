// cmd/dlt-monitor/main.go
package main

import (
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/contract"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/mq"
	"github.com/rs/zerolog/log"
)

const serviceName = "dlt-monitor"

// dlt-monitor 订阅全部死信队列，只记录日志与指标，不做重放。
func main() {
	cfg, err := bootstrap.Init(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 死信不再转发，也无需去重
	factory := bootstrap.NewConsumerFactory(cfg, serviceName, nil, nil)
	var workers []bootstrap.Worker
	for _, dlt := range mq.DeadLetterQueues(contract.AllQueues()) {
		workers = append(workers, factory.Consumer(dlt, mq.LogDeadLetter))
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		Workers:     workers,
	})
}
