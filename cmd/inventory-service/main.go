// cmd/inventory-service/main.go
package main

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/inbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/application"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/infrastructure"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/inventory/interfaces"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const serviceName = "inventory-service"

// 库存账本全部在 Redis 中，结果消息直接发布，不使用 outbox。
func main() {
	cfg, err := bootstrap.Init(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	rdb, err := redis.NewClient(context.Background(), cfg.Infra.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	messaging := bootstrap.NewMessaging(cfg, serviceName, inbox.NewRedisInbox(rdb.GetClient(), cfg.Consumer.InboxTTL))

	nc, err := bootstrap.NewNacosClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create nacos client")
	}

	ledger := infrastructure.NewRedisLedger(rdb, cfg.Inventory.TombstoneTTL)
	svc := application.NewInventoryService(ledger, messaging.Publisher, otel.Tracer(serviceName))

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		Nacos:       nc,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewInventoryHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		Workers: interfaces.Consumers(messaging.Consumers, svc),
		Closers: []func() error{messaging.Close, rdb.Close},
	})
}
