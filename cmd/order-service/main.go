// cmd/order-service/main.go
package main

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/inbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/application"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/domain"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/infrastructure"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/infrastructure/adapter"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/order/interfaces"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

const serviceName = "order-service"

// main 函数是应用的"组装根"：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg, err := bootstrap.Init(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	tracer := otel.Tracer(serviceName)

	// 1. 基础设施
	db, err := database.Open(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	repo := infrastructure.NewGormOrderRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate order tables")
	}

	rdb, err := redis.NewClient(context.Background(), cfg.Infra.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	messaging := bootstrap.NewMessaging(cfg, serviceName, inbox.NewRedisInbox(rdb.GetClient(), cfg.Consumer.InboxTTL))

	relay, closeRelay, err := bootstrap.NewOutboxRelay(cfg, serviceName, db, messaging.Publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox relay")
	}

	nc, err := bootstrap.NewNacosClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create nacos client")
	}
	httpClient := httpclient.NewClient(tracer, bootstrap.NewResolver(nc, cfg.Order.Endpoints))

	// 2. 业务组件
	rules, err := pricingRules(cfg.Order)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pricing rules")
	}
	discounts, err := adapter.NewCELDiscountPolicy(cfg.Order.DiscountExpression)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid discount expression")
	}
	svc := application.NewOrderApplicationService(application.Dependencies{
		Repo:         repo,
		Tracer:       tracer,
		Catalog:      adapter.NewCatalogHTTPAdapter(httpClient, cfg.Order.CatalogService),
		Inventory:    adapter.NewInventoryHTTPAdapter(httpClient, cfg.Order.InventoryService),
		Discounts:    discounts,
		Rules:        rules,
		CheckTimeout: cfg.Order.CheckTimeout,
	})

	// 3. 启动
	workers := interfaces.Consumers(messaging.Consumers, svc)
	workers = append(workers, relay.Run)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		Nacos:       nc,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewOrderHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		Workers: workers,
		Closers: []func() error{messaging.Close, closeRelay, rdb.Close, func() error { return database.Close(db) }},
	})
}

// pricingRules 未配置的项使用默认值。
func pricingRules(cfg bootstrap.OrderConfig) (domain.PricingRules, error) {
	rules := domain.DefaultPricingRules()
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"taxRate", cfg.TaxRate, &rules.TaxRate},
		{"flatShippingFee", cfg.FlatShippingFee, &rules.FlatShippingFee},
		{"freeShippingThreshold", cfg.FreeShippingThreshold, &rules.FreeShippingThreshold},
	} {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return rules, errors.Wrapf(err, "order.%s", f.name)
		}
		if v.IsNegative() {
			return rules, errors.Errorf("order.%s must not be negative", f.name)
		}
		*f.dst = v
	}
	return rules, nil
}
