// cmd/payment-service/main.go
package main

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/inbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/nacos"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/application"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/domain/port"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/infrastructure"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/infrastructure/gateway"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/payment/interfaces"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "payment-service"

func main() {
	cfg, err := bootstrap.Init(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	tracer := otel.Tracer(serviceName)

	db, err := database.Open(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	repo := infrastructure.NewGormPaymentRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate payment tables")
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
	gw, err := newGateway(cfg.Payment.Gateway, tracer, nc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create payment gateway")
	}

	svc := application.NewPaymentService(repo, gw, messaging.Publisher, tracer)

	workers := interfaces.Consumers(messaging.Consumers, svc)
	workers = append(workers, relay.Run)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		Nacos:       nc,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewPaymentHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		Workers: workers,
		Closers: []func() error{messaging.Close, closeRelay, rdb.Close, func() error { return database.Close(db) }},
	})
}

func newGateway(cfg bootstrap.GatewayConfig, tracer trace.Tracer, nc *nacos.Client) (port.PaymentGateway, error) {
	switch cfg.Type {
	case "", "fake":
		maxAmount := decimal.Zero
		if cfg.MaxAmount != "" {
			v, err := decimal.NewFromString(cfg.MaxAmount)
			if err != nil {
				return nil, errors.Wrap(err, "payment.gateway.maxAmount")
			}
			maxAmount = v
		}
		return gateway.NewFakeGateway(cfg.DeclineMethods, maxAmount), nil
	case "http":
		client := httpclient.NewClient(tracer, bootstrap.NewResolver(nc, cfg.Endpoints))
		return gateway.NewHTTPGateway(client, cfg.Service, cfg.Timeout), nil
	default:
		return nil, errors.Errorf("unknown payment gateway type %q", cfg.Type)
	}
}
